package handler

import (
	clientapp "github.com/courtage/backend/internal/application/client"
	vehicleapp "github.com/courtage/backend/internal/application/vehicle"
	"github.com/gin-gonic/gin"
)

// ClientHandler handles insured clients
type ClientHandler struct {
	BaseHandler
	clientService  *clientapp.ClientService
	vehicleService *vehicleapp.VehicleService
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(clientService *clientapp.ClientService, vehicleService *vehicleapp.VehicleService) *ClientHandler {
	return &ClientHandler{clientService: clientService, vehicleService: vehicleService}
}

// Create handles POST /clients
// @ID           createClient
// @Summary      Create a client
// @Description  Create an individual or company client with a CLT reference
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        request body clientapp.CreateClientRequest true "Client"
// @Success      201 {object} dto.Response{data=clientapp.ClientResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /clients [post]
func (h *ClientHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req clientapp.CreateClientRequest
	if !h.bindJSON(c, &req) {
		return
	}
	client, err := h.clientService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, client)
}

// Get handles GET /clients/:id
// @ID           getClientById
// @Summary      Get a client
// @Description  Retrieve a client by ID
// @Tags         clients
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Success      200 {object} dto.Response{data=clientapp.ClientResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /clients/{id} [get]
func (h *ClientHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	client, err := h.clientService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, client)
}

// GetByReference handles GET /clients/reference/:reference
// @ID           getClientByReference
// @Summary      Get a client by reference
// @Description  Retrieve a client by its CLT reference
// @Tags         clients
// @Produce      json
// @Param        reference path string true "Client reference" example(CLT-2024-00001)
// @Success      200 {object} dto.Response{data=clientapp.ClientResponse}
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /clients/reference/{reference} [get]
func (h *ClientHandler) GetByReference(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	client, err := h.clientService.GetByReference(c.Request.Context(), tenantID, c.Param("reference"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, client)
}

// List handles GET /clients
// @ID           listClients
// @Summary      List clients
// @Description  Paginated clients with optional search and filters
// @Tags         clients
// @Produce      json
// @Param        filter query clientapp.ClientListFilter false "Filters"
// @Success      200 {object} dto.Response{data=[]clientapp.ClientResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /clients [get]
func (h *ClientHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter clientapp.ClientListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	clients, total, err := h.clientService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, clients, total, filter.Page, filter.PageSize)
}

// Update handles PUT /clients/:id
// @ID           updateClient
// @Summary      Update a client
// @Description  Change the identity or contact details of a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Param        request body clientapp.UpdateClientRequest true "Changes"
// @Success      200 {object} dto.Response{data=clientapp.ClientResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /clients/{id} [put]
func (h *ClientHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req clientapp.UpdateClientRequest
	if !h.bindJSON(c, &req) {
		return
	}
	client, err := h.clientService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, client)
}

// Delete handles DELETE /clients/:id
// @ID           deleteClient
// @Summary      Delete a client
// @Description  Delete a client without open contracts
// @Tags         clients
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /clients/{id} [delete]
func (h *ClientHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.clientService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListVehicles handles GET /clients/:id/vehicles
// @ID           listClientVehicles
// @Summary      List client vehicles
// @Description  Vehicles owned by a client
// @Tags         clients
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]vehicleapp.VehicleResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /clients/{id}/vehicles [get]
func (h *ClientHandler) ListVehicles(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	vehicles, err := h.vehicleService.ListByClient(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, vehicles)
}

// ProfessionHandler handles the profession reference list and its discounts
type ProfessionHandler struct {
	BaseHandler
	professionService *clientapp.ProfessionService
}

// NewProfessionHandler creates a new ProfessionHandler
func NewProfessionHandler(professionService *clientapp.ProfessionService) *ProfessionHandler {
	return &ProfessionHandler{professionService: professionService}
}

// Create handles POST /professions
// @ID           createProfession
// @Summary      Create a profession
// @Description  Add a profession and its discount rule to the catalogue
// @Tags         professions
// @Accept       json
// @Produce      json
// @Param        request body clientapp.CreateProfessionRequest true "Profession"
// @Success      201 {object} dto.Response{data=clientapp.ProfessionResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /professions [post]
func (h *ProfessionHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req clientapp.CreateProfessionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	p, err := h.professionService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, p)
}

// Get handles GET /professions/:id
// @ID           getProfessionById
// @Summary      Get a profession
// @Description  Retrieve a profession by ID
// @Tags         professions
// @Produce      json
// @Param        id path string true "Profession ID" format(uuid)
// @Success      200 {object} dto.Response{data=clientapp.ProfessionResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /professions/{id} [get]
func (h *ProfessionHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	p, err := h.professionService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// List handles GET /professions
// @ID           listProfessions
// @Summary      List professions
// @Description  Every profession of the office
// @Tags         professions
// @Produce      json
// @Success      200 {object} dto.Response{data=[]clientapp.ProfessionResponse}
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /professions [get]
func (h *ProfessionHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	list, err := h.professionService.List(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// Update handles PUT /professions/:id
// @ID           updateProfession
// @Summary      Update a profession
// @Description  Rename a profession or change its discount
// @Tags         professions
// @Accept       json
// @Produce      json
// @Param        id path string true "Profession ID" format(uuid)
// @Param        request body clientapp.UpdateProfessionRequest true "Changes"
// @Success      200 {object} dto.Response{data=clientapp.ProfessionResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /professions/{id} [put]
func (h *ProfessionHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req clientapp.UpdateProfessionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	p, err := h.professionService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// Delete handles DELETE /professions/:id
// @ID           deleteProfession
// @Summary      Delete a profession
// @Description  Remove a profession no client refers to
// @Tags         professions
// @Produce      json
// @Param        id path string true "Profession ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /professions/{id} [delete]
func (h *ProfessionHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.professionService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
