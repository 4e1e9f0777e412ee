package handler

import (
	vehicleapp "github.com/courtage/backend/internal/application/vehicle"
	"github.com/gin-gonic/gin"
)

// VehicleHandler handles insured vehicles
type VehicleHandler struct {
	BaseHandler
	vehicleService *vehicleapp.VehicleService
}

// NewVehicleHandler creates a new VehicleHandler
func NewVehicleHandler(vehicleService *vehicleapp.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService}
}

// Create handles POST /vehicles
// @ID           createVehicle
// @Summary      Create a vehicle
// @Description  Register a vehicle for a client
// @Tags         vehicles
// @Accept       json
// @Produce      json
// @Param        request body vehicleapp.CreateVehicleRequest true "Vehicle"
// @Success      201 {object} dto.Response{data=vehicleapp.VehicleResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /vehicles [post]
func (h *VehicleHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req vehicleapp.CreateVehicleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	v, err := h.vehicleService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, v)
}

// Get handles GET /vehicles/:id
// @ID           getVehicleById
// @Summary      Get a vehicle
// @Description  Retrieve a vehicle by ID
// @Tags         vehicles
// @Produce      json
// @Param        id path string true "Vehicle ID" format(uuid)
// @Success      200 {object} dto.Response{data=vehicleapp.VehicleResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /vehicles/{id} [get]
func (h *VehicleHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	v, err := h.vehicleService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, v)
}

// List handles GET /vehicles
// @ID           listVehicles
// @Summary      List vehicles
// @Description  Paginated vehicles with optional search and filters
// @Tags         vehicles
// @Produce      json
// @Param        filter query vehicleapp.VehicleListFilter false "Filters"
// @Success      200 {object} dto.Response{data=[]vehicleapp.VehicleResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /vehicles [get]
func (h *VehicleHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter vehicleapp.VehicleListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	vehicles, total, err := h.vehicleService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, vehicles, total, filter.Page, filter.PageSize)
}

// Update handles PUT /vehicles/:id
// @ID           updateVehicle
// @Summary      Update a vehicle
// @Description  Change the specs of a vehicle. The class is frozen while a contract is open.
// @Tags         vehicles
// @Accept       json
// @Produce      json
// @Param        id path string true "Vehicle ID" format(uuid)
// @Param        request body vehicleapp.UpdateVehicleRequest true "Changes"
// @Success      200 {object} dto.Response{data=vehicleapp.VehicleResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /vehicles/{id} [put]
func (h *VehicleHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req vehicleapp.UpdateVehicleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	v, err := h.vehicleService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, v)
}

// Delete handles DELETE /vehicles/:id
// @ID           deleteVehicle
// @Summary      Delete a vehicle
// @Description  Delete a vehicle without open contracts
// @Tags         vehicles
// @Produce      json
// @Param        id path string true "Vehicle ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /vehicles/{id} [delete]
func (h *VehicleHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.vehicleService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
