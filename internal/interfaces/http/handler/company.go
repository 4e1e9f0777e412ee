package handler

import (
	"context"

	companyapp "github.com/courtage/backend/internal/application/company"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CompanyHandler handles insurance companies
type CompanyHandler struct {
	BaseHandler
	companyService *companyapp.CompanyService
}

// NewCompanyHandler creates a new CompanyHandler
func NewCompanyHandler(companyService *companyapp.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

// Create handles POST /companies
// @ID           createCompany
// @Summary      Create a company
// @Description  Add an insurance company
// @Tags         companies
// @Accept       json
// @Produce      json
// @Param        request body companyapp.CreateCompanyRequest true "Company"
// @Success      201 {object} dto.Response{data=companyapp.CompanyResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /companies [post]
func (h *CompanyHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req companyapp.CreateCompanyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	co, err := h.companyService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, co)
}

// Get handles GET /companies/:id
// @ID           getCompanyById
// @Summary      Get a company
// @Description  Retrieve an insurance company by ID
// @Tags         companies
// @Produce      json
// @Param        id path string true "Company ID" format(uuid)
// @Success      200 {object} dto.Response{data=companyapp.CompanyResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /companies/{id} [get]
func (h *CompanyHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	co, err := h.companyService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, co)
}

// List handles GET /companies
// @ID           listCompanies
// @Summary      List companies
// @Description  Paginated insurance companies
// @Tags         companies
// @Produce      json
// @Param        filter query companyapp.CompanyListFilter false "Filters"
// @Success      200 {object} dto.Response{data=[]companyapp.CompanyResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /companies [get]
func (h *CompanyHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter companyapp.CompanyListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	list, total, err := h.companyService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list, total, filter.Page, filter.PageSize)
}

// Update handles PUT /companies/:id
// @ID           updateCompany
// @Summary      Update a company
// @Description  Change the name, contact or default commission of a company
// @Tags         companies
// @Accept       json
// @Produce      json
// @Param        id path string true "Company ID" format(uuid)
// @Param        request body companyapp.UpdateCompanyRequest true "Changes"
// @Success      200 {object} dto.Response{data=companyapp.CompanyResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /companies/{id} [put]
func (h *CompanyHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req companyapp.UpdateCompanyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	co, err := h.companyService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, co)
}

// Activate handles POST /companies/:id/activate
// @ID           activateCompany
// @Summary      Activate a company
// @Description  Allow new contracts with the company
// @Tags         companies
// @Produce      json
// @Param        id path string true "Company ID" format(uuid)
// @Success      200 {object} dto.Response{data=companyapp.CompanyResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /companies/{id}/activate [post]
func (h *CompanyHandler) Activate(c *gin.Context) {
	h.changeStatus(c, h.companyService.Activate)
}

// Deactivate handles POST /companies/:id/deactivate
// @ID           deactivateCompany
// @Summary      Deactivate a company
// @Description  Stop new contracts with the company
// @Tags         companies
// @Produce      json
// @Param        id path string true "Company ID" format(uuid)
// @Success      200 {object} dto.Response{data=companyapp.CompanyResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /companies/{id}/deactivate [post]
func (h *CompanyHandler) Deactivate(c *gin.Context) {
	h.changeStatus(c, h.companyService.Deactivate)
}

func (h *CompanyHandler) changeStatus(c *gin.Context, apply func(ctx context.Context, tenantID, id uuid.UUID) (*companyapp.CompanyResponse, error)) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	co, err := apply(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, co)
}
