package handler

import (
	"context"

	contractapp "github.com/courtage/backend/internal/application/contract"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContractHandler handles contracts, their pricing and lifecycle
type ContractHandler struct {
	BaseHandler
	contractService *contractapp.ContractService
}

// NewContractHandler creates a new ContractHandler
func NewContractHandler(contractService *contractapp.ContractService) *ContractHandler {
	return &ContractHandler{contractService: contractService}
}

// Create handles POST /contracts
// @ID           createContract
// @Summary      Create a contract
// @Description  Create and price a draft contract
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Param        request body contractapp.CreateContractRequest true "Contract"
// @Success      201 {object} dto.Response{data=contractapp.ContractResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts [post]
func (h *ContractHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req contractapp.CreateContractRequest
	if !h.bindJSON(c, &req) {
		return
	}
	ct, err := h.contractService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ct)
}

// Get handles GET /contracts/:id
// @ID           getContractById
// @Summary      Get a contract
// @Description  Retrieve a contract by ID
// @Tags         contracts
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Success      200 {object} dto.Response{data=contractapp.ContractResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/{id} [get]
func (h *ContractHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	ct, err := h.contractService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ct)
}

// GetByReference handles GET /contracts/reference/:reference
// @ID           getContractByReference
// @Summary      Get a contract by reference
// @Description  Retrieve a contract by its CTR reference
// @Tags         contracts
// @Produce      json
// @Param        reference path string true "Contract reference" example(CTR-2024-00001)
// @Success      200 {object} dto.Response{data=contractapp.ContractResponse}
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/reference/{reference} [get]
func (h *ContractHandler) GetByReference(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	ct, err := h.contractService.GetByReference(c.Request.Context(), tenantID, c.Param("reference"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ct)
}

// GetByPolicyNumber handles GET /contracts/policy/:number. A policy number
// is shared by a contract and its renewals, so a list is returned.
// @ID           getContractsByPolicyNumber
// @Summary      Get contracts by policy number
// @Description  A contract and its renewals, oldest first
// @Tags         contracts
// @Produce      json
// @Param        number path string true "Policy number" example(POL-2024-00001)
// @Success      200 {object} dto.Response{data=[]contractapp.ContractResponse}
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/policy/{number} [get]
func (h *ContractHandler) GetByPolicyNumber(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	list, err := h.contractService.GetByPolicyNumber(c.Request.Context(), tenantID, c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// List handles GET /contracts
// @ID           listContracts
// @Summary      List contracts
// @Description  Paginated contracts with optional search and filters
// @Tags         contracts
// @Produce      json
// @Param        filter query contractapp.ContractListFilter false "Filters"
// @Success      200 {object} dto.Response{data=[]contractapp.ContractResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts [get]
func (h *ContractHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter contractapp.ContractListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	list, total, err := h.contractService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list, total, filter.Page, filter.PageSize)
}

// Update handles PUT /contracts/:id. Only drafts accept new inputs.
// @ID           updateContract
// @Summary      Update a draft
// @Description  Change the terms or pricing inputs of a draft and reprice it
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Param        request body contractapp.UpdateContractRequest true "Changes"
// @Success      200 {object} dto.Response{data=contractapp.ContractResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/{id} [put]
func (h *ContractHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req contractapp.UpdateContractRequest
	if !h.bindJSON(c, &req) {
		return
	}
	ct, err := h.contractService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ct)
}

// Quote handles POST /contracts/quote. Nothing is persisted.
// @ID           quoteContract
// @Summary      Quote a premium
// @Description  Price a vehicle without creating a contract
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Param        request body contractapp.QuoteRequest true "Quote"
// @Success      200 {object} dto.Response{data=contractapp.QuoteResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/quote [post]
func (h *ContractHandler) Quote(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req contractapp.QuoteRequest
	if !h.bindJSON(c, &req) {
		return
	}
	quote, err := h.contractService.Quote(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// Price handles POST /contracts/:id/price
// @ID           priceContract
// @Summary      Reprice a draft
// @Description  Recompute the premium of a draft from the current grid
// @Tags         contracts
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Success      200 {object} dto.Response{data=contractapp.ContractResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/{id}/price [post]
func (h *ContractHandler) Price(c *gin.Context) {
	h.apply(c, h.contractService.Price)
}

// Validate handles POST /contracts/:id/validate
// @ID           validateContract
// @Summary      Validate a draft
// @Description  Freeze a priced draft and allocate its policy number
// @Tags         contracts
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Success      200 {object} dto.Response{data=contractapp.ContractResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/{id}/validate [post]
func (h *ContractHandler) Validate(c *gin.Context) {
	h.apply(c, h.contractService.Validate)
}

// Activate handles POST /contracts/:id/activate
// @ID           activateContract
// @Summary      Activate a contract
// @Description  Put a validated contract in force
// @Tags         contracts
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Success      200 {object} dto.Response{data=contractapp.ContractResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/{id}/activate [post]
func (h *ContractHandler) Activate(c *gin.Context) {
	h.apply(c, h.contractService.Activate)
}

// Cancel handles POST /contracts/:id/cancel
// @ID           cancelContract
// @Summary      Cancel a contract
// @Description  Cancel a contract with a reason
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Param        request body contractapp.CancelContractRequest true "Reason"
// @Success      200 {object} dto.Response{data=contractapp.ContractResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/{id}/cancel [post]
func (h *ContractHandler) Cancel(c *gin.Context) {
	var req contractapp.CancelContractRequest
	h.applyWithBody(c, &req, func(ctx context.Context, tenantID, id uuid.UUID) (*contractapp.ContractResponse, error) {
		return h.contractService.Cancel(ctx, tenantID, id, req)
	})
}

// Renew handles POST /contracts/:id/renew. The body is optional.
// @ID           renewContract
// @Summary      Renew a contract
// @Description  Create the draft renewal of an active or expired contract
// @Tags         contracts
// @Accept       json
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Param        request body contractapp.RenewContractRequest false "Renewal terms"
// @Success      200 {object} dto.Response{data=contractapp.ContractResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/{id}/renew [post]
func (h *ContractHandler) Renew(c *gin.Context) {
	var req contractapp.RenewContractRequest
	if c.Request.ContentLength == 0 {
		h.apply(c, func(ctx context.Context, tenantID, id uuid.UUID) (*contractapp.ContractResponse, error) {
			return h.contractService.Renew(ctx, tenantID, id, req)
		})
		return
	}
	h.applyWithBody(c, &req, func(ctx context.Context, tenantID, id uuid.UUID) (*contractapp.ContractResponse, error) {
		return h.contractService.Renew(ctx, tenantID, id, req)
	})
}

type contractAction func(ctx context.Context, tenantID, id uuid.UUID) (*contractapp.ContractResponse, error)

func (h *ContractHandler) apply(c *gin.Context, action contractAction) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	ct, err := action(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ct)
}

func (h *ContractHandler) applyWithBody(c *gin.Context, req any, action contractAction) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if !h.bindJSON(c, req) {
		return
	}
	ct, err := action(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ct)
}
