package handler

import (
	certificateapp "github.com/courtage/backend/internal/application/certificate"
	"github.com/gin-gonic/gin"
)

// CertificateHandler handles insurance certificates issued by the platform
type CertificateHandler struct {
	BaseHandler
	certificateService *certificateapp.CertificateService
}

// NewCertificateHandler creates a new CertificateHandler
func NewCertificateHandler(certificateService *certificateapp.CertificateService) *CertificateHandler {
	return &CertificateHandler{certificateService: certificateService}
}

// Issue handles POST /certificates
// @ID           issueCertificate
// @Summary      Issue a certificate
// @Description  Request an insurance certificate from the platform for a validated or active contract
// @Tags         certificates
// @Accept       json
// @Produce      json
// @Param        request body certificateapp.IssueCertificateRequest true "Contract"
// @Success      201 {object} dto.Response{data=certificateapp.CertificateResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      502 {object} dto.Response
// @Failure      503 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /certificates [post]
func (h *CertificateHandler) Issue(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req certificateapp.IssueCertificateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	cert, err := h.certificateService.Issue(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, cert)
}

// Get handles GET /certificates/:id
// @ID           getCertificateById
// @Summary      Get a certificate
// @Description  Retrieve a certificate attempt by ID
// @Tags         certificates
// @Produce      json
// @Param        id path string true "Certificate ID" format(uuid)
// @Success      200 {object} dto.Response{data=certificateapp.CertificateResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /certificates/{id} [get]
func (h *CertificateHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	cert, err := h.certificateService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cert)
}

// Cancel handles POST /certificates/:id/cancel
// @ID           cancelCertificate
// @Summary      Cancel a certificate
// @Description  Void an issued certificate on the platform
// @Tags         certificates
// @Produce      json
// @Param        id path string true "Certificate ID" format(uuid)
// @Success      200 {object} dto.Response{data=certificateapp.CertificateResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      503 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /certificates/{id}/cancel [post]
func (h *CertificateHandler) Cancel(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	cert, err := h.certificateService.Cancel(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cert)
}

// ListByContract handles GET /contracts/:id/certificates
// @ID           listContractCertificates
// @Summary      List contract certificates
// @Description  Certificate attempts of a contract, newest first
// @Tags         certificates
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]certificateapp.CertificateResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /contracts/{id}/certificates [get]
func (h *CertificateHandler) ListByContract(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	contractID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	list, err := h.certificateService.ListByContract(c.Request.Context(), tenantID, contractID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}
