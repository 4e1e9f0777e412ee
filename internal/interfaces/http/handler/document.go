package handler

import (
	documentapp "github.com/courtage/backend/internal/application/document"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DocumentHandler handles files attached to clients, vehicles and contracts.
// Uploads go straight to object storage through presigned URLs.
type DocumentHandler struct {
	BaseHandler
	documentService *documentapp.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documentService *documentapp.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// InitiateUpload handles POST /documents/upload
// @ID           initiateDocumentUpload
// @Summary      Start an upload
// @Description  Reserve a document and return a presigned upload URL
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        request body documentapp.InitiateUploadRequest true "Document"
// @Success      201 {object} dto.Response{data=documentapp.InitiateUploadResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /documents/upload [post]
func (h *DocumentHandler) InitiateUpload(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req documentapp.InitiateUploadRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.documentService.InitiateUpload(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ConfirmUpload handles POST /documents/:id/confirm
// @ID           confirmDocumentUpload
// @Summary      Confirm an upload
// @Description  Mark an uploaded document as stored
// @Tags         documents
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {object} dto.Response{data=documentapp.DocumentResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /documents/{id}/confirm [post]
func (h *DocumentHandler) ConfirmUpload(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	doc, err := h.documentService.ConfirmUpload(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// DownloadURL handles GET /documents/:id/download
// @ID           getDocumentDownloadURL
// @Summary      Download link
// @Description  Presigned download URL of a stored document
// @Tags         documents
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {object} dto.Response{data=documentapp.DownloadURLResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /documents/{id}/download [get]
func (h *DocumentHandler) DownloadURL(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.documentService.GetDownloadURL(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete handles DELETE /documents/:id
// @ID           deleteDocument
// @Summary      Delete a document
// @Description  Delete a document and its object
// @Tags         documents
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.documentService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListByOwner handles GET /documents?owner_type=client&owner_id=...
// @ID           listDocuments
// @Summary      List documents
// @Description  Documents attached to a client, a vehicle or a contract
// @Tags         documents
// @Produce      json
// @Param        filter query documentapp.ListByOwnerFilter true "Owner"
// @Success      200 {object} dto.Response{data=[]documentapp.DocumentResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /documents [get]
func (h *DocumentHandler) ListByOwner(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter documentapp.ListByOwnerFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	list, err := h.documentService.ListByOwner(c.Request.Context(), tenantID, filter.OwnerType, uuid.MustParse(filter.OwnerID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}
