package handler

import (
	"context"
	"strings"

	bordereauapp "github.com/courtage/backend/internal/application/bordereau"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BordereauHandler handles company statements
type BordereauHandler struct {
	BaseHandler
	bordereauService *bordereauapp.BordereauService
}

// NewBordereauHandler creates a new BordereauHandler
func NewBordereauHandler(bordereauService *bordereauapp.BordereauService) *BordereauHandler {
	return &BordereauHandler{bordereauService: bordereauService}
}

// Generate handles POST /bordereaux
// @ID           generateBordereau
// @Summary      Generate a bordereau
// @Description  Build the settlement statement of a company over a period
// @Tags         bordereaux
// @Accept       json
// @Produce      json
// @Param        request body bordereauapp.GenerateBordereauRequest true "Company and period"
// @Success      201 {object} dto.Response{data=bordereauapp.BordereauResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /bordereaux [post]
func (h *BordereauHandler) Generate(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req bordereauapp.GenerateBordereauRequest
	if !h.bindJSON(c, &req) {
		return
	}
	b, err := h.bordereauService.Generate(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, b)
}

// Get handles GET /bordereaux/:id
// @ID           getBordereauById
// @Summary      Get a bordereau
// @Description  Retrieve a bordereau and its lines
// @Tags         bordereaux
// @Produce      json
// @Param        id path string true "Bordereau ID" format(uuid)
// @Success      200 {object} dto.Response{data=bordereauapp.BordereauResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /bordereaux/{id} [get]
func (h *BordereauHandler) Get(c *gin.Context) {
	h.apply(c, h.bordereauService.GetByID)
}

// List handles GET /bordereaux
// @ID           listBordereaux
// @Summary      List bordereaux
// @Description  Paginated bordereaux with optional filters
// @Tags         bordereaux
// @Produce      json
// @Param        filter query bordereauapp.BordereauListFilter false "Filters"
// @Success      200 {object} dto.Response{data=[]bordereauapp.BordereauResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /bordereaux [get]
func (h *BordereauHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter bordereauapp.BordereauListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	list, total, err := h.bordereauService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list, total, filter.Page, filter.PageSize)
}

// Regenerate handles POST /bordereaux/:id/regenerate
// @ID           regenerateBordereau
// @Summary      Regenerate a bordereau
// @Description  Rebuild the lines of a draft bordereau
// @Tags         bordereaux
// @Produce      json
// @Param        id path string true "Bordereau ID" format(uuid)
// @Success      200 {object} dto.Response{data=bordereauapp.BordereauResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /bordereaux/{id}/regenerate [post]
func (h *BordereauHandler) Regenerate(c *gin.Context) {
	h.apply(c, h.bordereauService.Regenerate)
}

// Close handles POST /bordereaux/:id/close
// @ID           closeBordereau
// @Summary      Close a bordereau
// @Description  Freeze a bordereau for settlement
// @Tags         bordereaux
// @Produce      json
// @Param        id path string true "Bordereau ID" format(uuid)
// @Success      200 {object} dto.Response{data=bordereauapp.BordereauResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /bordereaux/{id}/close [post]
func (h *BordereauHandler) Close(c *gin.Context) {
	h.apply(c, h.bordereauService.Close)
}

// UpdateNotes handles PATCH /bordereaux/:id/notes
// @ID           updateBordereauNotes
// @Summary      Update bordereau notes
// @Description  Replace the notes of a bordereau
// @Tags         bordereaux
// @Accept       json
// @Produce      json
// @Param        id path string true "Bordereau ID" format(uuid)
// @Param        request body bordereauapp.UpdateNotesRequest true "Notes"
// @Success      200 {object} dto.Response{data=bordereauapp.BordereauResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /bordereaux/{id}/notes [patch]
func (h *BordereauHandler) UpdateNotes(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req bordereauapp.UpdateNotesRequest
	if !h.bindJSON(c, &req) {
		return
	}
	b, err := h.bordereauService.UpdateNotes(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, b)
}

// Delete handles DELETE /bordereaux/:id
// @ID           deleteBordereau
// @Summary      Delete a bordereau
// @Description  Delete a draft bordereau
// @Tags         bordereaux
// @Produce      json
// @Param        id path string true "Bordereau ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /bordereaux/{id} [delete]
func (h *BordereauHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.bordereauService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Export handles POST /bordereaux/:id/export?format=pdf,xlsx. The format
// parameter may be repeated; both formats are produced when it is absent.
// @ID           exportBordereau
// @Summary      Export a bordereau
// @Description  Render the bordereau to PDF or Excel and return download links
// @Tags         bordereaux
// @Produce      json
// @Param        id path string true "Bordereau ID" format(uuid)
// @Param        format query []string false "Formats, all when omitted" collectionFormat(multi) Enums(pdf, xlsx)
// @Success      200 {object} dto.Response{data=[]bordereauapp.ExportResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /bordereaux/{id}/export [post]
func (h *BordereauHandler) Export(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	formats := parseFormats(c.QueryArray("format"))
	exports, err := h.bordereauService.Export(c.Request.Context(), tenantID, id, formats...)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, exports)
}

func parseFormats(values []string) []bordereauapp.Format {
	var formats []bordereauapp.Format
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
				formats = append(formats, bordereauapp.Format(part))
			}
		}
	}
	if len(formats) == 0 {
		return []bordereauapp.Format{bordereauapp.FormatPDF, bordereauapp.FormatXLSX}
	}
	return formats
}

func (h *BordereauHandler) apply(c *gin.Context, action func(ctx context.Context, tenantID, id uuid.UUID) (*bordereauapp.BordereauResponse, error)) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	b, err := action(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, b)
}
