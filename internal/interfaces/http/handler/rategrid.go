package handler

import (
	"net/http"
	"slices"

	rategridapp "github.com/courtage/backend/internal/application/rategrid"
	"github.com/gin-gonic/gin"
)

// maxGridFileSize bounds an uploaded rate grid
const maxGridFileSize = 5 << 20

var gridContentTypes = []string{"", "text/csv", "text/plain", "application/octet-stream", "application/vnd.ms-excel"}

// RateGridHandler handles the per-class rate grids
type RateGridHandler struct {
	BaseHandler
	rateGridService *rategridapp.RateGridService
}

// NewRateGridHandler creates a new RateGridHandler
func NewRateGridHandler(rateGridService *rategridapp.RateGridService) *RateGridHandler {
	return &RateGridHandler{rateGridService: rateGridService}
}

// ListRowsQuery selects the grid of one vehicle class
type ListRowsQuery struct {
	Class string `form:"class" binding:"required,oneof=VP TPC TPM TWO_WHEELER"`
}

// ListRows handles GET /rate-grids/rows?class=
// @ID           listRateRows
// @Summary      List rate rows
// @Description  Rows of the rate grid of one vehicle class
// @Tags         rate-grids
// @Produce      json
// @Param        filter query ListRowsQuery true "Vehicle class"
// @Success      200 {object} dto.Response{data=[]rategridapp.RateRowResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /rate-grids/rows [get]
func (h *RateGridHandler) ListRows(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var q ListRowsQuery
	if !h.bindQuery(c, &q) {
		return
	}
	rows, err := h.rateGridService.ListRows(c.Request.Context(), tenantID, q.Class)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// FindRow handles GET /rate-grids/rows/lookup?class=&duration_months=&bucket=
// @ID           findRateRow
// @Summary      Look up a rate row
// @Description  Find the row for a class, a duration and a fiscal power or seat bucket
// @Tags         rate-grids
// @Produce      json
// @Param        filter query rategridapp.FindRateRowQuery true "Row key"
// @Success      200 {object} dto.Response{data=rategridapp.RateRowResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /rate-grids/rows/lookup [get]
func (h *RateGridHandler) FindRow(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var q rategridapp.FindRateRowQuery
	if !h.bindQuery(c, &q) {
		return
	}
	row, err := h.rateGridService.FindRow(c.Request.Context(), tenantID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, row)
}

// Layout handles GET /rate-grids/layout/:class
// @ID           getRateGridLayout
// @Summary      Grid layout
// @Description  Durations and buckets of the grid of one vehicle class
// @Tags         rate-grids
// @Produce      json
// @Param        class path string true "Vehicle class" Enums(VP, TPC, TPM, TWO_WHEELER)
// @Success      200 {object} dto.Response{data=rategridapp.GridLayoutResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /rate-grids/layout/{class} [get]
func (h *RateGridHandler) Layout(c *gin.Context) {
	layout, err := h.rateGridService.Layout(c.Param("class"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, layout)
}

// UpsertRow handles PUT /rate-grids/rows
// @ID           upsertRateRow
// @Summary      Upsert a rate row
// @Description  Create or replace the row of a grid key
// @Tags         rate-grids
// @Accept       json
// @Produce      json
// @Param        request body rategridapp.UpsertRateRowRequest true "Row"
// @Success      200 {object} dto.Response{data=rategridapp.RateRowResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /rate-grids/rows [put]
func (h *RateGridHandler) UpsertRow(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req rategridapp.UpsertRateRowRequest
	if !h.bindJSON(c, &req) {
		return
	}
	row, err := h.rateGridService.UpsertRow(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, row)
}

// DeleteRow handles DELETE /rate-grids/rows/:id
// @ID           deleteRateRow
// @Summary      Delete a rate row
// @Description  Remove one row of a grid
// @Tags         rate-grids
// @Produce      json
// @Param        id path string true "Rate row ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /rate-grids/rows/{id} [delete]
func (h *RateGridHandler) DeleteRow(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.rateGridService.DeleteRow(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Import handles POST /rate-grids/import with a multipart "file" field.
// A file with invalid rows is rejected as a whole with 422 and the row
// errors in the data field.
// @ID           importRateGrid
// @Summary      Import a rate grid
// @Description  Upsert rows from a CSV file. Invalid lines are reported and skipped.
// @Tags         rate-grids
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV file"
// @Success      200 {object} dto.Response{data=rategridapp.ImportResult}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /rate-grids/import [post]
func (h *RateGridHandler) Import(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if header.Size > maxGridFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum size of 5MB")
		return
	}
	if !slices.Contains(gridContentTypes, header.Header.Get("Content-Type")) {
		h.Error(c, http.StatusUnsupportedMediaType, "DISALLOWED_CONTENT_TYPE", "file must be a CSV file")
		return
	}

	result, err := h.rateGridService.ImportCSV(c.Request.Context(), tenantID, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.TotalErrors > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"data":    result,
			"error": gin.H{
				"code":       "IMPORT_INVALID_ROWS",
				"message":    "The file contains invalid rows; nothing was imported",
				"request_id": requestID(c),
			},
		})
		return
	}
	h.Success(c, result)
}
