// Package handler adapts the application services to gin: it binds
// requests, resolves the tenant and the acting user, and writes the JSON
// envelope of package dto.
package handler

import (
	"cmp"
	"errors"
	"net/http"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/infrastructure/logger"
	"github.com/courtage/backend/internal/interfaces/http/dto"
	"github.com/courtage/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler is embedded by every handler for the envelope helpers. The
// unexported helpers write the error response themselves and return false,
// so callers only return.
type BaseHandler struct{}

// requestID prefers the id the request-id middleware stored
func requestID(c *gin.Context) string {
	return cmp.Or(c.GetString(logger.RequestIDKey), c.GetHeader("X-Request-ID"))
}

func (h *BaseHandler) tenantID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.GetTenantID(c)
	if !ok {
		h.Unauthorized(c, "Tenant identification required")
	}
	return id, ok
}

// actorID is the authenticated user behind the request
func (h *BaseHandler) actorID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(middleware.GetJWTUserID(c))
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return uuid.Nil, false
	}
	return id, true
}

func (h *BaseHandler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid "+name+" format")
	}
	return id, err == nil
}

func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	return bound(c, c.ShouldBindJSON(req))
}

func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	return bound(c, c.ShouldBindQuery(req))
}

func bound(c *gin.Context, err error) bool {
	if err != nil {
		middleware.HandleValidationError(c, err)
	}
	return err == nil
}

func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta answers one page of a list
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, requestID(c)))
}

func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// HandleError answers a domain error with the status its code maps to.
// Any other error is logged and hidden behind a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var de *shared.DomainError
	switch {
	case err == nil:
		return
	case errors.As(err, &de):
		code := dto.NormalizeErrorCode(de.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, de.Message)
		return
	}
	_ = c.Error(err)
	logger.L(c.Request.Context()).Error("Unhandled error", zap.String("route", c.FullPath()), zap.Error(err))
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}
