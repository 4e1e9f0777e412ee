package logger

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Gin context keys read by the access log. The auth middleware sets the
// tenant and user keys; RequestID sets the request key.
const (
	RequestIDKey = "request_id"
	TenantIDKey  = "tenant_id"
	UserIDKey    = "user_id"
)

const accessMessage = "request served"

// AccessLog writes one line per request once the handlers return. Handlers
// get a logger already tagged with the request id, method and path through
// FromContext.
func AccessLog(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()
		scoped := WithTrace(ctx, base.With(
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		))
		c.Request = c.Request.WithContext(WithContext(ctx, scoped))

		c.Next()

		status := c.Writer.Status()
		if ce := scoped.Check(statusLevel(status), accessMessage); ce != nil {
			ce.Write(accessFields(c, status, time.Since(start))...)
		}
	}
}

func statusLevel(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	}
	return zapcore.InfoLevel
}

func accessFields(c *gin.Context, status int, took time.Duration) []zap.Field {
	fields := []zap.Field{
		zap.Int("status", status),
		zap.Duration("latency", took),
		zap.String("client_ip", c.ClientIP()),
		zap.Int("body_size", c.Writer.Size()),
	}
	optional := []struct{ key, value string }{
		{"route", c.FullPath()},
		{"tenant_id", c.GetString(TenantIDKey)},
		{"user_id", c.GetString(UserIDKey)},
	}
	for _, o := range optional {
		if o.value != "" {
			fields = append(fields, zap.String(o.key, o.value))
		}
	}
	if len(c.Errors) > 0 {
		fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
	}
	return fields
}

// Recovery turns a handler panic into a 500 carrying the API error envelope.
// gin's own recovery handles broken connections; its output is replaced by
// the zap entry.
func Recovery(base *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		base.Error("Panic recovered",
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
			zap.Stack("stacktrace"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   gin.H{"code": "INTERNAL_ERROR", "message": "internal server error"},
		})
	})
}
