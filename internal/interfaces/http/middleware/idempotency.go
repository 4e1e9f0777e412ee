package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/courtage/backend/internal/infrastructure/cache"
	"github.com/courtage/backend/internal/infrastructure/logger"
	"github.com/courtage/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Idempotency headers
const (
	IdempotencyKeyHeader      = "Idempotency-Key"
	IdempotentReplayedHeader  = "Idempotent-Replayed"
	maxIdempotencyKeyLength   = 255
	defaultIdempotencyTimeout = 24 * time.Hour
)

// ResponseStore persists responses by idempotency key
type ResponseStore interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Load(ctx context.Context, key string) (*cache.StoredResponse, error)
	Save(ctx context.Context, key string, resp cache.StoredResponse, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Store  ResponseStore
	TTL    time.Duration
	Logger *zap.Logger
}

// Idempotency replays the stored response of a POST carrying an
// Idempotency-Key already seen for the same tenant and route. A concurrent
// duplicate gets 409. Server errors are not stored so the client can retry.
// Store failures let the request through.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultIdempotencyTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		header := c.GetHeader(IdempotencyKeyHeader)
		if cfg.Store == nil || c.Request.Method != http.MethodPost || header == "" {
			c.Next()
			return
		}
		if len(header) > maxIdempotencyKeyLength {
			abortWithError(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Idempotency-Key is too long")
			return
		}

		ctx := c.Request.Context()
		key := GetJWTTenantID(c) + ":" + c.Request.Method + ":" + c.FullPath() + ":" + header

		stored, err := cfg.Store.Load(ctx, key)
		switch {
		case errors.Is(err, cache.ErrResponsePending):
			abortWithError(c, http.StatusConflict, dto.ErrCodeIdempotencyReplay, "A request with this Idempotency-Key is still in progress")
			return
		case err != nil:
			log.Warn("Idempotency store unavailable", zap.Error(err), zap.String(logger.RequestIDKey, c.GetString(logger.RequestIDKey)))
			c.Next()
			return
		case stored != nil:
			c.Header(IdempotentReplayedHeader, "true")
			c.Data(stored.Status, stored.ContentType, stored.Body)
			c.Abort()
			return
		}

		reserved, err := cfg.Store.Reserve(ctx, key, cfg.TTL)
		if err != nil {
			log.Warn("Idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !reserved {
			abortWithError(c, http.StatusConflict, dto.ErrCodeIdempotencyReplay, "A request with this Idempotency-Key is still in progress")
			return
		}

		rec := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		// the handler context may be cancelled once the client disconnects
		saveCtx := context.WithoutCancel(ctx)
		if status := rec.Status(); status >= http.StatusInternalServerError {
			if err := cfg.Store.Release(saveCtx, key); err != nil {
				log.Warn("Failed to release idempotency key", zap.Error(err))
			}
			return
		}
		resp := cache.StoredResponse{
			Status:      rec.Status(),
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
		}
		if err := cfg.Store.Save(saveCtx, key, resp, cfg.TTL); err != nil {
			log.Warn("Failed to store idempotent response", zap.Error(err))
		}
	}
}

type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
