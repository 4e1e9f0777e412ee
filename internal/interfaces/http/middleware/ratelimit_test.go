package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newClockedLimiter(limit int, window time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, window)
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiter(t *testing.T) {
	rl, clock := newClockedLimiter(3, time.Minute)

	for i := range 3 {
		assert.True(t, rl.Allow("a"), "request %d", i+1)
	}
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "keys are independent")
	assert.Equal(t, 0, rl.Remaining("a"))
	assert.Equal(t, 3, rl.Remaining("unknown"))

	clock.t = clock.t.Add(20 * time.Second)
	assert.True(t, rl.Allow("a"), "one token refilled after window/limit")
	assert.False(t, rl.Allow("a"))

	clock.t = clock.t.Add(5 * time.Minute)
	assert.Equal(t, 3, rl.Remaining("a"), "bucket caps at limit")
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl, clock := newClockedLimiter(1, time.Minute)
	rl.Allow("old")
	clock.t = clock.t.Add(3 * time.Minute)
	rl.Allow("fresh")

	assert.Equal(t, 1, rl.Sweep())
	assert.Len(t, rl.buckets, 1)
}

func TestRateLimitMiddleware(t *testing.T) {
	rl, _ := newClockedLimiter(2, time.Minute)
	router := gin.New()
	router.Use(RateLimit(rl))
	router.GET("/api/v1/contracts", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := do("10.0.0.1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, do("10.0.0.1").Code)
	blocked := do("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Contains(t, blocked.Body.String(), "ERR_RATE_LIMITED")
	assert.Equal(t, "1", blocked.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do("10.0.0.2").Code)
}

func TestAuthRateLimit(t *testing.T) {
	rl, _ := newClockedLimiter(1, time.Minute)
	router := gin.New()
	router.POST("/api/v1/auth/login", AuthRateLimit(rl), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "192.168.1.100:12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send().Code)
	w := send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_RATE_LIMIT_EXCEEDED")
}
