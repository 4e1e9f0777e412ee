package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/courtage/backend/internal/domain/certificate"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlatform serves the token and attestation endpoints
type fakePlatform struct {
	logins      atomic.Int32
	issued      atomic.Int32
	token       string
	expiresIn   int64
	rejectToken atomic.Bool
	issueStatus int
	lastIssue   attestationRequest
	mu          sync.Mutex
}

func (p *fakePlatform) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+tokenPath, func(w http.ResponseWriter, r *http.Request) {
		var req tokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Username != "broker" || req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(errorResponse{Code: "BAD_CREDENTIALS", Message: "invalid credentials"})
			return
		}
		p.logins.Add(1)
		time.Sleep(20 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: p.token, TokenType: "Bearer", ExpiresIn: p.expiresIn})
	})
	mux.HandleFunc("POST "+attestationsPath, func(w http.ResponseWriter, r *http.Request) {
		if p.rejectToken.CompareAndSwap(true, false) || r.Header.Get("Authorization") != "Bearer "+p.token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if p.issueStatus != 0 {
			w.WriteHeader(p.issueStatus)
			_ = json.NewEncoder(w).Encode(errorResponse{Code: "POLICY_UNKNOWN", Message: "policy not registered"})
			return
		}
		p.mu.Lock()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p.lastIssue))
		p.mu.Unlock()
		n := p.issued.Add(1)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(attestationResponse{
			Number:      "ATT-" + string(rune('0'+n)),
			ID:          "att_1",
			DownloadURL: "https://platform.test/att_1.pdf",
			IssuedAt:    time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC),
		})
	})
	mux.HandleFunc("POST "+attestationsPath+"/{number}/cancel", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("number") != "ATT-1" {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(errorResponse{Code: "NOT_FOUND", Message: "unknown certificate"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func newTestClient(t *testing.T, p *fakePlatform, opts ...ClientOption) (*Client, *miniredis.Miniredis) {
	t.Helper()
	srv := httptest.NewServer(p.handler(t))
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	opts = append([]ClientOption{WithTokenCache(NewRedisTokenCache(rdb, "test:token"))}, opts...)
	c, err := NewClient(Config{
		BaseURL:        srv.URL + "/",
		Username:       "broker",
		Password:       "secret",
		Timeout:        2 * time.Second,
		RequestsPerSec: 1000,
		Burst:          100,
	}, opts...)
	require.NoError(t, err)
	return c, mr
}

func issueRequest() certificate.IssueRequest {
	return certificate.IssueRequest{
		PlatformCode:      "AXA-SN",
		PolicyNumber:      "POL-2024-00001",
		ContractReference: "CTR-2024-00001",
		InsuredName:       "Awa Diop",
		Registration:      "DK1234AB",
		Brand:             "Toyota",
		VehicleClass:      "VP",
		StartDate:         time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:           time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Premium:           decimal.NewFromInt(51200),
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{name: "valid", config: Config{BaseURL: "https://p.test", Username: "u", Password: "p"}},
		{name: "missing base URL", config: Config{Username: "u", Password: "p"}, wantErr: ErrConfigMissingBaseURL},
		{name: "relative base URL", config: Config{BaseURL: "p.test/api", Username: "u", Password: "p"}, wantErr: ErrConfigInvalidBaseURL},
		{name: "missing password", config: Config{BaseURL: "https://p.test", Username: "u"}, wantErr: ErrConfigMissingCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, defaultTimeout, tt.config.Timeout)
			assert.Equal(t, float64(defaultRequestsPerSec), tt.config.RequestsPerSec)
			assert.Equal(t, defaultBurst, tt.config.Burst)
		})
	}
}

func TestClient_Issue(t *testing.T) {
	ctx := context.Background()

	t.Run("logs in once and caches the token in redis", func(t *testing.T) {
		p := &fakePlatform{token: "tok-1", expiresIn: 3600}
		c, mr := newTestClient(t, p)

		res, err := c.Issue(ctx, issueRequest())
		require.NoError(t, err)
		assert.Equal(t, "ATT-1", res.Number)
		assert.Equal(t, "att_1", res.Reference)
		assert.Equal(t, "https://platform.test/att_1.pdf", res.DownloadURL)

		_, err = c.Issue(ctx, issueRequest())
		require.NoError(t, err)
		assert.Equal(t, int32(1), p.logins.Load())

		cached, err := mr.Get("test:token")
		require.NoError(t, err)
		assert.Equal(t, "tok-1", cached)
		assert.Equal(t, time.Hour-tokenExpirySkew, mr.TTL("test:token"))

		p.mu.Lock()
		defer p.mu.Unlock()
		assert.Equal(t, "AXA-SN", p.lastIssue.CompanyCode)
		assert.Equal(t, "2024-04-01", p.lastIssue.StartDate)
		assert.Equal(t, "51200", p.lastIssue.Premium)
	})

	t.Run("expired token triggers a new login", func(t *testing.T) {
		p := &fakePlatform{token: "tok-1", expiresIn: 60}
		c, mr := newTestClient(t, p)

		_, err := c.Issue(ctx, issueRequest())
		require.NoError(t, err)
		mr.FastForward(time.Minute)

		_, err = c.Issue(ctx, issueRequest())
		require.NoError(t, err)
		assert.Equal(t, int32(2), p.logins.Load())
	})

	t.Run("rejected token is refreshed once", func(t *testing.T) {
		p := &fakePlatform{token: "tok-1", expiresIn: 3600}
		c, _ := newTestClient(t, p)
		_, err := c.Issue(ctx, issueRequest())
		require.NoError(t, err)

		p.rejectToken.Store(true)
		_, err = c.Issue(ctx, issueRequest())
		require.NoError(t, err)
		assert.Equal(t, int32(2), p.logins.Load())
	})

	t.Run("concurrent callers share one login", func(t *testing.T) {
		p := &fakePlatform{token: "tok-1", expiresIn: 3600}
		c, _ := newTestClient(t, p)

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := c.Issue(ctx, issueRequest())
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), p.logins.Load())
		assert.Equal(t, int32(8), p.issued.Load())
	})

	t.Run("4xx is a rejection", func(t *testing.T) {
		p := &fakePlatform{token: "tok-1", expiresIn: 3600, issueStatus: http.StatusUnprocessableEntity}
		c, _ := newTestClient(t, p)

		_, err := c.Issue(ctx, issueRequest())
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "POLICY_UNKNOWN", apiErr.Code)
		assert.False(t, errors.Is(err, certificate.ErrProviderUnavailable))
	})

	t.Run("5xx means unavailable", func(t *testing.T) {
		p := &fakePlatform{token: "tok-1", expiresIn: 3600, issueStatus: http.StatusBadGateway}
		c, _ := newTestClient(t, p)

		_, err := c.Issue(ctx, issueRequest())
		assert.ErrorIs(t, err, certificate.ErrProviderUnavailable)
	})

	t.Run("bad credentials", func(t *testing.T) {
		p := &fakePlatform{token: "tok-1", expiresIn: 3600}
		c, _ := newTestClient(t, p)
		c.config.Password = "wrong"

		_, err := c.Issue(ctx, issueRequest())
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "BAD_CREDENTIALS", apiErr.Code)
	})
}

func TestClient_Unreachable(t *testing.T) {
	c, err := NewClient(Config{BaseURL: "http://127.0.0.1:1", Username: "u", Password: "p", Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.Issue(context.Background(), issueRequest())
	assert.ErrorIs(t, err, certificate.ErrProviderUnavailable)
}

func TestClient_Cancel(t *testing.T) {
	ctx := context.Background()
	p := &fakePlatform{token: "tok-1", expiresIn: 3600}
	c, _ := newTestClient(t, p)

	require.NoError(t, c.Cancel(ctx, "ATT-1"))

	err := c.Cancel(ctx, "ATT-9")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *recordingObserver) PlatformCalled(operation string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	o.calls = append(o.calls, operation+":"+outcome)
}

func TestClient_Observer(t *testing.T) {
	ctx := context.Background()
	obs := &recordingObserver{}
	p := &fakePlatform{token: "tok-1", expiresIn: 3600}
	c, _ := newTestClient(t, p, WithObserver(obs))

	_, err := c.Issue(ctx, issueRequest())
	require.NoError(t, err)
	require.Error(t, c.Cancel(ctx, "ATT-9"))

	assert.Equal(t, []string{"issue:ok", "cancel:failed"}, obs.calls)
}

func TestClient_RateLimit(t *testing.T) {
	p := &fakePlatform{token: "tok-1", expiresIn: 3600}
	c, _ := newTestClient(t, p)
	c.limiter.SetLimit(1)
	c.limiter.SetBurst(1)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	// login consumes the only token, the issue call cannot get another in time
	_, err := c.Issue(ctx, issueRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
}

func TestMemoryTokenCache(t *testing.T) {
	ctx := context.Background()
	cache := &memoryTokenCache{}

	token, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, cache.Set(ctx, "tok", time.Minute))
	token, _ = cache.Get(ctx)
	assert.Equal(t, "tok", token)

	require.NoError(t, cache.Invalidate(ctx))
	token, _ = cache.Get(ctx)
	assert.Empty(t, token)

	require.NoError(t, cache.Set(ctx, "old", -time.Second))
	token, _ = cache.Get(ctx)
	assert.Empty(t, token)
}
