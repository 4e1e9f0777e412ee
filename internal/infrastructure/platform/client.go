// Package platform is the HTTP client of the external certificate-issuing
// platform. It implements certificate.Provider.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/courtage/backend/internal/domain/certificate"
	"github.com/courtage/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	tokenPath        = "/api/v1/auth/token"
	attestationsPath = "/api/v1/attestations"
)

// Client issues certificates on the platform. Outbound calls go through a
// token bucket limiter; concurrent token refreshes share one login request.
type Client struct {
	config     Config
	httpClient *http.Client
	tokens     TokenCache
	limiter    *rate.Limiter
	refresh    singleflight.Group
	observer   CallObserver
	logger     *zap.Logger
}

// CallObserver is told about the outcome of every Issue and Cancel call
type CallObserver interface {
	PlatformCalled(operation string, elapsed time.Duration, err error)
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithTokenCache sets where bearer tokens are kept. The default is process memory.
func WithTokenCache(cache TokenCache) ClientOption {
	return func(c *Client) {
		if cache != nil {
			c.tokens = cache
		}
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers a call observer
func WithObserver(observer CallObserver) ClientOption {
	return func(c *Client) {
		c.observer = observer
	}
}

// NewClient creates a platform client
func NewClient(config Config, opts ...ClientOption) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		tokens:     &memoryTokenCache{},
		limiter:    rate.NewLimiter(rate.Limit(config.RequestsPerSec), config.Burst),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var _ certificate.Provider = (*Client)(nil)

// Issue requests a new certificate
func (c *Client) Issue(ctx context.Context, req certificate.IssueRequest) (result certificate.IssueResult, err error) {
	ctx, finish := c.instrument(ctx, "issue", attribute.String("policy_number", req.PolicyNumber))
	defer func() { finish(err) }()

	body := attestationRequest{
		CompanyCode:   req.PlatformCode,
		PolicyNumber:  req.PolicyNumber,
		ExternalRef:   req.ContractReference,
		InsuredName:   req.InsuredName,
		InsuredPhone:  req.InsuredPhone,
		Registration:  req.Registration,
		ChassisNumber: req.ChassisNumber,
		Brand:         req.Brand,
		Model:         req.Model,
		VehicleClass:  req.VehicleClass,
		StartDate:     req.StartDate.Format(time.DateOnly),
		EndDate:       req.EndDate.Format(time.DateOnly),
		Premium:       req.Premium.StringFixed(0),
	}

	var resp attestationResponse
	if err = c.call(ctx, http.MethodPost, attestationsPath, body, &resp); err != nil {
		return certificate.IssueResult{}, err
	}
	if resp.Number == "" {
		return certificate.IssueResult{}, errors.New("platform: response carries no certificate number")
	}
	if resp.IssuedAt.IsZero() {
		resp.IssuedAt = time.Now()
	}

	return certificate.IssueResult{
		Number:      resp.Number,
		Reference:   resp.ID,
		DownloadURL: resp.DownloadURL,
		IssuedAt:    resp.IssuedAt,
	}, nil
}

// Cancel voids a certificate by number
func (c *Client) Cancel(ctx context.Context, number string) (err error) {
	ctx, finish := c.instrument(ctx, "cancel", attribute.String("certificate_number", number))
	defer func() { finish(err) }()

	path := attestationsPath + "/" + url.PathEscape(number) + "/cancel"
	return c.call(ctx, http.MethodPost, path, cancelRequest{}, nil)
}

// instrument opens a client span and returns the function closing it
func (c *Client) instrument(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "platform."+operation, trace.SpanKindClient, attrs...)
	return ctx, func(err error) {
		telemetry.EndSpan(span, err)
		if c.observer != nil {
			c.observer.PlatformCalled(operation, time.Since(start), err)
		}
	}
}

// call performs an authenticated request. A 401 drops the cached token and
// retries once with a fresh one.
func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("platform: encode request: %w", err)
	}

	for attempt := 0; ; attempt++ {
		token, err := c.token(ctx)
		if err != nil {
			return err
		}

		status, body, err := c.do(ctx, method, path, token, payload)
		if err != nil {
			return err
		}

		if status == http.StatusUnauthorized && attempt == 0 {
			c.logger.Info("platform token rejected, refreshing")
			if err := c.tokens.Invalidate(ctx); err != nil {
				c.logger.Warn("failed to invalidate platform token", zap.Error(err))
			}
			continue
		}
		if err := checkStatus(status, body); err != nil {
			return err
		}
		if out == nil || len(body) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("platform: decode response: %w", err)
		}
		return nil
	}
}

// token returns a valid bearer token, logging in when the cache is empty
func (c *Client) token(ctx context.Context) (string, error) {
	token, err := c.tokens.Get(ctx)
	if err != nil {
		c.logger.Warn("platform token cache read failed", zap.Error(err))
	}
	if token != "" {
		return token, nil
	}

	v, err, _ := c.refresh.Do("token", func() (any, error) {
		// another caller may have refreshed while we waited
		if cached, _ := c.tokens.Get(ctx); cached != "" {
			return cached, nil
		}
		return c.login(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) login(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	payload, err := json.Marshal(tokenRequest{Username: c.config.Username, Password: c.config.Password})
	if err != nil {
		return "", fmt.Errorf("platform: encode login: %w", err)
	}
	status, body, err := c.do(ctx, http.MethodPost, tokenPath, "", payload)
	if err != nil {
		return "", err
	}
	if err := checkStatus(status, body); err != nil {
		return "", err
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("platform: decode token: %w", err)
	}
	if resp.AccessToken == "" {
		return "", errors.New("platform: login returned no access token")
	}

	ttl := time.Duration(resp.ExpiresIn)*time.Second - tokenExpirySkew
	if ttl < time.Second {
		ttl = time.Second
	}
	if err := c.tokens.Set(ctx, resp.AccessToken, ttl); err != nil {
		c.logger.Warn("failed to cache platform token", zap.Error(err))
	}
	c.logger.Debug("platform token refreshed", zap.Duration("ttl", ttl))
	return resp.AccessToken, nil
}

// do sends one request. Transport failures wrap certificate.ErrProviderUnavailable.
func (c *Client) do(ctx context.Context, method, path, token string, payload []byte) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("platform: rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("platform: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", certificate.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read body: %v", certificate.ErrProviderUnavailable, err)
	}

	c.logger.Debug("platform call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))
	return resp.StatusCode, body, nil
}

// checkStatus maps HTTP status codes. 5xx and 429 mean the platform is
// unavailable; other non-2xx answers are rejections.
func checkStatus(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	var e errorResponse
	_ = json.Unmarshal(body, &e)
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	apiErr := &APIError{StatusCode: status, Code: e.Code, Message: e.Message}
	if status >= 500 || status == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", certificate.ErrProviderUnavailable, apiErr.Error())
	}
	return apiErr
}
