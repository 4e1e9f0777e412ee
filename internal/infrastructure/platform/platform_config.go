package platform

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Config holds the certificate platform connection settings
type Config struct {
	// BaseURL is the platform API root, e.g. https://attestation.example.sn
	BaseURL string
	// Username and Password are exchanged for a bearer token
	Username string
	Password string
	// Timeout bounds each HTTP request
	Timeout time.Duration
	// RequestsPerSec and Burst throttle outbound calls, token requests included
	RequestsPerSec float64
	Burst          int
}

const (
	defaultTimeout        = 30 * time.Second
	defaultRequestsPerSec = 2
	defaultBurst          = 4

	// maxResponseSize limits the response body size
	maxResponseSize = 2 * 1024 * 1024
	// tokenExpirySkew is taken off the announced lifetime so a cached token
	// never reaches the platform already expired
	tokenExpirySkew = 30 * time.Second
)

// Errors for platform configuration
var (
	ErrConfigMissingBaseURL     = errors.New("platform: base URL is required")
	ErrConfigInvalidBaseURL     = errors.New("platform: base URL must be an absolute http(s) URL")
	ErrConfigMissingCredentials = errors.New("platform: username and password are required")
)

// Validate checks the configuration and fills defaults
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return ErrConfigMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrConfigInvalidBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Username == "" || c.Password == "" {
		return ErrConfigMissingCredentials
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.RequestsPerSec <= 0 {
		c.RequestsPerSec = defaultRequestsPerSec
	}
	if c.Burst <= 0 {
		c.Burst = defaultBurst
	}
	return nil
}
