package platform

import (
	"fmt"
	"time"
)

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"` // seconds
}

// attestationRequest is the body of POST /api/v1/attestations
type attestationRequest struct {
	CompanyCode   string `json:"company_code"`
	PolicyNumber  string `json:"policy_number"`
	ExternalRef   string `json:"external_reference"`
	InsuredName   string `json:"insured_name"`
	InsuredPhone  string `json:"insured_phone,omitempty"`
	Registration  string `json:"registration"`
	ChassisNumber string `json:"chassis_number,omitempty"`
	Brand         string `json:"brand"`
	Model         string `json:"model,omitempty"`
	VehicleClass  string `json:"vehicle_class"`
	StartDate     string `json:"start_date"` // YYYY-MM-DD
	EndDate       string `json:"end_date"`
	Premium       string `json:"premium"`
}

type attestationResponse struct {
	Number      string    `json:"number"`
	ID          string    `json:"id"`
	DownloadURL string    `json:"download_url"`
	IssuedAt    time.Time `json:"issued_at"`
}

type cancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// errorResponse is the platform's error body
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIError is a 4xx answer from the platform
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("platform: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("platform: %d: %s", e.StatusCode, e.Message)
}
