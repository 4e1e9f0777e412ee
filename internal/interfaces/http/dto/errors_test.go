package dto

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{"CERTIFICATE_PLATFORM_UNAVAILABLE", http.StatusServiceUnavailable},
		{"FILE_TOO_LARGE", http.StatusRequestEntityTooLarge},
		{"INVALID_CREDENTIALS", http.StatusUnauthorized},
		{"ACCOUNT_LOCKED", http.StatusForbidden},
		// classified by name
		{"CONTRACT_NOT_FOUND", http.StatusNotFound},
		{"VEHICLE_NOT_FOUND", http.StatusNotFound},
		{"INVALID_REGISTRATION", http.StatusBadRequest},
		{"TOKEN_REVOKED", http.StatusUnauthorized},
		{"CONTRACT_ALREADY_RENEWED", http.StatusConflict},
		{"CERTIFICATE_ALREADY_ISSUED", http.StatusConflict},
		{"ALREADY_ACTIVE", http.StatusConflict},
		{"CLIENT_HAS_OPEN_CONTRACTS", http.StatusUnprocessableEntity},
		{"CONTRACT_NOT_PRICED", http.StatusUnprocessableEntity},
		{"COMPANY_INACTIVE", http.StatusUnprocessableEntity},
		{"VEHICLE_CLASS_CHANGED", http.StatusUnprocessableEntity},
		{"VEHICLE_CLIENT_MISMATCH", http.StatusUnprocessableEntity},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
	assert.Equal(t, ErrCodeInvalidState, NormalizeErrorCode("INVALID_STATE"))
	assert.Equal(t, ErrCodeInternal, NormalizeErrorCode("INTERNAL_ERROR"))
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode(ErrCodeNotFound))
	assert.Equal(t, "CONTRACT_NOT_PRICED", NormalizeErrorCode("CONTRACT_NOT_PRICED"))
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	before := time.Now()
	resp := NewErrorResponseWithRequestID("NOT_FOUND", "Contract not found", "req-123")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "Contract not found", resp.Error.Message)
	assert.Equal(t, "req-123", resp.Error.RequestID)
	assert.False(t, resp.Error.Timestamp.Before(before))
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "registration_number", Message: "is required"},
		{Field: "duration_months", Message: "must be at least 1"},
	}

	resp := NewValidationErrorResponse("Request validation failed", "req-789", details)

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "registration_number", resp.Error.Details[0].Field)
}

func TestNewErrorResponseWithHelp(t *testing.T) {
	resp := NewErrorResponseWithHelp(ErrCodeUnauthorized, "Not authenticated", "req-001", "/api/v1/auth/login")
	assert.Equal(t, "/api/v1/auth/login", resp.Error.Help)
}

func TestErrorResponseJSON(t *testing.T) {
	data, err := json.Marshal(NewErrorResponseWithRequestID(ErrCodeNotFound, "Client not found", "req-test"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.NotContains(t, decoded, "data")

	errBody := decoded["error"].(map[string]any)
	assert.Equal(t, ErrCodeNotFound, errBody["code"])
	assert.Equal(t, "req-test", errBody["request_id"])
	assert.NotContains(t, errBody, "details")
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	tests := []struct {
		total         int64
		pageSize      int
		expectedPages int
		expectedSize  int
	}{
		{100, 10, 10, 10},
		{101, 10, 11, 10},
		{0, 10, 0, 10},
		{9, 10, 1, 10},
		{100, 0, 5, DefaultPageSize},
		{100, -1, 5, DefaultPageSize},
	}

	for _, tt := range tests {
		resp := NewSuccessResponseWithMeta(nil, tt.total, 1, tt.pageSize)
		require.NotNil(t, resp.Meta)
		assert.True(t, resp.Success)
		assert.Equal(t, tt.expectedPages, resp.Meta.TotalPages)
		assert.Equal(t, tt.expectedSize, resp.Meta.PageSize)
	}
}

func TestListRequest_Normalize(t *testing.T) {
	r := ListRequest{PageSize: 500}
	r.Normalize()
	assert.Equal(t, 1, r.Page)
	assert.Equal(t, MaxPageSize, r.PageSize)
	assert.Equal(t, "desc", r.OrderDir)

	empty := ListRequest{}
	empty.Normalize()
	assert.Equal(t, DefaultPageSize, empty.PageSize)
}
