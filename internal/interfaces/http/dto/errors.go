package dto

import (
	"net/http"
	"strings"
)

// Error codes of the API envelope. Domain codes without an ERR_ form are
// passed through unchanged.
const (
	ErrCodeInternal            = "ERR_INTERNAL"
	ErrCodeValidation          = "ERR_VALIDATION"
	ErrCodeUnauthorized        = "ERR_UNAUTHORIZED"
	ErrCodeForbidden           = "ERR_FORBIDDEN"
	ErrCodeTokenExpired        = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid        = "ERR_TOKEN_INVALID"
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "ERR_INVALID_STATE"
	ErrCodeBadRequest          = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput        = "ERR_INVALID_INPUT"
	ErrCodeRateLimited         = "ERR_RATE_LIMITED"
	ErrCodeIdempotencyReplay   = "ERR_IDEMPOTENCY_IN_PROGRESS"
)

// errForms folds the generic shared.DomainError codes onto the ERR_ codes
var errForms = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
	"TOKEN_EXPIRED":        ErrCodeTokenExpired,
	"TOKEN_INVALID":        ErrCodeTokenInvalid,
}

// NormalizeErrorCode returns the ERR_ form of a generic domain code.
// Specific codes such as CONTRACT_NOT_PRICED come back unchanged.
func NormalizeErrorCode(code string) string {
	if form, ok := errForms[code]; ok {
		return form
	}
	return code
}

// explicitStatus lists the codes whose status the naming rules below would
// get wrong or not find
var explicitStatus = map[int][]string{
	http.StatusBadRequest: {
		ErrCodeValidation, ErrCodeBadRequest, ErrCodeInvalidInput,
		"IMPORT_EMPTY_FILE", "IMPORT_MALFORMED_FILE", "IMPORT_MISSING_COLUMNS",
		"CANCELLATION_REASON_REQUIRED",
	},
	http.StatusUnauthorized: {ErrCodeUnauthorized, ErrCodeTokenExpired, ErrCodeTokenInvalid, "INVALID_CREDENTIALS"},
	http.StatusForbidden:    {ErrCodeForbidden, "ACCOUNT_LOCKED", "ACCOUNT_INACTIVE", "ACCOUNT_DEACTIVATED"},
	http.StatusNotFound:     {ErrCodeNotFound},
	http.StatusConflict: {
		ErrCodeAlreadyExists, ErrCodeConcurrencyConflict, ErrCodeIdempotencyReplay, "DUPLICATE_LINE",
	},
	http.StatusRequestEntityTooLarge: {"FILE_TOO_LARGE"},
	http.StatusUnsupportedMediaType:  {"DISALLOWED_CONTENT_TYPE"},
	http.StatusUnprocessableEntity: {
		ErrCodeInvalidState, "CANNOT_DEACTIVATE_SELF", "POLICY_NUMBER_REQUIRED",
	},
	http.StatusTooManyRequests: {ErrCodeRateLimited},
	http.StatusBadGateway:      {"CERTIFICATE_REJECTED", "STORAGE_ERROR", "STORAGE_CHECK_FAILED"},
	http.StatusServiceUnavailable: {
		"CERTIFICATE_PLATFORM_UNAVAILABLE", "CERTIFICATE_PLATFORM_DISABLED",
		"STORAGE_UNAVAILABLE", "EXPORT_UNAVAILABLE", "REFERENCE_EXHAUSTED",
	},
}

var statusOf = func() map[string]int {
	m := make(map[string]int)
	for status, codes := range explicitStatus {
		for _, code := range codes {
			m[code] = status
		}
	}
	return m
}()

// namingRules classify the remaining codes, first match wins
var namingRules = []struct {
	status int
	match  func(code string) bool
}{
	{http.StatusNotFound, suffix("_NOT_FOUND")},
	{http.StatusBadRequest, prefix("INVALID_")},
	{http.StatusUnauthorized, prefix("TOKEN_")},
	{http.StatusConflict, anyOf(prefix("ALREADY_"), suffix("_EXISTS"), contains("_ALREADY_"))},
	{http.StatusUnprocessableEntity, anyOf(
		contains("_HAS_"), contains("_NOT_"), suffix("_INACTIVE"), suffix("_CHANGED"), suffix("_MISMATCH"),
	)},
}

// GetHTTPStatus maps an error code to its HTTP status. Codes that neither
// the explicit table nor a naming rule knows are a 500.
func GetHTTPStatus(code string) int {
	if status, ok := statusOf[code]; ok {
		return status
	}
	for _, rule := range namingRules {
		if rule.match(code) {
			return rule.status
		}
	}
	return http.StatusInternalServerError
}

func prefix(p string) func(string) bool { return func(c string) bool { return strings.HasPrefix(c, p) } }
func suffix(s string) func(string) bool { return func(c string) bool { return strings.HasSuffix(c, s) } }
func contains(s string) func(string) bool { return func(c string) bool { return strings.Contains(c, s) } }

func anyOf(preds ...func(string) bool) func(string) bool {
	return func(c string) bool {
		for _, p := range preds {
			if p(c) {
				return true
			}
		}
		return false
	}
}
