package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	certificateapp "github.com/courtage/backend/internal/application/certificate"
	contractapp "github.com/courtage/backend/internal/application/contract"
	"github.com/courtage/backend/internal/domain/certificate"
	"github.com/courtage/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// validatedContract seeds the parties, puts the company on the platform and
// returns a validated contract.
func validatedContract(t *testing.T, e *apiEnv) contractapp.ContractResponse {
	t.Helper()
	p := seedParties(t, e)
	requireStatus(t, e.do(http.MethodPut, "/api/v1/companies/"+p.companyID.String(), map[string]any{
		"platform_code": "AXA-SN",
	}), http.StatusOK)

	ct := createContract(t, e, p, time.Now().UTC())
	w := e.do(http.MethodPost, "/api/v1/contracts/"+ct.ID.String()+"/validate", nil)
	requireStatus(t, w, http.StatusOK)
	return decode[contractapp.ContractResponse](t, w).Data
}

func TestCertificateHandler_IssueAndCancel(t *testing.T) {
	provider := new(testutil.MockCertificateProvider)
	e := newAPIEnv(t, apiEnvOptions{provider: provider})
	ct := validatedContract(t, e)

	issuedAt := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	provider.On("Issue", mock.Anything, mock.MatchedBy(func(req certificate.IssueRequest) bool {
		return req.PlatformCode == "AXA-SN" && req.PolicyNumber == ct.PolicyNumber && req.Registration == "DK-1234-AB"
	})).Return(certificate.IssueResult{
		Number:      "ATT-000123",
		Reference:   "plat-77",
		DownloadURL: "https://platform.example.com/att/000123.pdf",
		IssuedAt:    issuedAt,
	}, nil).Once()

	w := e.do(http.MethodPost, "/api/v1/certificates", map[string]any{"contract_id": ct.ID})
	requireStatus(t, w, http.StatusCreated)
	cert := decode[certificateapp.CertificateResponse](t, w).Data
	assert.Equal(t, "issued", cert.Status)
	assert.Equal(t, "ATT-000123", cert.Number)
	assert.Equal(t, ct.ID, cert.ContractID)

	w = e.do(http.MethodPost, "/api/v1/certificates", map[string]any{"contract_id": ct.ID})
	requireStatus(t, w, http.StatusConflict)
	assert.Equal(t, "CERTIFICATE_ALREADY_ISSUED", decode[any](t, w).Error.Code)

	provider.On("Cancel", mock.Anything, "ATT-000123").Return(nil).Once()
	w = e.do(http.MethodPost, "/api/v1/certificates/"+cert.ID.String()+"/cancel", nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "cancelled", decode[certificateapp.CertificateResponse](t, w).Data.Status)

	w = e.do(http.MethodGet, "/api/v1/contracts/"+ct.ID.String()+"/certificates", nil)
	requireStatus(t, w, http.StatusOK)
	assert.Len(t, decode[[]certificateapp.CertificateResponse](t, w).Data, 1)

	provider.AssertExpectations(t)
}

func TestCertificateHandler_PlatformFailures(t *testing.T) {
	tests := []struct {
		name       string
		issueErr   error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "platform down",
			issueErr:   certificate.ErrProviderUnavailable,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "CERTIFICATE_PLATFORM_UNAVAILABLE",
		},
		{
			name:       "request rejected",
			issueErr:   errors.New("unknown vehicle class"),
			wantStatus: http.StatusBadGateway,
			wantCode:   "CERTIFICATE_REJECTED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := new(testutil.MockCertificateProvider)
			provider.On("Issue", mock.Anything, mock.Anything).Return(certificate.IssueResult{}, tt.issueErr)
			e := newAPIEnv(t, apiEnvOptions{provider: provider})
			ct := validatedContract(t, e)

			w := e.do(http.MethodPost, "/api/v1/certificates", map[string]any{"contract_id": ct.ID})
			requireStatus(t, w, tt.wantStatus)
			assert.Equal(t, tt.wantCode, decode[any](t, w).Error.Code)

			// the failed attempt is kept
			w = e.do(http.MethodGet, "/api/v1/contracts/"+ct.ID.String()+"/certificates", nil)
			requireStatus(t, w, http.StatusOK)
			certs := decode[[]certificateapp.CertificateResponse](t, w).Data
			require.Len(t, certs, 1)
			assert.Equal(t, "failed", certs[0].Status)
			assert.NotEmpty(t, certs[0].ErrorMessage)
		})
	}
}

func TestCertificateHandler_Rejections(t *testing.T) {
	t.Run("platform not configured", func(t *testing.T) {
		e := newAPIEnv(t, apiEnvOptions{})
		w := e.do(http.MethodPost, "/api/v1/certificates", map[string]any{"contract_id": uuid.New()})
		requireStatus(t, w, http.StatusServiceUnavailable)
		assert.Equal(t, "CERTIFICATE_PLATFORM_DISABLED", decode[any](t, w).Error.Code)
	})

	t.Run("draft contract", func(t *testing.T) {
		provider := new(testutil.MockCertificateProvider)
		e := newAPIEnv(t, apiEnvOptions{provider: provider})
		ct := createContract(t, e, seedParties(t, e), time.Now().UTC())

		w := e.do(http.MethodPost, "/api/v1/certificates", map[string]any{"contract_id": ct.ID})
		requireStatus(t, w, http.StatusUnprocessableEntity)
		assert.Equal(t, "CONTRACT_NOT_CERTIFIABLE", decode[any](t, w).Error.Code)
		provider.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything)
	})

	t.Run("unknown contract", func(t *testing.T) {
		e := newAPIEnv(t, apiEnvOptions{provider: new(testutil.MockCertificateProvider)})
		w := e.do(http.MethodPost, "/api/v1/certificates", map[string]any{"contract_id": uuid.New()})
		requireStatus(t, w, http.StatusNotFound)
	})
}
