package certificate

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrProviderUnavailable wraps transport failures and 5xx answers from the platform.
var ErrProviderUnavailable = errors.New("certificate platform unavailable")

// IssueRequest carries what the platform needs to print a certificate
type IssueRequest struct {
	PlatformCode      string
	PolicyNumber      string
	ContractReference string
	InsuredName       string
	InsuredPhone      string
	Registration      string
	ChassisNumber     string
	Brand             string
	Model             string
	VehicleClass      string
	StartDate         time.Time
	EndDate           time.Time
	Premium           decimal.Decimal
}

// IssueResult is the platform's answer to a successful issuance
type IssueResult struct {
	Number      string
	Reference   string
	DownloadURL string
	IssuedAt    time.Time
}

// Provider issues and voids certificates on an external platform
type Provider interface {
	Issue(ctx context.Context, req IssueRequest) (IssueResult, error)
	Cancel(ctx context.Context, number string) error
}
