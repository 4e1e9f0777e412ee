package contract

import (
	"time"

	"github.com/courtage/backend/internal/domain/contract"
	"github.com/courtage/backend/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricingInputsRequest carries the contract-level pricing adjustments.
// A nil Commission falls back to the company default; a nil
// ProfessionDiscount falls back to the client's profession rule.
type PricingInputsRequest struct {
	Accessories            decimal.Decimal  `json:"accessories"`
	FlatDiscount           decimal.Decimal  `json:"flat_discount"`
	BonusMalusRate         decimal.Decimal  `json:"bns_rate"`
	CommissionDiscountRate decimal.Decimal  `json:"commission_discount_rate"`
	ProfessionDiscount     *DiscountRequest `json:"profession_discount"`
	Commission             *decimal.Decimal `json:"commission"`
}

// DiscountRequest is a percent or flat discount rule
type DiscountRequest struct {
	Kind  string          `json:"kind" binding:"omitempty,oneof=percent flat"`
	Value decimal.Decimal `json:"value"`
}

func (r *DiscountRequest) toDomain() pricing.Discount {
	if r == nil || r.Kind == "" {
		return pricing.NoDiscount()
	}
	return pricing.Discount{Kind: pricing.DiscountKind(r.Kind), Value: r.Value}
}

// CreateContractRequest represents a request to create a draft contract
type CreateContractRequest struct {
	ClientID       uuid.UUID            `json:"client_id" binding:"required"`
	VehicleID      uuid.UUID            `json:"vehicle_id" binding:"required"`
	CompanyID      uuid.UUID            `json:"company_id" binding:"required"`
	DurationMonths int                  `json:"duration_months" binding:"required,min=1,max=12"`
	StartDate      time.Time            `json:"start_date" binding:"required"`
	Inputs         PricingInputsRequest `json:"inputs"`
}

// UpdateContractRequest changes the terms or inputs of a draft
type UpdateContractRequest struct {
	CompanyID      *uuid.UUID            `json:"company_id"`
	DurationMonths *int                  `json:"duration_months" binding:"omitempty,min=1,max=12"`
	StartDate      *time.Time            `json:"start_date"`
	Inputs         *PricingInputsRequest `json:"inputs"`
}

// QuoteRequest prices a vehicle without creating a contract. CompanyID and
// ClientID are optional and only supply default commission and discount.
type QuoteRequest struct {
	VehicleID      uuid.UUID            `json:"vehicle_id" binding:"required"`
	DurationMonths int                  `json:"duration_months" binding:"required,min=1,max=12"`
	CompanyID      *uuid.UUID           `json:"company_id"`
	Inputs         PricingInputsRequest `json:"inputs"`
}

// QuoteResponse is the outcome of a quote. Found is false when the grid has no row.
type QuoteResponse struct {
	Found          bool               `json:"found"`
	Class          string             `json:"class"`
	DurationBucket int                `json:"duration_bucket,omitempty"`
	Bucket         string             `json:"bucket,omitempty"`
	Inputs         pricing.Inputs     `json:"inputs"`
	Breakdown      *pricing.Breakdown `json:"breakdown,omitempty"`
}

// CancelContractRequest carries the cancellation reason
type CancelContractRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// RenewContractRequest optionally overrides the renewal start date
type RenewContractRequest struct {
	StartDate *time.Time `json:"start_date"`
}

// ContractResponse represents a contract in API responses
type ContractResponse struct {
	ID                 uuid.UUID         `json:"id"`
	Reference          string            `json:"reference"`
	PolicyNumber       string            `json:"policy_number,omitempty"`
	Type               string            `json:"type"`
	ClientID           uuid.UUID         `json:"client_id"`
	VehicleID          uuid.UUID         `json:"vehicle_id"`
	CompanyID          uuid.UUID         `json:"company_id"`
	DurationMonths     int               `json:"duration_months"`
	StartDate          time.Time         `json:"start_date"`
	EndDate            time.Time         `json:"end_date"`
	Status             string            `json:"status"`
	ParentID           *uuid.UUID        `json:"parent_id,omitempty"`
	Inputs             pricing.Inputs    `json:"inputs"`
	Amounts            pricing.Breakdown `json:"amounts"`
	PricingStatus      string            `json:"pricing_status"`
	PricedAt           *time.Time        `json:"priced_at,omitempty"`
	ValidatedAt        *time.Time        `json:"validated_at,omitempty"`
	ActivatedAt        *time.Time        `json:"activated_at,omitempty"`
	CancelledAt        *time.Time        `json:"cancelled_at,omitempty"`
	ExpiredAt          *time.Time        `json:"expired_at,omitempty"`
	CancellationReason string            `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	Version            int               `json:"version"`
}

// ContractListFilter represents filter options for contract list
type ContractListFilter struct {
	Search    string     `form:"search"`
	Status    string     `form:"status" binding:"omitempty,oneof=draft validated active cancelled expired"`
	Type      string     `form:"type" binding:"omitempty,oneof=VP TPC TPM TWO_WHEELER"`
	ClientID  string     `form:"client_id" binding:"omitempty,uuid"`
	VehicleID string     `form:"vehicle_id" binding:"omitempty,uuid"`
	CompanyID string     `form:"company_id" binding:"omitempty,uuid"`
	StartFrom *time.Time `form:"start_from" time_format:"2006-01-02"`
	StartTo   *time.Time `form:"start_to" time_format:"2006-01-02"`
	Page      int        `form:"page" binding:"min=0"`
	PageSize  int        `form:"page_size" binding:"min=0,max=100"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// LifecycleResult counts the transitions made by one lifecycle sweep
type LifecycleResult struct {
	Activated int `json:"activated"`
	Expired   int `json:"expired"`
	Failed    int `json:"failed"`
}

// ToContractResponse converts a domain Contract to ContractResponse
func ToContractResponse(c *contract.Contract) ContractResponse {
	return ContractResponse{
		ID:                 c.ID,
		Reference:          c.Reference,
		PolicyNumber:       c.PolicyNumber,
		Type:               string(c.Type),
		ClientID:           c.ClientID,
		VehicleID:          c.VehicleID,
		CompanyID:          c.CompanyID,
		DurationMonths:     c.DurationMonths,
		StartDate:          c.StartDate,
		EndDate:            c.EndDate,
		Status:             string(c.Status),
		ParentID:           c.ParentID,
		Inputs:             c.Inputs,
		Amounts:            c.Amounts,
		PricingStatus:      string(c.PricingStatus),
		PricedAt:           c.PricedAt,
		ValidatedAt:        c.ValidatedAt,
		ActivatedAt:        c.ActivatedAt,
		CancelledAt:        c.CancelledAt,
		ExpiredAt:          c.ExpiredAt,
		CancellationReason: c.CancellationReason,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
		Version:            c.Version,
	}
}

// ToContractResponses converts a slice of contracts
func ToContractResponses(contracts []contract.Contract) []ContractResponse {
	responses := make([]ContractResponse, len(contracts))
	for i := range contracts {
		responses[i] = ToContractResponse(&contracts[i])
	}
	return responses
}
