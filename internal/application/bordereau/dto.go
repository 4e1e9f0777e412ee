package bordereau

import (
	"time"

	"github.com/courtage/backend/internal/domain/bordereau"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// GenerateBordereauRequest selects a company's contracts created in [StartDate, EndDate]
type GenerateBordereauRequest struct {
	CompanyID uuid.UUID `json:"company_id" binding:"required"`
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required"`
	Notes     string    `json:"notes" binding:"max=2000"`
}

// UpdateNotesRequest replaces the free text of a draft
type UpdateNotesRequest struct {
	Notes string `json:"notes" binding:"max=2000"`
}

// BordereauListFilter filters the bordereau list
type BordereauListFilter struct {
	Status    string `form:"status" binding:"omitempty,oneof=draft closed"`
	CompanyID string `form:"company_id" binding:"omitempty,uuid"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string `form:"order_by"`
	OrderDir  string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// LineResponse is one contract on the statement
type LineResponse struct {
	ContractID          uuid.UUID       `json:"contract_id"`
	ContractReference   string          `json:"contract_reference"`
	PolicyNumber        string          `json:"policy_number"`
	ClientName          string          `json:"client_name"`
	VehicleRegistration string          `json:"vehicle_registration"`
	ContractType        string          `json:"contract_type"`
	StartDate           time.Time       `json:"start_date"`
	EndDate             time.Time       `json:"end_date"`
	BasePremium         decimal.Decimal `json:"base_premium"`
	GrossPremium        decimal.Decimal `json:"gross_premium"`
	TotalDiscount       decimal.Decimal `json:"total_discount"`
	Commission          decimal.Decimal `json:"commission"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
}

// TotalsResponse sums the amount columns
type TotalsResponse struct {
	Count         int             `json:"count"`
	BasePremium   decimal.Decimal `json:"base_premium"`
	GrossPremium  decimal.Decimal `json:"gross_premium"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	Commission    decimal.Decimal `json:"commission"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// BordereauResponse represents a bordereau in API responses. Lines are
// omitted from list responses.
type BordereauResponse struct {
	ID          uuid.UUID      `json:"id"`
	Reference   string         `json:"reference"`
	CompanyID   uuid.UUID      `json:"company_id"`
	PeriodStart time.Time      `json:"period_start"`
	PeriodEnd   time.Time      `json:"period_end"`
	Status      string         `json:"status"`
	Lines       []LineResponse `json:"lines,omitempty"`
	Totals      TotalsResponse `json:"totals"`
	Notes       string         `json:"notes,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
	ClosedAt    *time.Time     `json:"closed_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Version     int            `json:"version"`
}

// ExportResponse points at an uploaded export
type ExportResponse struct {
	Format      string    `json:"format"`
	FileName    string    `json:"file_name"`
	StorageKey  string    `json:"storage_key"`
	Size        int       `json:"size"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Statement is the printable view of a bordereau handed to renderers
type Statement struct {
	Reference   string
	CompanyCode string
	CompanyName string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Status      string
	Lines       []LineResponse
	Totals      TotalsResponse
	Notes       string
	GeneratedAt time.Time
	PrintedAt   time.Time
}

// ToLineResponse converts a domain line
func ToLineResponse(l bordereau.Line) LineResponse {
	return LineResponse{
		ContractID:          l.ContractID,
		ContractReference:   l.ContractReference,
		PolicyNumber:        l.PolicyNumber,
		ClientName:          l.ClientName,
		VehicleRegistration: l.VehicleRegistration,
		ContractType:        string(l.ContractType),
		StartDate:           l.StartDate,
		EndDate:             l.EndDate,
		BasePremium:         l.BasePremium,
		GrossPremium:        l.GrossPremium,
		TotalDiscount:       l.TotalDiscount,
		Commission:          l.Commission,
		TotalAmount:         l.TotalAmount,
	}
}

// ToTotalsResponse converts domain totals
func ToTotalsResponse(t bordereau.Totals) TotalsResponse {
	return TotalsResponse{
		Count:         t.Count,
		BasePremium:   t.BasePremium,
		GrossPremium:  t.GrossPremium,
		TotalDiscount: t.TotalDiscount,
		Commission:    t.Commission,
		TotalAmount:   t.TotalAmount,
	}
}

// ToBordereauResponse converts a domain bordereau with its lines
func ToBordereauResponse(b *bordereau.Bordereau) BordereauResponse {
	return BordereauResponse{
		ID:          b.ID,
		Reference:   b.Reference,
		CompanyID:   b.CompanyID,
		PeriodStart: b.Period.Start,
		PeriodEnd:   b.Period.End,
		Status:      string(b.Status),
		Lines:       lo.Map(b.Lines, func(l bordereau.Line, _ int) LineResponse { return ToLineResponse(l) }),
		Totals:      ToTotalsResponse(b.Totals),
		Notes:       b.Notes,
		GeneratedAt: b.GeneratedAt,
		ClosedAt:    b.ClosedAt,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
		Version:     b.Version,
	}
}

// ToBordereauResponses converts list headers
func ToBordereauResponses(items []bordereau.Bordereau) []BordereauResponse {
	responses := make([]BordereauResponse, len(items))
	for i := range items {
		responses[i] = ToBordereauResponse(&items[i])
		responses[i].Lines = nil
	}
	return responses
}
