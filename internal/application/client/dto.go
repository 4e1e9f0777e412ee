package client

import (
	"time"

	"github.com/courtage/backend/internal/domain/client"
	"github.com/courtage/backend/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateClientRequest represents a request to create a new client
type CreateClientRequest struct {
	Kind             string     `json:"kind" binding:"required,oneof=individual company"`
	FirstName        string     `json:"first_name" binding:"max=100"`
	LastName         string     `json:"last_name" binding:"max=100"`
	CompanyName      string     `json:"company_name" binding:"max=200"`
	Phone            string     `json:"phone" binding:"max=50"`
	Email            string     `json:"email" binding:"omitempty,email,max=200"`
	Address          string     `json:"address" binding:"max=500"`
	City             string     `json:"city" binding:"max=100"`
	IDDocumentNumber string     `json:"id_document_number" binding:"max=50"`
	ProfessionID     *uuid.UUID `json:"profession_id"`
	Notes            string     `json:"notes"`
}

// UpdateClientRequest represents a request to update a client. Nil fields are left unchanged.
type UpdateClientRequest struct {
	FirstName        *string    `json:"first_name" binding:"omitempty,max=100"`
	LastName         *string    `json:"last_name" binding:"omitempty,max=100"`
	CompanyName      *string    `json:"company_name" binding:"omitempty,max=200"`
	Phone            *string    `json:"phone" binding:"omitempty,max=50"`
	Email            *string    `json:"email" binding:"omitempty,max=200"`
	Address          *string    `json:"address" binding:"omitempty,max=500"`
	City             *string    `json:"city" binding:"omitempty,max=100"`
	IDDocumentNumber *string    `json:"id_document_number" binding:"omitempty,max=50"`
	ProfessionID     *uuid.UUID `json:"profession_id"`
	ClearProfession  bool       `json:"clear_profession"`
	Notes            *string    `json:"notes"`
}

// ClientResponse represents a client in API responses
type ClientResponse struct {
	ID               uuid.UUID  `json:"id"`
	TenantID         uuid.UUID  `json:"tenant_id"`
	Reference        string     `json:"reference"`
	Kind             string     `json:"kind"`
	DisplayName      string     `json:"display_name"`
	FirstName        string     `json:"first_name,omitempty"`
	LastName         string     `json:"last_name,omitempty"`
	CompanyName      string     `json:"company_name,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	Email            string     `json:"email,omitempty"`
	Address          string     `json:"address,omitempty"`
	City             string     `json:"city,omitempty"`
	IDDocumentNumber string     `json:"id_document_number,omitempty"`
	ProfessionID     *uuid.UUID `json:"profession_id,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Version          int        `json:"version"`
}

// ClientListFilter represents filter options for client list
type ClientListFilter struct {
	Search       string `form:"search"`
	Kind         string `form:"kind" binding:"omitempty,oneof=individual company"`
	ProfessionID string `form:"profession_id" binding:"omitempty,uuid"`
	City         string `form:"city"`
	Page         int    `form:"page" binding:"min=0"`
	PageSize     int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy      string `form:"order_by"`
	OrderDir     string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToClientResponse converts a domain Client to ClientResponse
func ToClientResponse(c *client.Client) ClientResponse {
	return ClientResponse{
		ID:               c.ID,
		TenantID:         c.TenantID,
		Reference:        c.Reference,
		Kind:             string(c.Kind),
		DisplayName:      c.DisplayName(),
		FirstName:        c.FirstName,
		LastName:         c.LastName,
		CompanyName:      c.CompanyName,
		Phone:            c.Phone,
		Email:            c.Email,
		Address:          c.Address,
		City:             c.City,
		IDDocumentNumber: c.IDDocumentNumber,
		ProfessionID:     c.ProfessionID,
		Notes:            c.Notes,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
		Version:          c.Version,
	}
}

// ToClientResponses converts a slice of domain Clients
func ToClientResponses(clients []client.Client) []ClientResponse {
	responses := make([]ClientResponse, len(clients))
	for i := range clients {
		responses[i] = ToClientResponse(&clients[i])
	}
	return responses
}

// DiscountRequest is a profession discount rule
type DiscountRequest struct {
	Kind  string          `json:"kind" binding:"omitempty,oneof=percent flat"`
	Value decimal.Decimal `json:"value"`
}

func (d DiscountRequest) toDomain() (pricing.Discount, error) {
	if d.Kind == "" && d.Value.IsZero() {
		return pricing.NoDiscount(), nil
	}
	return pricing.NewDiscount(pricing.DiscountKind(d.Kind), d.Value)
}

// CreateProfessionRequest represents a request to create a profession
type CreateProfessionRequest struct {
	Code     string          `json:"code" binding:"required,min=1,max=50"`
	Name     string          `json:"name" binding:"required,min=1,max=200"`
	Discount DiscountRequest `json:"discount"`
}

// UpdateProfessionRequest represents a request to update a profession
type UpdateProfessionRequest struct {
	Name     string          `json:"name" binding:"required,min=1,max=200"`
	Discount DiscountRequest `json:"discount"`
}

// ProfessionResponse represents a profession in API responses
type ProfessionResponse struct {
	ID        uuid.UUID        `json:"id"`
	Code      string           `json:"code"`
	Name      string           `json:"name"`
	Discount  pricing.Discount `json:"discount"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ToProfessionResponse converts a domain Profession
func ToProfessionResponse(p *client.Profession) ProfessionResponse {
	return ProfessionResponse{
		ID:        p.ID,
		Code:      p.Code,
		Name:      p.Name,
		Discount:  p.Discount,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
