package company

import (
	"time"

	"github.com/courtage/backend/internal/domain/company"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCompanyRequest represents a request to register an insurer
type CreateCompanyRequest struct {
	Code              string           `json:"code" binding:"required,min=2,max=50"`
	Name              string           `json:"name" binding:"required,min=1,max=200"`
	Email             string           `json:"email" binding:"omitempty,email,max=200"`
	Phone             string           `json:"phone" binding:"max=50"`
	Address           string           `json:"address" binding:"max=500"`
	DefaultCommission *decimal.Decimal `json:"default_commission"`
	PlatformCode      string           `json:"platform_code" binding:"max=50"`
}

// UpdateCompanyRequest represents a request to update an insurer
type UpdateCompanyRequest struct {
	Name              *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Email             *string          `json:"email" binding:"omitempty,email,max=200"`
	Phone             *string          `json:"phone" binding:"omitempty,max=50"`
	Address           *string          `json:"address" binding:"omitempty,max=500"`
	DefaultCommission *decimal.Decimal `json:"default_commission"`
	PlatformCode      *string          `json:"platform_code" binding:"omitempty,max=50"`
}

// CompanyResponse represents an insurer in API responses
type CompanyResponse struct {
	ID                uuid.UUID       `json:"id"`
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	Email             string          `json:"email,omitempty"`
	Phone             string          `json:"phone,omitempty"`
	Address           string          `json:"address,omitempty"`
	DefaultCommission decimal.Decimal `json:"default_commission"`
	PlatformCode      string          `json:"platform_code,omitempty"`
	Active            bool            `json:"active"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// CompanyListFilter represents filter options for company list
type CompanyListFilter struct {
	Search   string `form:"search"`
	Active   *bool  `form:"active"`
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToCompanyResponse converts a domain Company to CompanyResponse
func ToCompanyResponse(c *company.Company) CompanyResponse {
	return CompanyResponse{
		ID:                c.ID,
		Code:              c.Code,
		Name:              c.Name,
		Email:             c.Email,
		Phone:             c.Phone,
		Address:           c.Address,
		DefaultCommission: c.DefaultCommission,
		PlatformCode:      c.PlatformCode,
		Active:            c.Active,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
		Version:           c.Version,
	}
}
