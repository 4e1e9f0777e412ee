package vehicle

import (
	"time"

	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SpecsRequest carries the class-dependent technical attributes
type SpecsRequest struct {
	FiscalPower    int             `json:"fiscal_power" binding:"min=0"`
	Payload        decimal.Decimal `json:"payload"`
	EngineCapacity int             `json:"engine_capacity" binding:"min=0"`
	Seats          int             `json:"seats" binding:"min=0"`
}

func (r SpecsRequest) toDomain() vehicle.Specs {
	return vehicle.Specs{
		FiscalPower:    r.FiscalPower,
		Payload:        r.Payload,
		EngineCapacity: r.EngineCapacity,
		Seats:          r.Seats,
	}
}

// CreateVehicleRequest represents a request to register a vehicle
type CreateVehicleRequest struct {
	ClientID              uuid.UUID    `json:"client_id" binding:"required"`
	RegistrationNumber    string       `json:"registration_number" binding:"required,min=2,max=20"`
	ChassisNumber         string       `json:"chassis_number" binding:"max=50"`
	Brand                 string       `json:"brand" binding:"required,max=100"`
	Model                 string       `json:"model" binding:"max=100"`
	Energy                string       `json:"energy" binding:"required,oneof=gasoline diesel electric hybrid"`
	Class                 string       `json:"class" binding:"required,oneof=VP TPC TPM TWO_WHEELER"`
	Specs                 SpecsRequest `json:"specs"`
	FirstRegistrationDate *time.Time   `json:"first_registration_date"`
}

// UpdateVehicleRequest represents a request to update a vehicle. Nil fields are left unchanged.
type UpdateVehicleRequest struct {
	RegistrationNumber    *string       `json:"registration_number" binding:"omitempty,min=2,max=20"`
	ChassisNumber         *string       `json:"chassis_number" binding:"omitempty,max=50"`
	Brand                 *string       `json:"brand" binding:"omitempty,max=100"`
	Model                 *string       `json:"model" binding:"omitempty,max=100"`
	Energy                *string       `json:"energy" binding:"omitempty,oneof=gasoline diesel electric hybrid"`
	Class                 *string       `json:"class" binding:"omitempty,oneof=VP TPC TPM TWO_WHEELER"`
	Specs                 *SpecsRequest `json:"specs"`
	FirstRegistrationDate *time.Time    `json:"first_registration_date"`
	ClientID              *uuid.UUID    `json:"client_id"`
}

// VehicleResponse represents a vehicle in API responses
type VehicleResponse struct {
	ID                    uuid.UUID       `json:"id"`
	TenantID              uuid.UUID       `json:"tenant_id"`
	Reference             string          `json:"reference"`
	ClientID              uuid.UUID       `json:"client_id"`
	RegistrationNumber    string          `json:"registration_number"`
	ChassisNumber         string          `json:"chassis_number,omitempty"`
	Brand                 string          `json:"brand"`
	Model                 string          `json:"model,omitempty"`
	Energy                string          `json:"energy"`
	Class                 string          `json:"class"`
	FiscalPower           int             `json:"fiscal_power,omitempty"`
	Payload               decimal.Decimal `json:"payload"`
	EngineCapacity        int             `json:"engine_capacity,omitempty"`
	Seats                 int             `json:"seats,omitempty"`
	DefiningAttribute     decimal.Decimal `json:"defining_attribute"`
	FirstRegistrationDate *time.Time      `json:"first_registration_date,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
	Version               int             `json:"version"`
}

// VehicleListFilter represents filter options for vehicle list
type VehicleListFilter struct {
	Search   string `form:"search"`
	ClientID string `form:"client_id" binding:"omitempty,uuid"`
	Class    string `form:"class" binding:"omitempty,oneof=VP TPC TPM TWO_WHEELER"`
	Energy   string `form:"energy" binding:"omitempty,oneof=gasoline diesel electric hybrid"`
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToVehicleResponse converts a domain Vehicle to VehicleResponse
func ToVehicleResponse(v *vehicle.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:                    v.ID,
		TenantID:              v.TenantID,
		Reference:             v.Reference,
		ClientID:              v.ClientID,
		RegistrationNumber:    v.RegistrationNumber,
		ChassisNumber:         v.ChassisNumber,
		Brand:                 v.Brand,
		Model:                 v.Model,
		Energy:                string(v.Energy),
		Class:                 string(v.Class),
		FiscalPower:           v.FiscalPower,
		Payload:               v.Payload,
		EngineCapacity:        v.EngineCapacity,
		Seats:                 v.Seats,
		DefiningAttribute:     v.DefiningAttribute(),
		FirstRegistrationDate: v.FirstRegistrationDate,
		CreatedAt:             v.CreatedAt,
		UpdatedAt:             v.UpdatedAt,
		Version:               v.Version,
	}
}

// ToVehicleResponses converts a slice of domain Vehicles
func ToVehicleResponses(vehicles []vehicle.Vehicle) []VehicleResponse {
	responses := make([]VehicleResponse, len(vehicles))
	for i := range vehicles {
		responses[i] = ToVehicleResponse(&vehicles[i])
	}
	return responses
}
