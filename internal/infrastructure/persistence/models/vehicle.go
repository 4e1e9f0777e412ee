package models

import (
	"time"

	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VehicleModel is the persistence model for the Vehicle aggregate.
type VehicleModel struct {
	AggregateModel
	TenantID              uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_vehicles_tenant_registration,priority:1"`
	CreatedBy             *uuid.UUID           `gorm:"type:uuid"`
	Reference             string               `gorm:"type:varchar(20);not null;uniqueIndex:idx_vehicles_reference"`
	ClientID              uuid.UUID            `gorm:"type:uuid;not null;index"`
	RegistrationNumber    string               `gorm:"type:varchar(20);not null;uniqueIndex:idx_vehicles_tenant_registration,priority:2"`
	ChassisNumber         string               `gorm:"type:varchar(50)"`
	Brand                 string               `gorm:"type:varchar(100);not null"`
	Model                 string               `gorm:"type:varchar(100);not null"`
	Energy                vehicle.EnergySource `gorm:"type:varchar(20);not null"`
	Class                 vehicle.Class        `gorm:"type:varchar(20);not null;index"`
	FiscalPower           int                  `gorm:"not null;default:0"`
	Payload               decimal.Decimal      `gorm:"type:decimal(10,2);not null;default:0"`
	EngineCapacity        int                  `gorm:"not null;default:0"`
	Seats                 int                  `gorm:"not null;default:0"`
	FirstRegistrationDate *time.Time           `gorm:"type:date"`
}

// TableName returns the table name for GORM
func (VehicleModel) TableName() string {
	return "vehicles"
}

// ToDomain converts the persistence model to a domain Vehicle.
func (m *VehicleModel) ToDomain() *vehicle.Vehicle {
	return &vehicle.Vehicle{
		TenantAggregateRoot:   tenantRoot(m.AggregateModel, m.TenantID, m.CreatedBy),
		Reference:             m.Reference,
		ClientID:              m.ClientID,
		RegistrationNumber:    m.RegistrationNumber,
		ChassisNumber:         m.ChassisNumber,
		Brand:                 m.Brand,
		Model:                 m.Model,
		Energy:                m.Energy,
		Class:                 m.Class,
		FiscalPower:           m.FiscalPower,
		Payload:               m.Payload,
		EngineCapacity:        m.EngineCapacity,
		Seats:                 m.Seats,
		FirstRegistrationDate: m.FirstRegistrationDate,
	}
}

// FromDomain populates the persistence model from a domain Vehicle.
func (m *VehicleModel) FromDomain(v *vehicle.Vehicle) {
	m.SetRoot(v.BaseAggregateRoot)
	m.TenantID = v.TenantID
	m.CreatedBy = v.CreatedBy
	m.Reference = v.Reference
	m.ClientID = v.ClientID
	m.RegistrationNumber = v.RegistrationNumber
	m.ChassisNumber = v.ChassisNumber
	m.Brand = v.Brand
	m.Model = v.Model
	m.Energy = v.Energy
	m.Class = v.Class
	m.FiscalPower = v.FiscalPower
	m.Payload = v.Payload
	m.EngineCapacity = v.EngineCapacity
	m.Seats = v.Seats
	m.FirstRegistrationDate = v.FirstRegistrationDate
}

// VehicleModelFromDomain creates a new persistence model from a domain Vehicle.
func VehicleModelFromDomain(v *vehicle.Vehicle) *VehicleModel {
	m := &VehicleModel{}
	m.FromDomain(v)
	return m
}
