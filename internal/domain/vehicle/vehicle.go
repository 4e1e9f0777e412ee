package vehicle

import (
	"strings"
	"time"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Class is the insurance class of a vehicle. It selects the rate grid and
// the attribute that drives pricing.
type Class string

const (
	ClassPrivate         Class = "VP"          // private car, priced on fiscal power
	ClassCommercialGoods Class = "TPC"         // goods transport for own account, priced on payload
	ClassPublicGoods     Class = "TPM"         // goods transport for hire, priced on payload
	ClassTwoWheeler      Class = "TWO_WHEELER" // priced on engine capacity
)

// AllClasses returns every supported class.
func AllClasses() []Class {
	return []Class{ClassPrivate, ClassCommercialGoods, ClassPublicGoods, ClassTwoWheeler}
}

// IsValid reports whether c is a supported class.
func (c Class) IsValid() bool {
	switch c {
	case ClassPrivate, ClassCommercialGoods, ClassPublicGoods, ClassTwoWheeler:
		return true
	}
	return false
}

// EnergySource is the vehicle's fuel or power source.
type EnergySource string

const (
	EnergyGasoline EnergySource = "gasoline"
	EnergyDiesel   EnergySource = "diesel"
	EnergyElectric EnergySource = "electric"
	EnergyHybrid   EnergySource = "hybrid"
)

// IsValid reports whether e is a supported energy source.
func (e EnergySource) IsValid() bool {
	switch e {
	case EnergyGasoline, EnergyDiesel, EnergyElectric, EnergyHybrid:
		return true
	}
	return false
}

// Specs carries the class-dependent technical attributes.
type Specs struct {
	FiscalPower    int             // CV, VP only
	Payload        decimal.Decimal // tonnes, TPC/TPM only
	EngineCapacity int             // cc, TWO_WHEELER only
	Seats          int
}

// Vehicle is the aggregate root for an insured vehicle
type Vehicle struct {
	shared.TenantAggregateRoot
	Reference             string
	ClientID              uuid.UUID
	RegistrationNumber    string
	ChassisNumber         string
	Brand                 string
	Model                 string
	Energy                EnergySource
	Class                 Class
	FiscalPower           int
	Payload               decimal.Decimal
	EngineCapacity        int
	Seats                 int
	FirstRegistrationDate *time.Time
}

// NewVehicle creates a vehicle owned by clientID.
func NewVehicle(tenantID, clientID uuid.UUID, registration, brand, model string, class Class, energy EnergySource, specs Specs) (*Vehicle, error) {
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Vehicle must belong to a client")
	}
	registration = NormalizeRegistration(registration)
	if err := validateRegistration(registration); err != nil {
		return nil, err
	}
	if err := validateMakeModel(brand, model); err != nil {
		return nil, err
	}
	if !energy.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENERGY", "Unsupported energy source")
	}
	if err := validateSpecs(class, specs); err != nil {
		return nil, err
	}

	v := &Vehicle{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ClientID:            clientID,
		RegistrationNumber:  registration,
		Brand:               strings.TrimSpace(brand),
		Model:               strings.TrimSpace(model),
		Energy:              energy,
	}
	v.applySpecs(class, specs)

	v.AddDomainEvent(NewVehicleCreatedEvent(v))
	return v, nil
}

// AssignReference sets the business reference. It can only be set once.
func (v *Vehicle) AssignReference(ref string) error {
	if v.Reference != "" {
		return shared.NewDomainError("REFERENCE_ALREADY_SET", "Vehicle reference is immutable once assigned")
	}
	if strings.TrimSpace(ref) == "" {
		return shared.NewDomainError("INVALID_REFERENCE", "Reference cannot be empty")
	}
	v.Reference = ref
	return nil
}

// UpdateDetails changes the descriptive fields.
func (v *Vehicle) UpdateDetails(brand, model, chassis string, energy EnergySource, firstRegistration *time.Time) error {
	if err := validateMakeModel(brand, model); err != nil {
		return err
	}
	if !energy.IsValid() {
		return shared.NewDomainError("INVALID_ENERGY", "Unsupported energy source")
	}
	if len(chassis) > 50 {
		return shared.NewDomainError("INVALID_CHASSIS", "Chassis number cannot exceed 50 characters")
	}
	if firstRegistration != nil && firstRegistration.After(time.Now()) {
		return shared.NewDomainError("INVALID_FIRST_REGISTRATION", "First registration date cannot be in the future")
	}

	v.Brand = strings.TrimSpace(brand)
	v.Model = strings.TrimSpace(model)
	v.ChassisNumber = strings.ToUpper(strings.TrimSpace(chassis))
	v.Energy = energy
	v.FirstRegistrationDate = firstRegistration
	v.Touch()

	v.AddDomainEvent(NewVehicleUpdatedEvent(v))
	return nil
}

// UpdateSpecs changes the class and technical attributes.
func (v *Vehicle) UpdateSpecs(class Class, specs Specs) error {
	if err := validateSpecs(class, specs); err != nil {
		return err
	}
	v.applySpecs(class, specs)
	v.Touch()

	v.AddDomainEvent(NewVehicleUpdatedEvent(v))
	return nil
}

// ChangeRegistration replaces the registration number (new plates).
func (v *Vehicle) ChangeRegistration(registration string) error {
	registration = NormalizeRegistration(registration)
	if err := validateRegistration(registration); err != nil {
		return err
	}
	v.RegistrationNumber = registration
	v.Touch()
	return nil
}

// TransferTo moves the vehicle to another client.
func (v *Vehicle) TransferTo(clientID uuid.UUID) error {
	if clientID == uuid.Nil {
		return shared.NewDomainError("INVALID_CLIENT", "Vehicle must belong to a client")
	}
	v.ClientID = clientID
	v.Touch()
	return nil
}

// DefiningAttribute returns the numeric attribute used for rate-grid bucketing:
// fiscal power for VP, payload for TPC/TPM, engine capacity for two-wheelers.
func (v *Vehicle) DefiningAttribute() decimal.Decimal {
	return DefiningAttribute(v.Class, Specs{
		FiscalPower:    v.FiscalPower,
		Payload:        v.Payload,
		EngineCapacity: v.EngineCapacity,
	})
}

// DefiningAttribute picks the pricing attribute of specs for class.
func DefiningAttribute(class Class, specs Specs) decimal.Decimal {
	switch class {
	case ClassPrivate:
		return decimal.NewFromInt(int64(specs.FiscalPower))
	case ClassCommercialGoods, ClassPublicGoods:
		return specs.Payload
	case ClassTwoWheeler:
		return decimal.NewFromInt(int64(specs.EngineCapacity))
	}
	return decimal.Zero
}

// Label returns "BRAND MODEL (REGISTRATION)".
func (v *Vehicle) Label() string {
	return strings.TrimSpace(v.Brand+" "+v.Model) + " (" + v.RegistrationNumber + ")"
}

func (v *Vehicle) applySpecs(class Class, specs Specs) {
	v.Class = class
	v.Seats = specs.Seats
	v.FiscalPower = 0
	v.Payload = decimal.Zero
	v.EngineCapacity = 0
	switch class {
	case ClassPrivate:
		v.FiscalPower = specs.FiscalPower
	case ClassCommercialGoods, ClassPublicGoods:
		v.Payload = specs.Payload
	case ClassTwoWheeler:
		v.EngineCapacity = specs.EngineCapacity
	}
}

// NormalizeRegistration upper-cases and strips spaces from a plate number.
func NormalizeRegistration(registration string) string {
	return strings.ToUpper(strings.Join(strings.Fields(registration), ""))
}

func validateRegistration(registration string) error {
	if registration == "" {
		return shared.NewDomainError("INVALID_REGISTRATION", "Registration number cannot be empty")
	}
	if len(registration) > 20 {
		return shared.NewDomainError("INVALID_REGISTRATION", "Registration number cannot exceed 20 characters")
	}
	return nil
}

func validateMakeModel(brand, model string) error {
	if strings.TrimSpace(brand) == "" {
		return shared.NewDomainError("INVALID_BRAND", "Brand cannot be empty")
	}
	if len(brand) > 100 || len(model) > 100 {
		return shared.NewDomainError("INVALID_MODEL", "Brand and model cannot exceed 100 characters")
	}
	return nil
}

func validateSpecs(class Class, specs Specs) error {
	if !class.IsValid() {
		return shared.NewDomainError("INVALID_CLASS", "Unsupported vehicle class")
	}
	if specs.Seats < 0 {
		return shared.NewDomainError("INVALID_SEATS", "Seat count cannot be negative")
	}
	switch class {
	case ClassPrivate:
		if specs.FiscalPower <= 0 {
			return shared.NewDomainError("INVALID_FISCAL_POWER", "Fiscal power is required for private cars")
		}
	case ClassCommercialGoods, ClassPublicGoods:
		if !specs.Payload.IsPositive() {
			return shared.NewDomainError("INVALID_PAYLOAD", "Payload is required for goods vehicles")
		}
	case ClassTwoWheeler:
		if specs.EngineCapacity <= 0 {
			return shared.NewDomainError("INVALID_ENGINE_CAPACITY", "Engine capacity is required for two-wheelers")
		}
	}
	return nil
}
