package event

import (
	"github.com/courtage/backend/internal/domain/bordereau"
	"github.com/courtage/backend/internal/domain/certificate"
	"github.com/courtage/backend/internal/domain/client"
	"github.com/courtage/backend/internal/domain/company"
	"github.com/courtage/backend/internal/domain/contract"
	"github.com/courtage/backend/internal/domain/identity"
	"github.com/courtage/backend/internal/domain/rategrid"
	"github.com/courtage/backend/internal/domain/vehicle"
)

// RegisterAllEvents registers every domain event type with the serializer.
// The outbox refuses events whose type is missing here.
func RegisterAllEvents(serializer *EventSerializer) {
	// Clients and vehicles
	serializer.Register(client.EventTypeClientCreated, &client.ClientCreatedEvent{})
	serializer.Register(client.EventTypeClientUpdated, &client.ClientUpdatedEvent{})
	serializer.Register(client.EventTypeClientDeleted, &client.ClientDeletedEvent{})
	serializer.Register(vehicle.EventTypeVehicleCreated, &vehicle.VehicleCreatedEvent{})
	serializer.Register(vehicle.EventTypeVehicleUpdated, &vehicle.VehicleUpdatedEvent{})
	serializer.Register(vehicle.EventTypeVehicleDeleted, &vehicle.VehicleDeletedEvent{})

	// Companies and pricing
	serializer.Register(company.EventTypeCompanyCreated, &company.CompanyCreatedEvent{})
	serializer.Register(company.EventTypeCompanyStatusChanged, &company.CompanyStatusChangedEvent{})
	serializer.Register(rategrid.EventTypeRateRowChanged, &rategrid.RateRowChangedEvent{})
	serializer.Register(rategrid.EventTypeRateRowDeleted, &rategrid.RateRowDeletedEvent{})

	// Contract lifecycle; status transitions share one payload
	serializer.Register(contract.EventTypeContractCreated, &contract.ContractCreatedEvent{})
	serializer.Register(contract.EventTypeContractPriced, &contract.ContractPricedEvent{})
	serializer.Register(contract.EventTypeContractValidated, &contract.ContractStatusChangedEvent{})
	serializer.Register(contract.EventTypeContractActivated, &contract.ContractStatusChangedEvent{})
	serializer.Register(contract.EventTypeContractExpired, &contract.ContractStatusChangedEvent{})
	serializer.Register(contract.EventTypeContractCancelled, &contract.ContractStatusChangedEvent{})
	serializer.Register(contract.EventTypeContractRenewed, &contract.ContractRenewedEvent{})

	// Bordereaux and certificates
	serializer.Register(bordereau.EventTypeBordereauGenerated, &bordereau.BordereauGeneratedEvent{})
	serializer.Register(bordereau.EventTypeBordereauClosed, &bordereau.BordereauClosedEvent{})
	serializer.Register(certificate.EventTypeCertificateIssued, &certificate.CertificateIssuedEvent{})
	serializer.Register(certificate.EventTypeCertificateCancelled, &certificate.CertificateCancelledEvent{})

	// Identity
	serializer.Register(identity.EventTypeUserCreated, &identity.UserCreatedEvent{})
	serializer.Register(identity.EventTypeUserDeactivated, &identity.UserDeactivatedEvent{})
}
