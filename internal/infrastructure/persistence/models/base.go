package models

import (
	"time"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel holds the columns of shared.BaseEntity
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (m *BaseModel) Entity() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func (m *BaseModel) SetEntity(e shared.BaseEntity) {
	m.ID, m.CreatedAt, m.UpdatedAt = e.ID, e.CreatedAt, e.UpdatedAt
}

// AggregateModel adds the optimistic-locking version
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

func (m *AggregateModel) SetRoot(a shared.BaseAggregateRoot) {
	m.SetEntity(a.BaseEntity)
	m.Version = a.Version
}

// TenantAggregateModel is embedded by tables that only need the tenant
// index. Tables whose unique keys lead with tenant_id declare the column
// themselves and use tenantRoot.
type TenantAggregateModel struct {
	AggregateModel
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid;index"`
}

func (m *TenantAggregateModel) SetTenantRoot(t shared.TenantAggregateRoot) {
	m.SetRoot(t.BaseAggregateRoot)
	m.TenantID = t.TenantID
	m.CreatedBy = t.CreatedBy
}

func (m *TenantAggregateModel) TenantRoot() shared.TenantAggregateRoot {
	return tenantRoot(m.AggregateModel, m.TenantID, m.CreatedBy)
}

func tenantRoot(a AggregateModel, tenantID uuid.UUID, createdBy *uuid.UUID) shared.TenantAggregateRoot {
	return shared.TenantAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: a.Entity(), Version: a.Version},
		TenantID:          tenantID,
		CreatedBy:         createdBy,
	}
}
