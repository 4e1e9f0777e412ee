package models

import (
	"time"

	"github.com/courtage/backend/internal/domain/document"
	"github.com/google/uuid"
)

// DocumentModel is the persistence model for uploaded documents.
type DocumentModel struct {
	TenantAggregateModel
	OwnerType   document.OwnerType `gorm:"type:varchar(20);not null;index:idx_documents_owner,priority:1"`
	OwnerID     uuid.UUID          `gorm:"type:uuid;not null;index:idx_documents_owner,priority:2"`
	FileName    string             `gorm:"type:varchar(255);not null"`
	ContentType string             `gorm:"type:varchar(100);not null"`
	Size        int64              `gorm:"not null"`
	StorageKey  string             `gorm:"type:varchar(500);not null;uniqueIndex"`
	Status      document.Status    `gorm:"type:varchar(20);not null"`
	UploadedAt  *time.Time
	UploadedBy  *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}

// ToDomain converts the persistence model to a domain Document.
func (m *DocumentModel) ToDomain() *document.Document {
	return &document.Document{
		TenantAggregateRoot: m.TenantRoot(),
		OwnerType:           m.OwnerType,
		OwnerID:             m.OwnerID,
		FileName:            m.FileName,
		ContentType:         m.ContentType,
		Size:                m.Size,
		StorageKey:          m.StorageKey,
		Status:              m.Status,
		UploadedAt:          m.UploadedAt,
		UploadedBy:          m.UploadedBy,
	}
}

// DocumentModelFromDomain creates a new persistence model from a domain Document.
func DocumentModelFromDomain(d *document.Document) *DocumentModel {
	m := &DocumentModel{
		OwnerType:   d.OwnerType,
		OwnerID:     d.OwnerID,
		FileName:    d.FileName,
		ContentType: d.ContentType,
		Size:        d.Size,
		StorageKey:  d.StorageKey,
		Status:      d.Status,
		UploadedAt:  d.UploadedAt,
		UploadedBy:  d.UploadedBy,
	}
	m.SetTenantRoot(d.TenantAggregateRoot)
	return m
}
