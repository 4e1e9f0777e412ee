package persistence

import (
	"context"

	"github.com/courtage/backend/internal/domain/certificate"
	"github.com/courtage/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCertificateRepository records every issue attempt, failed ones included
type GormCertificateRepository struct {
	db *gorm.DB
}

func NewGormCertificateRepository(db *gorm.DB) *GormCertificateRepository {
	return &GormCertificateRepository{db: db}
}

func (r *GormCertificateRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*certificate.Certificate, error) {
	return findOne(r.scope(ctx, tenantID).Where("id = ?", id), (*models.CertificateModel).ToDomain)
}

// FindByContract lists the issue attempts of a contract, newest first
func (r *GormCertificateRepository) FindByContract(ctx context.Context, tenantID, contractID uuid.UUID) ([]certificate.Certificate, error) {
	q := r.scope(ctx, tenantID).Where("contract_id = ?", contractID).Order("created_at DESC")
	return findAll(q, (*models.CertificateModel).ToDomain)
}

func (r *GormCertificateRepository) ExistsIssuedForContract(ctx context.Context, tenantID, contractID uuid.UUID) (bool, error) {
	return anyRow(r.scope(ctx, tenantID).Where("contract_id = ? AND status = ?", contractID, certificate.StatusIssued))
}

func (r *GormCertificateRepository) Save(ctx context.Context, c *certificate.Certificate) error {
	return translateError(r.db.WithContext(ctx).Save(models.CertificateModelFromDomain(c)).Error)
}

func (r *GormCertificateRepository) scope(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return tenantScope(ctx, r.db, &models.CertificateModel{}, tenantID)
}

var _ certificate.CertificateRepository = (*GormCertificateRepository)(nil)
