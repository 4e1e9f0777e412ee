package persistence

import (
	"context"
	"errors"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// tenantScope starts a query on model limited to one tenant
func tenantScope(ctx context.Context, db *gorm.DB, model any, tenantID uuid.UUID) *gorm.DB {
	return db.WithContext(ctx).Model(model).Where("tenant_id = ?", tenantID)
}

// findOne loads the first row q matches and converts it. A miss is
// shared.ErrNotFound.
func findOne[M, D any](q *gorm.DB, toDomain func(*M) *D) (*D, error) {
	var m M
	err := q.First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDomain(&m), nil
}

func findAll[M, D any](q *gorm.DB, toDomain func(*M) *D) ([]D, error) {
	var rows []M
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]D, len(rows))
	for i := range rows {
		out[i] = *toDomain(&rows[i])
	}
	return out, nil
}

func countRows(q *gorm.DB) (int64, error) {
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func anyRow(q *gorm.DB) (bool, error) {
	n, err := countRows(q)
	return n > 0, err
}

// saveVersioned writes every column of model when the stored row of the
// tenant still carries expected as its version
func saveVersioned(ctx context.Context, db *gorm.DB, model any, tenantID, id uuid.UUID, expected int, entity string) error {
	res := db.WithContext(ctx).Model(model).Select("*").
		Where("id = ? AND tenant_id = ? AND version = ?", id, tenantID, expected).
		Updates(model)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return optimisticLockError(entity)
	}
	return nil
}

// deleteScoped removes one row of the tenant, or reports shared.ErrNotFound
func deleteScoped(db *gorm.DB, model any, tenantID, id uuid.UUID) error {
	res := db.Delete(model, "tenant_id = ? AND id = ?", tenantID, id)
	switch {
	case res.Error != nil:
		return res.Error
	case res.RowsAffected == 0:
		return shared.ErrNotFound
	}
	return nil
}
