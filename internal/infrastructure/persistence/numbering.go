package persistence

import (
	"context"
	"time"

	"github.com/courtage/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// nextSequentialNumber returns the next free PREFIX-YYYY-NNNNN value of column.
// It starts after the highest value of the current year and tries upwards,
// giving up after shared.MaxReferenceAttempts taken candidates. The unique
// index remains the final arbiter between concurrent writers.
func nextSequentialNumber(ctx context.Context, db *gorm.DB, model any, column string, prefix shared.ReferencePrefix, now time.Time) (string, error) {
	var last []string
	if err := db.WithContext(ctx).
		Model(model).
		Where(column+" LIKE ?", shared.ReferenceYearPrefix(prefix, now)+"%").
		Order("LENGTH(" + column + ") DESC").
		Order(column + " DESC").
		Limit(1).
		Pluck(column, &last).Error; err != nil {
		return "", err
	}

	next := int64(1)
	if len(last) > 0 {
		if seq, ok := shared.ReferenceSequence(last[0]); ok {
			next = seq + 1
		}
	}

	for attempt := 0; attempt < shared.MaxReferenceAttempts; attempt++ {
		candidate := shared.FormatReference(prefix, now, next)
		var count int64
		if err := db.WithContext(ctx).
			Model(model).
			Where(column+" = ?", candidate).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		next++
	}
	return "", shared.ErrReferenceExhausted
}
