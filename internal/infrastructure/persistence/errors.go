package persistence

import (
	"errors"
	"strings"

	"github.com/courtage/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps driver errors to domain errors. Unique violations become
// shared.ErrAlreadyExists so callers can retry number generation.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
		return shared.ErrAlreadyExists
	}
	return err
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

// optimisticLockError is returned when a versioned update matched no row
func optimisticLockError(entity string) error {
	return shared.NewDomainError("CONCURRENCY_CONFLICT", "The "+entity+" was modified by another request")
}
