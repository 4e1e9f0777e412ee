package event

import (
	"context"
	"errors"
	"time"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// claimable are the states a relay may pick up
var claimable = []shared.OutboxStatus{shared.OutboxStatusPending, shared.OutboxStatusFailed}

// GormOutboxRepository keeps the outbox in the outbox_events table
type GormOutboxRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db, now: time.Now}
}

func (r *GormOutboxRepository) table(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.OutboxEntryModel{})
}

func (r *GormOutboxRepository) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(lo.Map(entries, toRow)).Error
}

// FindDue returns the oldest entries a relay should attempt now: pending
// ones and failed ones whose backoff has elapsed
func (r *GormOutboxRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]*shared.OutboxEntry, error) {
	var rows []models.OutboxEntryModel
	err := r.table(ctx).
		Where("status = ?", shared.OutboxStatusPending).
		Or("status = ? AND next_retry_at <= ?", shared.OutboxStatusFailed, now).
		Order("created_at").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

// FindDead pages through dead letters, most recently failed first
func (r *GormOutboxRepository) FindDead(ctx context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	page = max(page, 1)
	if pageSize <= 0 {
		pageSize = 20
	}
	dead := r.table(ctx).Where("status = ?", shared.OutboxStatusDead)

	var total int64
	if err := dead.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.OutboxEntryModel
	if total > 0 {
		err := dead.Order("updated_at DESC").
			Offset((page - 1) * pageSize).
			Limit(pageSize).
			Find(&rows).Error
		if err != nil {
			return nil, 0, err
		}
	}
	return fromRows(rows), total, nil
}

func (r *GormOutboxRepository) FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	var row models.OutboxEntryModel
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.ToDomain(), nil
}

// Claim moves the still claimable entries among ids to PROCESSING and returns
// them. Rows another relay holds are skipped rather than waited on.
func (r *GormOutboxRepository) Claim(ctx context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var claimed []*shared.OutboxEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.OutboxEntryModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("id IN ?", ids).
			Where("status IN ?", claimable).
			Find(&rows).Error
		if err != nil || len(rows) == 0 {
			return err
		}

		stamp := r.now()
		err = tx.Model(&models.OutboxEntryModel{}).
			Where("id IN ?", lo.Map(rows, func(m models.OutboxEntryModel, _ int) uuid.UUID { return m.ID })).
			Updates(map[string]any{"status": shared.OutboxStatusProcessing, "updated_at": stamp}).Error
		if err != nil {
			return err
		}
		claimed = fromRows(rows)
		for _, e := range claimed {
			e.Status, e.UpdatedAt = shared.OutboxStatusProcessing, stamp
		}
		return nil
	})
	return claimed, err
}

func (r *GormOutboxRepository) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	return r.db.WithContext(ctx).Save(toRow(entry, 0)).Error
}

// DeleteSentBefore purges delivered entries and reports how many went
func (r *GormOutboxRepository) DeleteSentBefore(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ?", shared.OutboxStatusSent).
		Where("processed_at < ?", before).
		Delete(&models.OutboxEntryModel{})
	return res.RowsAffected, res.Error
}

func (r *GormOutboxRepository) CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error) {
	type bucket struct {
		Status shared.OutboxStatus
		N      int64
	}
	var buckets []bucket
	if err := r.table(ctx).Select("status, COUNT(*) AS n").Group("status").Scan(&buckets).Error; err != nil {
		return nil, err
	}
	return lo.SliceToMap(buckets, func(b bucket) (shared.OutboxStatus, int64) { return b.Status, b.N }), nil
}

func toRow(e *shared.OutboxEntry, _ int) *models.OutboxEntryModel {
	return models.OutboxEntryModelFromDomain(e)
}

func fromRows(rows []models.OutboxEntryModel) []*shared.OutboxEntry {
	return lo.Map(rows, func(m models.OutboxEntryModel, _ int) *shared.OutboxEntry { return m.ToDomain() })
}

var _ shared.OutboxRepository = (*GormOutboxRepository)(nil)
