package rategrid

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/courtage/backend/internal/domain/rategrid"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/domain/vehicle"
	csvimport "github.com/courtage/backend/internal/infrastructure/import"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CSV columns of a grid import
const (
	ColumnClass          = "class"
	ColumnDurationMonths = "duration_months"
	ColumnBucket         = "bucket"
)

// componentColumns are the premium columns in canonical order
var componentColumns = []string{
	"civil_liability",
	"defence_recourse",
	"passenger",
	"driver_individual",
	"recourse_advance",
	"fire",
	"theft",
	"glass_breakage",
}

// RequiredImportHeaders lists the header row of a grid CSV file
func RequiredImportHeaders() []string {
	return append([]string{ColumnClass, ColumnDurationMonths, ColumnBucket}, componentColumns...)
}

// maxImportErrors bounds the row errors returned by ImportCSV
const maxImportErrors = 200

// RateGridService manages the per-class rate grids
type RateGridService struct {
	rowRepo        rategrid.RateRowRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewRateGridService creates a new RateGridService
func NewRateGridService(rowRepo rategrid.RateRowRepository, logger *zap.Logger) *RateGridService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateGridService{rowRepo: rowRepo, logger: logger}
}

// SetEventPublisher sets the event publisher for domain events
func (s *RateGridService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// UpsertRow creates the cell for the key or replaces its components.
func (s *RateGridService) UpsertRow(ctx context.Context, tenantID uuid.UUID, req UpsertRateRowRequest) (*RateRowResponse, error) {
	key := req.Key()
	if err := key.Validate(); err != nil {
		return nil, err
	}

	var row *rategrid.RateRow
	err := shared.RetryOnDuplicate(shared.MaxSaveAttempts, func() error {
		existing, err := s.rowRepo.FindByKey(ctx, tenantID, key)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			row, err = rategrid.NewRateRow(tenantID, key, req.Components)
			if err != nil {
				return err
			}
			return s.rowRepo.Save(ctx, row)
		case err != nil:
			return err
		}

		row = existing
		changed, err := row.ReplaceComponents(req.Components)
		if err != nil || !changed {
			return err
		}
		return s.rowRepo.Save(ctx, row)
	})
	if err != nil {
		return nil, err
	}

	if err := shared.PublishAndClear(ctx, s.eventPublisher, row); err != nil {
		return nil, err
	}

	response := ToRateRowResponse(row)
	return &response, nil
}

// DeleteRow removes a grid cell
func (s *RateGridService) DeleteRow(ctx context.Context, tenantID, rowID uuid.UUID) error {
	row, err := s.rowRepo.FindByIDForTenant(ctx, tenantID, rowID)
	if err != nil {
		return err
	}
	if err := s.rowRepo.DeleteForTenant(ctx, tenantID, rowID); err != nil {
		return err
	}
	row.AddDomainEvent(rategrid.NewRateRowDeletedEvent(row))
	return shared.PublishAndClear(ctx, s.eventPublisher, row)
}

// ListRows returns every cell of a class grid
func (s *RateGridService) ListRows(ctx context.Context, tenantID uuid.UUID, class string) ([]RateRowResponse, error) {
	c := vehicle.Class(class)
	if !c.IsValid() {
		return nil, shared.NewDomainError("INVALID_CLASS", "Unsupported vehicle class")
	}
	rows, err := s.rowRepo.FindByClass(ctx, tenantID, c)
	if err != nil {
		return nil, err
	}
	return lo.Map(rows, func(r rategrid.RateRow, _ int) RateRowResponse {
		return ToRateRowResponse(&r)
	}), nil
}

// FindRow returns the cell at an exact key
func (s *RateGridService) FindRow(ctx context.Context, tenantID uuid.UUID, query FindRateRowQuery) (*RateRowResponse, error) {
	key := rategrid.Key{
		Class:    vehicle.Class(query.Class),
		Duration: rategrid.DurationBucket(query.DurationMonths),
		Bucket:   rategrid.AttributeBucket(query.Bucket),
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}
	row, err := s.rowRepo.FindByKey(ctx, tenantID, key)
	if err != nil {
		return nil, err
	}
	response := ToRateRowResponse(row)
	return &response, nil
}

// Layout describes the duration and attribute buckets of a class grid
func (s *RateGridService) Layout(class string) (*GridLayoutResponse, error) {
	c := vehicle.Class(class)
	if !c.IsValid() {
		return nil, shared.NewDomainError("INVALID_CLASS", "Unsupported vehicle class")
	}
	return &GridLayoutResponse{
		Class: class,
		Durations: lo.Map(rategrid.AllDurationBuckets(), func(d rategrid.DurationBucket, _ int) int {
			return d.Months()
		}),
		Buckets: lo.Map(rategrid.BucketsFor(c), func(b rategrid.AttributeBucket, _ int) string {
			return string(b)
		}),
	}, nil
}

type importLine struct {
	key        rategrid.Key
	components rategrid.Components
}

// ImportCSV upserts grid cells from a CSV file. The file is applied only if
// every row is valid; otherwise the row errors are returned and nothing is
// written. Empty component cells count as zero.
func (s *RateGridService) ImportCSV(ctx context.Context, tenantID uuid.UUID, r io.Reader) (*ImportResult, error) {
	reader, err := csvimport.NewReader(r)
	if err != nil {
		return nil, importError(err)
	}
	if err := reader.ReadHeader(); err != nil {
		return nil, importError(err)
	}
	if missing := reader.Missing(RequiredImportHeaders()); len(missing) > 0 {
		return nil, shared.NewDomainError("IMPORT_MISSING_COLUMNS", fmt.Sprintf("Missing columns: %v", missing))
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, importError(err)
	}
	if len(rows) == 0 {
		return nil, importError(csvimport.ErrNoDataRows)
	}

	result := &ImportResult{Encoding: reader.Encoding(), TotalRows: len(rows)}
	validator := csvimport.NewValidator(importRules(), maxImportErrors)
	errs := validator.Errors()

	lines := make([]importLine, 0, len(rows))
	seen := make(map[rategrid.Key]int, len(rows))
	for _, row := range rows {
		if !validator.Validate(row) {
			continue
		}
		line, rowErr := toImportLine(row)
		if rowErr != nil {
			errs.Add(*rowErr)
			continue
		}
		if first, dup := seen[line.key]; dup {
			errs.Add(csvimport.NewRowError(row.Line, "", csvimport.ErrCodeImportDuplicateInFile,
				fmt.Sprintf("grid cell already defined on row %d", first)))
			continue
		}
		seen[line.key] = row.Line
		lines = append(lines, line)
	}

	if !errs.Empty() {
		result.Errors = errs.List()
		result.TotalErrors = errs.Total()
		result.IsTruncated = errs.Truncated()
		return result, nil
	}

	existing := make(map[rategrid.Key]*rategrid.RateRow)
	classes := lo.Uniq(lo.Map(lines, func(l importLine, _ int) vehicle.Class { return l.key.Class }))
	for _, class := range classes {
		current, err := s.rowRepo.FindByClass(ctx, tenantID, class)
		if err != nil {
			return nil, err
		}
		for i := range current {
			existing[current[i].Key] = &current[i]
		}
	}

	batch := make([]*rategrid.RateRow, 0, len(lines))
	for _, l := range lines {
		if row, ok := existing[l.key]; ok {
			changed, err := row.ReplaceComponents(l.components)
			if err != nil {
				return nil, err
			}
			if !changed {
				result.Unchanged++
				continue
			}
			result.Updated++
			batch = append(batch, row)
			continue
		}
		row, err := rategrid.NewRateRow(tenantID, l.key, l.components)
		if err != nil {
			return nil, err
		}
		result.Created++
		batch = append(batch, row)
	}

	if len(batch) > 0 {
		if err := s.rowRepo.SaveBatch(ctx, batch); err != nil {
			return nil, err
		}
	}
	for _, row := range batch {
		if err := shared.PublishAndClear(ctx, s.eventPublisher, row); err != nil {
			return nil, err
		}
	}

	s.logger.Info("rate grid imported",
		zap.String("tenant_id", tenantID.String()),
		zap.String("encoding", result.Encoding),
		zap.Int("rows", result.TotalRows),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("unchanged", result.Unchanged),
	)
	return result, nil
}

func importRules() []csvimport.FieldRule {
	rules := []csvimport.FieldRule{
		csvimport.Field(ColumnClass).Required().Custom(func(v string) error {
			if !vehicle.Class(v).IsValid() {
				return fmt.Errorf("unsupported vehicle class %q", v)
			}
			return nil
		}),
		csvimport.Field(ColumnDurationMonths).Required().Int().Custom(func(v string) error {
			_, err := rategrid.ParseDurationBucket(v)
			return err
		}),
		csvimport.Field(ColumnBucket).Required(),
	}
	for _, col := range componentColumns {
		rules = append(rules, csvimport.Field(col).Decimal().AtLeast(decimal.Zero))
	}
	return rules
}

// toImportLine converts a row that passed the column rules
func toImportLine(row *csvimport.Row) (importLine, *csvimport.RowError) {
	duration, _ := rategrid.ParseDurationBucket(row.Get(ColumnDurationMonths))
	key := rategrid.Key{
		Class:    vehicle.Class(row.Get(ColumnClass)),
		Duration: duration,
		Bucket:   rategrid.AttributeBucket(row.Get(ColumnBucket)),
	}
	if !key.Bucket.ValidFor(key.Class) {
		e := csvimport.NewRowError(row.Line, ColumnBucket, csvimport.ErrCodeImportValidation,
			fmt.Sprintf("bucket %q does not belong to class %s", key.Bucket, key.Class))
		return importLine{}, &e
	}

	amounts := make([]decimal.Decimal, len(componentColumns))
	for i, col := range componentColumns {
		if v := row.Get(col); v != "" {
			amounts[i], _ = decimal.NewFromString(v)
		}
	}
	return importLine{
		key:        key,
		components: rategrid.Components{
			CivilLiability:   amounts[0],
			DefenceRecourse:  amounts[1],
			Passenger:        amounts[2],
			DriverIndividual: amounts[3],
			RecourseAdvance:  amounts[4],
			Fire:             amounts[5],
			Theft:            amounts[6],
			GlassBreakage:    amounts[7],
		},
	}, nil
}

func importError(err error) error {
	var rowErr csvimport.RowError
	if errors.As(err, &rowErr) {
		return shared.NewDomainError("IMPORT_MALFORMED_FILE", rowErr.Error())
	}
	switch {
	case errors.Is(err, csvimport.ErrEmptyFile), errors.Is(err, csvimport.ErrNoDataRows):
		return shared.NewDomainError("IMPORT_EMPTY_FILE", err.Error())
	case errors.Is(err, csvimport.ErrMissingHeader):
		return shared.NewDomainError("IMPORT_MISSING_COLUMNS", err.Error())
	}
	return shared.NewDomainError("IMPORT_MALFORMED_FILE", err.Error())
}
