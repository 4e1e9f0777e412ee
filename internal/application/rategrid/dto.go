package rategrid

import (
	"time"

	"github.com/courtage/backend/internal/domain/rategrid"
	"github.com/courtage/backend/internal/domain/vehicle"
	csvimport "github.com/courtage/backend/internal/infrastructure/import"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UpsertRateRowRequest sets the premiums of one grid cell
type UpsertRateRowRequest struct {
	Class          string              `json:"class" binding:"required,oneof=VP TPC TPM TWO_WHEELER"`
	DurationMonths int                 `json:"duration_months" binding:"required,oneof=1 2 3 6 12"`
	Bucket         string              `json:"bucket" binding:"required"`
	Components     rategrid.Components `json:"components"`
}

// Key returns the grid key addressed by the request
func (r UpsertRateRowRequest) Key() rategrid.Key {
	return rategrid.Key{
		Class:    vehicle.Class(r.Class),
		Duration: rategrid.DurationBucket(r.DurationMonths),
		Bucket:   rategrid.AttributeBucket(r.Bucket),
	}
}

// FindRateRowQuery addresses a grid cell by its key
type FindRateRowQuery struct {
	Class          string `form:"class" binding:"required"`
	DurationMonths int    `form:"duration_months" binding:"required"`
	Bucket         string `form:"bucket" binding:"required"`
}

// RateRowResponse represents a grid cell in API responses
type RateRowResponse struct {
	ID             uuid.UUID           `json:"id"`
	Class          string              `json:"class"`
	DurationMonths int                 `json:"duration_months"`
	Bucket         string              `json:"bucket"`
	Components     rategrid.Components `json:"components"`
	BasePremium    decimal.Decimal     `json:"base_premium"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Version        int                 `json:"version"`
}

// GridLayoutResponse lists the buckets a class grid is made of
type GridLayoutResponse struct {
	Class     string   `json:"class"`
	Durations []int    `json:"durations"`
	Buckets   []string `json:"buckets"`
}

// ImportResult summarizes a CSV import
type ImportResult struct {
	Encoding    string               `json:"encoding"`
	TotalRows   int                  `json:"total_rows"`
	Created     int                  `json:"created"`
	Updated     int                  `json:"updated"`
	Unchanged   int                  `json:"unchanged"`
	Errors      []csvimport.RowError `json:"errors,omitempty"`
	TotalErrors int                  `json:"total_errors,omitempty"`
	IsTruncated bool                 `json:"is_truncated,omitempty"`
}

// Applied reports whether the import was written
func (r *ImportResult) Applied() bool {
	return r.TotalErrors == 0
}

// ToRateRowResponse converts a domain RateRow to RateRowResponse
func ToRateRowResponse(r *rategrid.RateRow) RateRowResponse {
	return RateRowResponse{
		ID:             r.ID,
		Class:          string(r.Class),
		DurationMonths: r.Duration.Months(),
		Bucket:         string(r.Bucket),
		Components:     r.Components,
		BasePremium:    r.BasePremium(),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		Version:        r.Version,
	}
}
