package pricing

import (
	"context"
	"errors"

	"github.com/courtage/backend/internal/domain/rategrid"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateLookup finds the grid row for a key. It returns shared.ErrNotFound for empty cells.
type RateLookup interface {
	FindByKey(ctx context.Context, tenantID uuid.UUID, key rategrid.Key) (*rategrid.RateRow, error)
}

// Subject describes what is being priced.
type Subject struct {
	Class          vehicle.Class
	Attribute      decimal.Decimal
	DurationMonths int
}

// SubjectFor builds the pricing subject of a vehicle for a duration.
func SubjectFor(v *vehicle.Vehicle, durationMonths int) Subject {
	return Subject{
		Class:          v.Class,
		Attribute:      v.DefiningAttribute(),
		DurationMonths: durationMonths,
	}
}

// ResolveKey classifies the subject into a grid key.
func ResolveKey(s Subject) (rategrid.Key, bool) {
	duration, ok := rategrid.ClassifyDuration(s.DurationMonths)
	if !ok {
		return rategrid.Key{}, false
	}
	bucket, ok := rategrid.ClassifyAttribute(s.Class, s.Attribute)
	if !ok {
		return rategrid.Key{}, false
	}
	return rategrid.Key{Class: s.Class, Duration: duration, Bucket: bucket}, true
}

// Result is the outcome of a quote. Found is false when no grid row applies.
type Result struct {
	Key       rategrid.Key
	Found     bool
	Breakdown Breakdown
}

// Engine quotes premiums against the tenant's rate grids.
type Engine struct {
	rates RateLookup
}

// NewEngine creates a pricing engine
func NewEngine(rates RateLookup) *Engine {
	return &Engine{rates: rates}
}

// Quote prices subject with the given inputs. Invalid inputs are errors;
// an unclassifiable subject or an empty grid cell yields Found=false.
func (e *Engine) Quote(ctx context.Context, tenantID uuid.UUID, subject Subject, in Inputs) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	key, ok := ResolveKey(subject)
	if !ok {
		return Result{}, nil
	}

	row, err := e.rates.FindByKey(ctx, tenantID, key)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Result{Key: key}, nil
		}
		return Result{}, err
	}

	breakdown, err := Calculate(row.Components, in)
	if err != nil {
		return Result{}, err
	}
	return Result{Key: key, Found: true, Breakdown: breakdown}, nil
}
