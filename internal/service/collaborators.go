// Package service contains the business logic layer.
//
// The inspection workflow engine and the statistics aggregator live here.
// Both reach persistence and master data only through the collaborator
// interfaces below, and the workflow reaches the rest of the system only by
// publishing domain events. Nothing in this package imports the vehicle side.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/karkyon/dump-tracker-system-sub000/internal/domain"
)

// =============================================================================
// Collaborator Interfaces
// =============================================================================

// InspectionStore persists inspection records and item results.
//
// Implementations return domain.ENOTFOUND for unknown records and
// domain.ECONFLICT when a conditional transition loses to a concurrent one.
//
// A vehicle holds at most one IN_PROGRESS record. CreateInspectionRecord and
// StartInspectionRecord return domain.ECONFLICT rather than open a second one.
type InspectionStore interface {
	CreateInspectionRecord(ctx context.Context, rec *domain.InspectionRecord) error
	GetInspectionRecord(ctx context.Context, id uuid.UUID) (*domain.InspectionRecord, error)

	// StartInspectionRecord moves a SCHEDULED record to IN_PROGRESS.
	StartInspectionRecord(ctx context.Context, id uuid.UUID, startedAt time.Time) (*domain.InspectionRecord, error)

	// CompleteInspectionRecord writes the item results and moves the record
	// to COMPLETED in one atomic step. A record that is already completed
	// yields domain.ECONFLICT and nothing is written.
	CompleteInspectionRecord(ctx context.Context, params domain.CompleteRecordParams) (*domain.InspectionRecord, error)

	ListInspectionRecords(ctx context.Context, params domain.ListInspectionsParams) ([]domain.InspectionRecord, error)
	CountInspectionRecords(ctx context.Context, filter domain.InspectionFilter) (int64, error)
	ListItemResults(ctx context.Context, recordID uuid.UUID) ([]domain.InspectionItemResult, error)
}

// VehicleLookup reads vehicle master data.
// Unknown ids return domain.ENOTFOUND.
type VehicleLookup interface {
	GetVehicle(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error)
}

// UserLookup reads user master data.
// Unknown ids return domain.ENOTFOUND.
type UserLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// =============================================================================
// Options
// =============================================================================

type options struct {
	now       func() time.Time
	trendDays int
}

// Option customizes a service.
type Option func(*options)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithTrendDays sets the trailing window of the statistics trend series.
func WithTrendDays(days int) Option {
	return func(o *options) {
		if days > 0 {
			o.trendDays = days
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		now:       time.Now,
		trendDays: DefaultTrendDays,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// =============================================================================
// Error Translation
// =============================================================================

// lookupError converts a collaborator lookup failure into a domain error.
func lookupError(op, resource string, id uuid.UUID, err error) error {
	if domain.IsNotFound(err) {
		return domain.NotFound(op, resource, id.String())
	}
	return domain.Internal(err, op, "failed to get "+resource)
}

// storeError keeps not-found and conflict errors from the store and wraps
// everything else as internal.
func storeError(op, message string, err error) error {
	switch domain.ErrorCode(err) {
	case domain.ENOTFOUND, domain.ECONFLICT:
		return err
	}
	return domain.Internal(err, op, message)
}
