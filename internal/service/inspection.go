package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/karkyon/dump-tracker-system-sub000/internal/domain"
	"github.com/karkyon/dump-tracker-system-sub000/internal/event"
	"github.com/karkyon/dump-tracker-system-sub000/internal/metrics"
)

// =============================================================================
// Interface Definition
// =============================================================================

// InspectionService drives inspection records through
// SCHEDULED -> IN_PROGRESS -> COMPLETED and publishes the resulting events.
//
// It never writes vehicle status. Status decisions leave this service as
// vehicle.status.changed events and are applied by whoever subscribes.
type InspectionService interface {
	// Start creates an IN_PROGRESS record and announces the vehicle is in
	// inspection.
	// Returns domain.EINVALID for malformed input.
	// Returns domain.ENOTFOUND if the vehicle or inspector does not exist.
	// Returns domain.ECONFLICT if the vehicle is retired.
	Start(ctx context.Context, params domain.StartInspectionParams) (*domain.InspectionRecord, error)

	// Schedule creates a SCHEDULED record for a future inspection.
	// No events are published until the inspection is started.
	Schedule(ctx context.Context, params domain.StartInspectionParams) (*domain.InspectionRecord, error)

	// StartScheduled moves a SCHEDULED record to IN_PROGRESS.
	// Returns domain.ECONFLICT if the record is not SCHEDULED or the vehicle
	// has been retired in the meantime.
	StartScheduled(ctx context.Context, params domain.StartScheduledParams) (*domain.InspectionRecord, error)

	// Complete submits item results and finalizes the record.
	// Returns domain.EINVALID for malformed item results.
	// Returns domain.ENOTFOUND if the record does not exist.
	// Returns domain.ECONFLICT if the record is already completed or was
	// never started.
	Complete(ctx context.Context, params domain.CompleteInspectionParams) (*domain.InspectionRecord, error)

	// Get returns a record with its item results.
	Get(ctx context.Context, id uuid.UUID) (*domain.InspectionDetail, error)

	// List returns a page of records and the total matching count.
	List(ctx context.Context, params domain.ListInspectionsParams) (*domain.ListInspectionsResult, error)
}

// =============================================================================
// Implementation
// =============================================================================

type inspectionService struct {
	store     InspectionStore
	vehicles  VehicleLookup
	users     UserLookup
	publisher event.Publisher
	validate  *validator.Validate
	now       func() time.Time
	logger    *slog.Logger
}

// NewInspectionService creates a new InspectionService.
//
// Example usage:
//
//	bus := event.New(logger)
//	inspections := service.NewInspectionService(repo, repo, repo, bus, logger)
func NewInspectionService(
	store InspectionStore,
	vehicles VehicleLookup,
	users UserLookup,
	publisher event.Publisher,
	logger *slog.Logger,
	opts ...Option,
) InspectionService {
	o := buildOptions(opts)
	return &inspectionService{
		store:     store,
		vehicles:  vehicles,
		users:     users,
		publisher: publisher,
		validate:  newValidator(),
		now:       o.now,
		logger:    logger,
	}
}

// =============================================================================
// Start / Schedule
// =============================================================================

// Start creates an IN_PROGRESS record.
func (s *inspectionService) Start(ctx context.Context, params domain.StartInspectionParams) (*domain.InspectionRecord, error) {
	const op = "inspection.start"

	vehicle, err := s.checkPreconditions(ctx, op, params)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rec := newRecord(params, now)
	rec.Status = domain.InspectionStatusInProgress
	rec.StartedAt = &now

	// Past this point the caller going away must not split the record
	// from its event. The store rejects a second IN_PROGRESS record for
	// the same vehicle with ECONFLICT.
	ctx = context.WithoutCancel(ctx)

	if err := s.store.CreateInspectionRecord(ctx, rec); err != nil {
		return nil, storeError(op, "failed to create inspection", err)
	}

	s.publisher.Publish(ctx, domain.VehicleStatusChanged{
		EventMeta:    domain.NewEventMeta(params.ActorID, now),
		VehicleID:    vehicle.ID,
		InspectionID: rec.ID,
		OldStatus:    vehicle.Status,
		NewStatus:    domain.VehicleStatusInInspection,
	})

	s.logger.Info("inspection started",
		"inspection_id", rec.ID,
		"vehicle_id", rec.VehicleID,
		"inspector_id", rec.InspectorID,
		"type", rec.Type,
	)
	metrics.InspectionStarted(rec.Type)

	return rec, nil
}

// Schedule creates a SCHEDULED record.
func (s *inspectionService) Schedule(ctx context.Context, params domain.StartInspectionParams) (*domain.InspectionRecord, error) {
	const op = "inspection.schedule"

	if params.ScheduledAt == nil {
		return nil, domain.NewValidationError(op, "ScheduledAt", "is required")
	}
	if _, err := s.checkPreconditions(ctx, op, params); err != nil {
		return nil, err
	}

	rec := newRecord(params, s.now().UTC())
	rec.Status = domain.InspectionStatusScheduled

	if err := s.store.CreateInspectionRecord(ctx, rec); err != nil {
		return nil, storeError(op, "failed to create inspection", err)
	}

	s.logger.Info("inspection scheduled",
		"inspection_id", rec.ID,
		"vehicle_id", rec.VehicleID,
		"scheduled_at", rec.ScheduledAt,
	)

	return rec, nil
}

// StartScheduled moves a SCHEDULED record to IN_PROGRESS.
func (s *inspectionService) StartScheduled(ctx context.Context, params domain.StartScheduledParams) (*domain.InspectionRecord, error) {
	const op = "inspection.start_scheduled"

	if err := validateStruct(s.validate, op, params); err != nil {
		return nil, err
	}

	existing, err := s.store.GetInspectionRecord(ctx, params.RecordID)
	if err != nil {
		return nil, storeError(op, "failed to get inspection", err)
	}
	if !existing.Status.CanTransitionTo(domain.InspectionStatusInProgress) {
		return nil, domain.Conflict(op, "inspection is "+existing.Status.String()+", not SCHEDULED")
	}

	vehicle, err := s.vehicles.GetVehicle(ctx, existing.VehicleID)
	if err != nil {
		return nil, lookupError(op, "vehicle", existing.VehicleID, err)
	}
	if !vehicle.CanBeInspected() {
		return nil, domain.Conflict(op, "vehicle is retired")
	}

	now := s.now().UTC()
	ctx = context.WithoutCancel(ctx)

	rec, err := s.store.StartInspectionRecord(ctx, existing.ID, now)
	if err != nil {
		return nil, storeError(op, "failed to start inspection", err)
	}

	s.publisher.Publish(ctx, domain.VehicleStatusChanged{
		EventMeta:    domain.NewEventMeta(params.ActorID, now),
		VehicleID:    vehicle.ID,
		InspectionID: rec.ID,
		OldStatus:    vehicle.Status,
		NewStatus:    domain.VehicleStatusInInspection,
	})

	s.logger.Info("scheduled inspection started",
		"inspection_id", rec.ID,
		"vehicle_id", rec.VehicleID,
	)
	metrics.InspectionStarted(rec.Type)

	return rec, nil
}

// checkPreconditions validates input and resolves the vehicle and inspector.
func (s *inspectionService) checkPreconditions(ctx context.Context, op string, params domain.StartInspectionParams) (*domain.Vehicle, error) {
	if err := validateStruct(s.validate, op, params); err != nil {
		return nil, err
	}

	vehicle, err := s.vehicles.GetVehicle(ctx, params.VehicleID)
	if err != nil {
		return nil, lookupError(op, "vehicle", params.VehicleID, err)
	}
	if !vehicle.CanBeInspected() {
		return nil, domain.Conflict(op, "vehicle is retired")
	}

	if _, err := s.users.GetUser(ctx, params.InspectorID); err != nil {
		return nil, lookupError(op, "inspector", params.InspectorID, err)
	}

	return vehicle, nil
}

func newRecord(params domain.StartInspectionParams, now time.Time) *domain.InspectionRecord {
	scheduledAt := now
	if params.ScheduledAt != nil {
		scheduledAt = params.ScheduledAt.UTC()
	}
	return &domain.InspectionRecord{
		ID:          uuid.New(),
		VehicleID:   params.VehicleID,
		InspectorID: params.InspectorID,
		Type:        params.Type,
		ScheduledAt: scheduledAt,
		Location:    params.Location,
		Notes:       params.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// =============================================================================
// Complete
// =============================================================================

// Complete submits item results and finalizes the record.
func (s *inspectionService) Complete(ctx context.Context, params domain.CompleteInspectionParams) (*domain.InspectionRecord, error) {
	const op = "inspection.complete"

	if err := s.validateCompleteParams(op, params); err != nil {
		return nil, err
	}

	existing, err := s.store.GetInspectionRecord(ctx, params.RecordID)
	if err != nil {
		return nil, storeError(op, "failed to get inspection", err)
	}
	if existing.IsCompleted() {
		return nil, domain.Conflict(op, "inspection is already completed")
	}
	if !existing.Status.CanTransitionTo(domain.InspectionStatusCompleted) {
		return nil, domain.Conflict(op, "inspection has not been started")
	}

	// The old status travels on the event; the vehicle itself is not touched.
	vehicle, err := s.vehicles.GetVehicle(ctx, existing.VehicleID)
	if err != nil {
		return nil, lookupError(op, "vehicle", existing.VehicleID, err)
	}

	completedAt := s.now().UTC()
	if existing.StartedAt != nil && completedAt.Before(*existing.StartedAt) {
		completedAt = *existing.StartedAt
	}

	results := make([]domain.InspectionItemResult, 0, len(params.Results))
	for _, in := range params.Results {
		results = append(results, domain.InspectionItemResult{
			ID:                 uuid.New(),
			InspectionRecordID: existing.ID,
			InspectionItemID:   in.InspectionItemID,
			IsPassed:           in.IsPassed,
			Severity:           in.Severity,
			Notes:              in.Notes,
			CreatedAt:          completedAt,
		})
	}
	outcome := domain.EvaluateItemResults(results)

	ctx = context.WithoutCancel(ctx)

	// The store re-checks the status inside its transaction, so a concurrent
	// completion that passed the check above still ends in ECONFLICT here.
	rec, err := s.store.CompleteInspectionRecord(ctx, domain.CompleteRecordParams{
		RecordID:          existing.ID,
		Results:           results,
		DefectsFound:      outcome.DefectsFound,
		CriticalIssues:    outcome.CriticalIssues,
		OverallResult:     outcome.Passed,
		CompletedAt:       completedAt,
		NextInspectionDue: domain.NextInspectionDue(existing.Type, completedAt),
	})
	if err != nil {
		return nil, storeError(op, "failed to complete inspection", err)
	}

	s.publishCompletion(ctx, params.ActorID, rec, vehicle.Status, outcome)

	s.logger.Info("inspection completed",
		"inspection_id", rec.ID,
		"vehicle_id", rec.VehicleID,
		"passed", outcome.Passed,
		"defects_found", outcome.DefectsFound,
		"critical_issues", outcome.CriticalIssues,
	)
	metrics.InspectionCompleted(rec.Type, outcome)

	return rec, nil
}

// publishCompletion announces a completed inspection. The order is fixed:
// inspection.completed, vehicle.status.changed, then maintenance.required.
func (s *inspectionService) publishCompletion(
	ctx context.Context,
	actorID uuid.UUID,
	rec *domain.InspectionRecord,
	oldStatus domain.VehicleStatus,
	outcome domain.InspectionOutcome,
) {
	at := *rec.CompletedAt

	s.publisher.Publish(ctx, domain.InspectionCompleted{
		EventMeta:      domain.NewEventMeta(actorID, at),
		RecordID:       rec.ID,
		VehicleID:      rec.VehicleID,
		Passed:         outcome.Passed,
		FailedItems:    outcome.DefectsFound,
		CriticalIssues: outcome.CriticalIssues,
	})

	s.publisher.Publish(ctx, domain.VehicleStatusChanged{
		EventMeta:    domain.NewEventMeta(actorID, at),
		VehicleID:    rec.VehicleID,
		InspectionID: rec.ID,
		OldStatus:    oldStatus,
		NewStatus:    outcome.TargetVehicleStatus(),
	})

	if outcome.CriticalIssues > 0 {
		s.publisher.Publish(ctx, domain.MaintenanceRequired{
			EventMeta:    domain.NewEventMeta(actorID, at),
			VehicleID:    rec.VehicleID,
			InspectionID: rec.ID,
			Severity:     outcome.Severity,
			Issues:       outcome.Issues,
		})
	}
}

// validateCompleteParams checks struct tags and rejects duplicate items.
func (s *inspectionService) validateCompleteParams(op string, params domain.CompleteInspectionParams) error {
	if err := validateStruct(s.validate, op, params); err != nil {
		return err
	}

	seen := make(map[uuid.UUID]struct{}, len(params.Results))
	for _, res := range params.Results {
		if _, dup := seen[res.InspectionItemID]; dup {
			return domain.NewValidationError(op, "Results", "must not contain duplicate inspection items")
		}
		seen[res.InspectionItemID] = struct{}{}
	}
	return nil
}

// =============================================================================
// Get / List
// =============================================================================

// Get returns a record with its item results.
func (s *inspectionService) Get(ctx context.Context, id uuid.UUID) (*domain.InspectionDetail, error) {
	const op = "inspection.get"

	rec, err := s.store.GetInspectionRecord(ctx, id)
	if err != nil {
		return nil, storeError(op, "failed to get inspection", err)
	}

	results, err := s.store.ListItemResults(ctx, id)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list item results")
	}

	return &domain.InspectionDetail{Record: *rec, Results: results}, nil
}

// List returns a page of records and the total matching count.
func (s *inspectionService) List(ctx context.Context, params domain.ListInspectionsParams) (*domain.ListInspectionsResult, error) {
	const op = "inspection.list"

	params = params.Normalize()

	total, err := s.store.CountInspectionRecords(ctx, params.Filter)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to count inspections")
	}

	records, err := s.store.ListInspectionRecords(ctx, params)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list inspections")
	}

	return &domain.ListInspectionsResult{
		Records:  records,
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	}, nil
}
