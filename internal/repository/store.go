package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sqlc-dev/pqtype"

	"github.com/karkyon/dump-tracker-system-sub000/internal/domain"
)

// PostgreSQL error codes the store translates.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// oneInProgressIndex is the partial unique index that allows a single
// IN_PROGRESS record per vehicle.
const oneInProgressIndex = "idx_inspection_records_one_in_progress"

const msgInspectionInProgress = "vehicle already has an inspection in progress"

// Store implements the persistence interfaces of the service and subscriber
// packages on top of PostgreSQL.
type Store struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

// NewStore creates a Store over an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(s.queries.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// pgConstraint returns the constraint a unique violation tripped, or "".
func pgConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName
	}
	return ""
}

// =============================================================================
// Inspection Records
// =============================================================================

// CreateInspectionRecord inserts a new record.
func (s *Store) CreateInspectionRecord(ctx context.Context, rec *domain.InspectionRecord) error {
	const op = "repository.create_inspection_record"

	location, err := encodeLocation(rec.Location)
	if err != nil {
		return domain.Internal(err, op, "failed to encode location")
	}

	err = s.queries.CreateInspectionRecord(ctx, CreateInspectionRecordParams{
		ID:             rec.ID,
		VehicleID:      rec.VehicleID,
		InspectorID:    rec.InspectorID,
		InspectionType: rec.Type.String(),
		Status:         rec.Status.String(),
		ScheduledAt:    rec.ScheduledAt,
		StartedAt:      nullTime(rec.StartedAt),
		Location:       location,
		Notes:          nullString(rec.Notes),
		CreatedAt:      rec.CreatedAt,
	})
	switch pgErrorCode(err) {
	case "":
	case pgForeignKeyViolation:
		return domain.Errorf(domain.ENOTFOUND, op, "vehicle or inspector no longer exists")
	case pgUniqueViolation:
		if pgConstraint(err) == oneInProgressIndex {
			return domain.Conflict(op, msgInspectionInProgress)
		}
		return domain.Conflict(op, "inspection already exists")
	}
	if err != nil {
		return domain.Internal(err, op, "failed to insert inspection")
	}
	return nil
}

// GetInspectionRecord returns a record by id.
func (s *Store) GetInspectionRecord(ctx context.Context, id uuid.UUID) (*domain.InspectionRecord, error) {
	const op = "repository.get_inspection_record"

	row, err := s.queries.GetInspectionRecord(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "inspection", id.String())
		}
		return nil, domain.Internal(err, op, "failed to get inspection")
	}
	return rowToInspectionRecord(row), nil
}

// StartInspectionRecord moves a SCHEDULED record to IN_PROGRESS.
func (s *Store) StartInspectionRecord(ctx context.Context, id uuid.UUID, startedAt time.Time) (*domain.InspectionRecord, error) {
	const op = "repository.start_inspection_record"

	row, err := s.queries.StartInspectionRecord(ctx, StartInspectionRecordParams{
		ID:        id,
		StartedAt: startedAt,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.transitionLost(ctx, op, id)
		}
		if pgConstraint(err) == oneInProgressIndex {
			return nil, domain.Conflict(op, msgInspectionInProgress)
		}
		return nil, domain.Internal(err, op, "failed to start inspection")
	}
	return rowToInspectionRecord(row), nil
}

// CompleteInspectionRecord writes the item results and completes the record
// in one transaction. The conditional UPDATE runs first, so a concurrent
// completion blocks on the row lock and then matches zero rows.
func (s *Store) CompleteInspectionRecord(ctx context.Context, params domain.CompleteRecordParams) (*domain.InspectionRecord, error) {
	const op = "repository.complete_inspection_record"

	var row InspectionRecord
	err := s.withTx(ctx, func(q *Queries) error {
		var err error
		row, err = q.CompleteInspectionRecord(ctx, CompleteInspectionRecordParams{
			ID:                params.RecordID,
			CompletedAt:       params.CompletedAt,
			OverallResult:     params.OverallResult,
			DefectsFound:      int32(params.DefectsFound),
			CriticalIssues:    int32(params.CriticalIssues),
			NextInspectionDue: params.NextInspectionDue,
		})
		if err != nil {
			return err
		}
		if len(params.Results) == 0 {
			return nil
		}
		return q.InsertItemResults(ctx, itemResultColumns(params))
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.transitionLost(ctx, op, params.RecordID)
		}
		if pgErrorCode(err) == pgUniqueViolation {
			return nil, domain.Invalid(op, "duplicate inspection item in results")
		}
		return nil, domain.Internal(err, op, "failed to complete inspection")
	}
	return rowToInspectionRecord(row), nil
}

// transitionLost explains why a conditional update matched no rows.
func (s *Store) transitionLost(ctx context.Context, op string, id uuid.UUID) error {
	current, err := s.queries.GetInspectionRecord(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "inspection", id.String())
		}
		return domain.Internal(err, op, "failed to get inspection")
	}
	return domain.Errorf(domain.ECONFLICT, op, "inspection is %s", current.Status)
}

// ListInspectionRecords returns one page of records.
func (s *Store) ListInspectionRecords(ctx context.Context, params domain.ListInspectionsParams) ([]domain.InspectionRecord, error) {
	const op = "repository.list_inspection_records"

	params = params.Normalize()
	rows, err := s.queries.ListInspectionRecords(ctx, ListInspectionRecordsParams{
		Filter:    toRecordFilter(params.Filter),
		SortField: params.SortField,
		Ascending: params.SortDir == domain.SortAsc,
		Limit:     int32(params.PageSize),
		Offset:    int32(params.Offset()),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list inspections")
	}

	records := make([]domain.InspectionRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, *rowToInspectionRecord(row))
	}
	return records, nil
}

// CountInspectionRecords counts records matching the filter.
func (s *Store) CountInspectionRecords(ctx context.Context, filter domain.InspectionFilter) (int64, error) {
	const op = "repository.count_inspection_records"

	count, err := s.queries.CountInspectionRecords(ctx, toRecordFilter(filter))
	if err != nil {
		return 0, domain.Internal(err, op, "failed to count inspections")
	}
	return count, nil
}

// ListItemResults returns the item results of a record.
func (s *Store) ListItemResults(ctx context.Context, recordID uuid.UUID) ([]domain.InspectionItemResult, error) {
	const op = "repository.list_item_results"

	rows, err := s.queries.ListItemResultsByRecord(ctx, recordID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list item results")
	}

	results := make([]domain.InspectionItemResult, 0, len(rows))
	for _, row := range rows {
		res := domain.InspectionItemResult{
			ID:                 row.ID,
			InspectionRecordID: row.InspectionRecordID,
			InspectionItemID:   row.InspectionItemID,
			IsPassed:           row.IsPassed,
			Notes:              row.Notes.String,
			CreatedAt:          row.CreatedAt,
		}
		if row.Severity.Valid {
			sev := domain.Severity(row.Severity.String)
			res.Severity = &sev
		}
		results = append(results, res)
	}
	return results, nil
}

// =============================================================================
// Vehicles and Users
// =============================================================================

// GetVehicle returns a vehicle by id.
func (s *Store) GetVehicle(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	const op = "repository.get_vehicle"

	row, err := s.queries.GetVehicle(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "vehicle", id.String())
		}
		return nil, domain.Internal(err, op, "failed to get vehicle")
	}
	return &domain.Vehicle{
		ID:          row.ID,
		PlateNumber: row.PlateNumber,
		Status:      domain.VehicleStatus(row.Status),
	}, nil
}

// CreateVehicle registers a vehicle.
func (s *Store) CreateVehicle(ctx context.Context, v *domain.Vehicle) error {
	const op = "repository.create_vehicle"

	err := s.queries.CreateVehicle(ctx, CreateVehicleParams{
		ID:          v.ID,
		PlateNumber: v.PlateNumber,
		Status:      v.Status.String(),
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return domain.Conflict(op, "plate number already registered")
		}
		return domain.Internal(err, op, "failed to create vehicle")
	}
	return nil
}

// UpdateVehicleStatus overwrites the operational status of a vehicle.
func (s *Store) UpdateVehicleStatus(ctx context.Context, id uuid.UUID, status domain.VehicleStatus) error {
	const op = "repository.update_vehicle_status"

	n, err := s.queries.UpdateVehicleStatus(ctx, UpdateVehicleStatusParams{
		ID:        id,
		Status:    status.String(),
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return domain.Internal(err, op, "failed to update vehicle status")
	}
	if n == 0 {
		return domain.NotFound(op, "vehicle", id.String())
	}
	return nil
}

// GetUser returns a user by id.
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const op = "repository.get_user"

	row, err := s.queries.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "user", id.String())
		}
		return nil, domain.Internal(err, op, "failed to get user")
	}
	return &domain.User{ID: row.ID, Name: row.Name, Email: row.Email}, nil
}

// CreateUser registers a user.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	const op = "repository.create_user"

	err := s.queries.CreateUser(ctx, CreateUserParams{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return domain.Conflict(op, "email already registered")
		}
		return domain.Internal(err, op, "failed to create user")
	}
	return nil
}

// =============================================================================
// Alerts and Events
// =============================================================================

// RecordMaintenanceAlert stores an alert unless one already exists for the
// same inspection and vehicle. It reports whether a new alert was stored.
func (s *Store) RecordMaintenanceAlert(ctx context.Context, alert domain.MaintenanceAlert) (bool, error) {
	const op = "repository.record_maintenance_alert"

	n, err := s.queries.InsertMaintenanceAlert(ctx, InsertMaintenanceAlertParams{
		ID:           alert.ID,
		InspectionID: alert.InspectionID,
		VehicleID:    alert.VehicleID,
		Severity:     alert.Severity.String(),
		IssueCount:   int32(alert.IssueCount),
		CreatedAt:    alert.CreatedAt,
	})
	if err != nil {
		return false, domain.Internal(err, op, "failed to record maintenance alert")
	}
	return n > 0, nil
}

// AppendEvent writes an event to the journal. Replays of the same event id
// are ignored.
func (s *Store) AppendEvent(ctx context.Context, e domain.StoredEvent) error {
	const op = "repository.append_event"

	actor := uuid.NullUUID{UUID: e.ActorID, Valid: e.ActorID != uuid.Nil}
	err := s.queries.InsertDomainEvent(ctx, InsertDomainEventParams{
		ID:         e.ID,
		Kind:       e.Kind.String(),
		ActorID:    actor,
		OccurredAt: e.OccurredAt,
		Payload:    pqtype.NullRawMessage{RawMessage: e.Payload, Valid: len(e.Payload) > 0},
	})
	if err != nil {
		return domain.Internal(err, op, "failed to append event")
	}
	return nil
}

// ListEvents returns the newest journal entries first.
func (s *Store) ListEvents(ctx context.Context, params domain.ListEventsParams) ([]domain.StoredEvent, error) {
	const op = "repository.list_events"

	params = params.Normalize()
	arg := ListDomainEventsParams{Limit: int32(params.Limit)}
	if params.Kind != nil {
		arg.Kind = sql.NullString{String: params.Kind.String(), Valid: true}
	}

	rows, err := s.queries.ListDomainEvents(ctx, arg)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list events")
	}

	events := make([]domain.StoredEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, domain.StoredEvent{
			ID:         row.ID,
			Kind:       domain.EventKind(row.Kind),
			ActorID:    row.ActorID.UUID,
			OccurredAt: row.OccurredAt,
			Payload:    row.Payload.RawMessage,
		})
	}
	return events, nil
}

// =============================================================================
// Conversions
// =============================================================================

func rowToInspectionRecord(row InspectionRecord) *domain.InspectionRecord {
	rec := &domain.InspectionRecord{
		ID:             row.ID,
		VehicleID:      row.VehicleID,
		InspectorID:    row.InspectorID,
		Type:           domain.InspectionType(row.InspectionType),
		Status:         domain.InspectionStatus(row.Status),
		ScheduledAt:    row.ScheduledAt,
		DefectsFound:   int(row.DefectsFound),
		CriticalIssues: int(row.CriticalIssues),
		Notes:          row.Notes.String,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
	if row.StartedAt.Valid {
		rec.StartedAt = &row.StartedAt.Time
	}
	if row.CompletedAt.Valid {
		rec.CompletedAt = &row.CompletedAt.Time
	}
	if row.OverallResult.Valid {
		rec.OverallResult = &row.OverallResult.Bool
	}
	if row.NextInspectionDue.Valid {
		rec.NextInspectionDue = &row.NextInspectionDue.Time
	}
	if row.Location.Valid {
		var loc domain.Location
		if err := json.Unmarshal(row.Location.RawMessage, &loc); err == nil {
			rec.Location = &loc
		}
	}
	return rec
}

func itemResultColumns(params domain.CompleteRecordParams) InsertItemResultsParams {
	n := len(params.Results)
	arg := InsertItemResultsParams{
		InspectionRecordID: params.RecordID,
		CreatedAt:          params.CompletedAt,
		IDs:                make([]string, 0, n),
		ItemIDs:            make([]string, 0, n),
		Passed:             make([]bool, 0, n),
		Severities:         make([]string, 0, n),
		Notes:              make([]string, 0, n),
	}
	for _, res := range params.Results {
		sev := ""
		if res.Severity != nil {
			sev = res.Severity.String()
		}
		arg.IDs = append(arg.IDs, res.ID.String())
		arg.ItemIDs = append(arg.ItemIDs, res.InspectionItemID.String())
		arg.Passed = append(arg.Passed, res.IsPassed)
		arg.Severities = append(arg.Severities, sev)
		arg.Notes = append(arg.Notes, res.Notes)
	}
	return arg
}

func toRecordFilter(f domain.InspectionFilter) InspectionRecordFilter {
	var out InspectionRecordFilter
	if f.VehicleID != nil {
		out.VehicleID = uuid.NullUUID{UUID: *f.VehicleID, Valid: true}
	}
	if f.InspectorID != nil {
		out.InspectorID = uuid.NullUUID{UUID: *f.InspectorID, Valid: true}
	}
	if f.Type != nil {
		out.InspectionType = sql.NullString{String: f.Type.String(), Valid: true}
	}
	if f.Status != nil {
		out.Status = sql.NullString{String: f.Status.String(), Valid: true}
	}
	out.From = nullTime(f.From)
	out.To = nullTime(f.To)
	return out
}

func encodeLocation(loc *domain.Location) (pqtype.NullRawMessage, error) {
	if loc == nil {
		return pqtype.NullRawMessage{}, nil
	}
	b, err := json.Marshal(loc)
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	return pqtype.NullRawMessage{RawMessage: b, Valid: true}, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
