// Package memory is an in-process implementation of the repository Store.
// It backs tests and STORE_DRIVER=memory deployments. Data does not survive
// a restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/karkyon/dump-tracker-system-sub000/internal/domain"
)

type alertKey struct {
	inspectionID uuid.UUID
	vehicleID    uuid.UUID
}

// Store keeps every entity in maps guarded by a single mutex.
type Store struct {
	mu sync.Mutex

	vehicles    map[uuid.UUID]domain.Vehicle
	users       map[uuid.UUID]domain.User
	records     map[uuid.UUID]domain.InspectionRecord
	itemResults map[uuid.UUID][]domain.InspectionItemResult
	alerts      map[alertKey]domain.MaintenanceAlert
	events      []domain.StoredEvent
	eventIDs    map[uuid.UUID]struct{}

	// FailVehicleUpdates makes UpdateVehicleStatus return this error.
	FailVehicleUpdates error
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		vehicles:    make(map[uuid.UUID]domain.Vehicle),
		users:       make(map[uuid.UUID]domain.User),
		records:     make(map[uuid.UUID]domain.InspectionRecord),
		itemResults: make(map[uuid.UUID][]domain.InspectionItemResult),
		alerts:      make(map[alertKey]domain.MaintenanceAlert),
		eventIDs:    make(map[uuid.UUID]struct{}),
	}
}

// =============================================================================
// Vehicles and Users
// =============================================================================

// CreateVehicle registers a vehicle.
func (s *Store) CreateVehicle(_ context.Context, v *domain.Vehicle) error {
	const op = "memory.create_vehicle"

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.vehicles {
		if existing.PlateNumber == v.PlateNumber {
			return domain.Conflict(op, "plate number already registered")
		}
	}
	if _, ok := s.vehicles[v.ID]; ok {
		return domain.Conflict(op, "vehicle already exists")
	}
	s.vehicles[v.ID] = *v
	return nil
}

// GetVehicle returns a vehicle by id.
func (s *Store) GetVehicle(_ context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.vehicles[id]
	if !ok {
		return nil, domain.NotFound("memory.get_vehicle", "vehicle", id.String())
	}
	return &v, nil
}

// UpdateVehicleStatus overwrites the operational status of a vehicle.
func (s *Store) UpdateVehicleStatus(_ context.Context, id uuid.UUID, status domain.VehicleStatus) error {
	const op = "memory.update_vehicle_status"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailVehicleUpdates != nil {
		return domain.Internal(s.FailVehicleUpdates, op, "failed to update vehicle status")
	}
	v, ok := s.vehicles[id]
	if !ok {
		return domain.NotFound(op, "vehicle", id.String())
	}
	v.Status = status
	s.vehicles[id] = v
	return nil
}

// CreateUser registers a user.
func (s *Store) CreateUser(_ context.Context, u *domain.User) error {
	const op = "memory.create_user"

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.Conflict(op, "email already registered")
		}
	}
	if _, ok := s.users[u.ID]; ok {
		return domain.Conflict(op, "user already exists")
	}
	s.users[u.ID] = *u
	return nil
}

// GetUser returns a user by id.
func (s *Store) GetUser(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.NotFound("memory.get_user", "user", id.String())
	}
	return &u, nil
}

// =============================================================================
// Inspection Records
// =============================================================================

// CreateInspectionRecord inserts a new record.
func (s *Store) CreateInspectionRecord(_ context.Context, rec *domain.InspectionRecord) error {
	const op = "memory.create_inspection_record"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; ok {
		return domain.Conflict(op, "inspection already exists")
	}
	if _, ok := s.vehicles[rec.VehicleID]; !ok {
		return domain.NotFound(op, "vehicle", rec.VehicleID.String())
	}
	if _, ok := s.users[rec.InspectorID]; !ok {
		return domain.NotFound(op, "inspector", rec.InspectorID.String())
	}
	if rec.Status == domain.InspectionStatusInProgress && s.inProgress(rec.VehicleID) {
		return domain.Conflict(op, "vehicle already has an inspection in progress")
	}
	s.records[rec.ID] = cloneRecord(*rec)
	return nil
}

// inProgress reports whether the vehicle has an IN_PROGRESS record.
// Callers hold s.mu.
func (s *Store) inProgress(vehicleID uuid.UUID) bool {
	for _, rec := range s.records {
		if rec.VehicleID == vehicleID && rec.Status == domain.InspectionStatusInProgress {
			return true
		}
	}
	return false
}

// GetInspectionRecord returns a record by id.
func (s *Store) GetInspectionRecord(_ context.Context, id uuid.UUID) (*domain.InspectionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, domain.NotFound("memory.get_inspection_record", "inspection", id.String())
	}
	out := cloneRecord(rec)
	return &out, nil
}

// StartInspectionRecord moves a SCHEDULED record to IN_PROGRESS.
func (s *Store) StartInspectionRecord(_ context.Context, id uuid.UUID, startedAt time.Time) (*domain.InspectionRecord, error) {
	const op = "memory.start_inspection_record"

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, domain.NotFound(op, "inspection", id.String())
	}
	if rec.Status != domain.InspectionStatusScheduled {
		return nil, domain.Errorf(domain.ECONFLICT, op, "inspection is %s", rec.Status)
	}
	if s.inProgress(rec.VehicleID) {
		return nil, domain.Conflict(op, "vehicle already has an inspection in progress")
	}

	rec.Status = domain.InspectionStatusInProgress
	rec.StartedAt = &startedAt
	rec.UpdatedAt = startedAt
	s.records[id] = rec

	out := cloneRecord(rec)
	return &out, nil
}

// CompleteInspectionRecord writes the item results and completes the record
// under one lock.
func (s *Store) CompleteInspectionRecord(_ context.Context, params domain.CompleteRecordParams) (*domain.InspectionRecord, error) {
	const op = "memory.complete_inspection_record"

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[params.RecordID]
	if !ok {
		return nil, domain.NotFound(op, "inspection", params.RecordID.String())
	}
	if rec.Status != domain.InspectionStatusInProgress {
		return nil, domain.Errorf(domain.ECONFLICT, op, "inspection is %s", rec.Status)
	}

	completedAt := params.CompletedAt
	nextDue := params.NextInspectionDue
	passed := params.OverallResult

	rec.Status = domain.InspectionStatusCompleted
	rec.CompletedAt = &completedAt
	rec.OverallResult = &passed
	rec.DefectsFound = params.DefectsFound
	rec.CriticalIssues = params.CriticalIssues
	rec.NextInspectionDue = &nextDue
	rec.UpdatedAt = completedAt
	s.records[rec.ID] = rec

	results := make([]domain.InspectionItemResult, len(params.Results))
	copy(results, params.Results)
	s.itemResults[rec.ID] = results

	out := cloneRecord(rec)
	return &out, nil
}

// ListInspectionRecords returns one page of records.
func (s *Store) ListInspectionRecords(_ context.Context, params domain.ListInspectionsParams) ([]domain.InspectionRecord, error) {
	params = params.Normalize()

	s.mu.Lock()
	matched := s.filterLocked(params.Filter)
	s.mu.Unlock()

	sortRecords(matched, params.SortField, params.SortDir == domain.SortAsc)

	start := params.Offset()
	if start >= len(matched) {
		return []domain.InspectionRecord{}, nil
	}
	end := start + params.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

// CountInspectionRecords counts records matching the filter.
func (s *Store) CountInspectionRecords(_ context.Context, filter domain.InspectionFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(len(s.filterLocked(filter))), nil
}

// ListItemResults returns the item results of a record.
func (s *Store) ListItemResults(_ context.Context, recordID uuid.UUID) ([]domain.InspectionItemResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]domain.InspectionItemResult, len(s.itemResults[recordID]))
	copy(results, s.itemResults[recordID])
	return results, nil
}

func (s *Store) filterLocked(f domain.InspectionFilter) []domain.InspectionRecord {
	out := make([]domain.InspectionRecord, 0, len(s.records))
	for _, rec := range s.records {
		if matches(rec, f) {
			out = append(out, cloneRecord(rec))
		}
	}
	return out
}

func matches(rec domain.InspectionRecord, f domain.InspectionFilter) bool {
	switch {
	case f.VehicleID != nil && rec.VehicleID != *f.VehicleID:
		return false
	case f.InspectorID != nil && rec.InspectorID != *f.InspectorID:
		return false
	case f.Type != nil && rec.Type != *f.Type:
		return false
	case f.Status != nil && rec.Status != *f.Status:
		return false
	case f.From != nil && rec.ScheduledAt.Before(*f.From):
		return false
	case f.To != nil && !rec.ScheduledAt.Before(*f.To):
		return false
	}
	return true
}

// sortRecords orders records like the SQL store: nulls last, id as the
// tie-breaker.
func sortRecords(records []domain.InspectionRecord, field string, asc bool) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if c := compareField(a, b, field); c != 0 {
			if c == nullsLast || c == -nullsLast {
				return c < 0
			}
			if asc {
				return c < 0
			}
			return c > 0
		}
		return strings.Compare(a.ID.String(), b.ID.String()) < 0
	})
}

// nullsLast marks a comparison decided by a missing value, which ignores
// the sort direction.
const nullsLast = 2

func compareField(a, b domain.InspectionRecord, field string) int {
	switch field {
	case domain.SortFieldCompletedAt:
		switch {
		case a.CompletedAt == nil && b.CompletedAt == nil:
			return 0
		case a.CompletedAt == nil:
			return nullsLast
		case b.CompletedAt == nil:
			return -nullsLast
		}
		return a.CompletedAt.Compare(*b.CompletedAt)
	case domain.SortFieldCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case domain.SortFieldStatus:
		return strings.Compare(string(a.Status), string(b.Status))
	case domain.SortFieldType:
		return strings.Compare(string(a.Type), string(b.Type))
	}
	return a.ScheduledAt.Compare(b.ScheduledAt)
}

// cloneRecord copies the pointer fields so callers cannot mutate stored state.
func cloneRecord(rec domain.InspectionRecord) domain.InspectionRecord {
	if rec.StartedAt != nil {
		t := *rec.StartedAt
		rec.StartedAt = &t
	}
	if rec.CompletedAt != nil {
		t := *rec.CompletedAt
		rec.CompletedAt = &t
	}
	if rec.OverallResult != nil {
		b := *rec.OverallResult
		rec.OverallResult = &b
	}
	if rec.NextInspectionDue != nil {
		t := *rec.NextInspectionDue
		rec.NextInspectionDue = &t
	}
	if rec.Location != nil {
		loc := *rec.Location
		rec.Location = &loc
	}
	return rec
}

// =============================================================================
// Alerts and Events
// =============================================================================

// RecordMaintenanceAlert stores an alert unless one already exists for the
// same inspection and vehicle.
func (s *Store) RecordMaintenanceAlert(_ context.Context, alert domain.MaintenanceAlert) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := alertKey{inspectionID: alert.InspectionID, vehicleID: alert.VehicleID}
	if _, ok := s.alerts[key]; ok {
		return false, nil
	}
	s.alerts[key] = alert
	return true, nil
}

// MaintenanceAlerts returns every stored alert.
func (s *Store) MaintenanceAlerts() []domain.MaintenanceAlert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.MaintenanceAlert, 0, len(s.alerts))
	for _, a := range s.alerts {
		out = append(out, a)
	}
	return out
}

// AppendEvent writes an event to the journal. Replays of the same event id
// are ignored.
func (s *Store) AppendEvent(_ context.Context, e domain.StoredEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.eventIDs[e.ID]; ok {
		return nil
	}
	s.eventIDs[e.ID] = struct{}{}
	s.events = append(s.events, e)
	return nil
}

// ListEvents returns the newest journal entries first.
func (s *Store) ListEvents(_ context.Context, params domain.ListEventsParams) ([]domain.StoredEvent, error) {
	params = params.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.StoredEvent, 0, params.Limit)
	for i := len(s.events) - 1; i >= 0 && len(out) < params.Limit; i-- {
		e := s.events[i]
		if params.Kind != nil && e.Kind != *params.Kind {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
