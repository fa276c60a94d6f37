// Package domain contains core business types and interfaces.
//
// This file defines the InspectionRecord domain type and the inspection
// lifecycle state machine.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Inspection Status
// =============================================================================

// InspectionStatus represents the lifecycle state of an inspection record.
type InspectionStatus string

const (
	// InspectionStatusScheduled indicates an inspection is planned but the
	// inspector has not begun the walk-around.
	InspectionStatusScheduled InspectionStatus = "SCHEDULED"

	// InspectionStatusInProgress indicates the inspector is checking items.
	InspectionStatusInProgress InspectionStatus = "IN_PROGRESS"

	// InspectionStatusCompleted indicates item results were submitted and the
	// outcome is final. Terminal.
	InspectionStatusCompleted InspectionStatus = "COMPLETED"
)

// String returns the string representation of the status.
func (s InspectionStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a recognized value.
func (s InspectionStatus) IsValid() bool {
	switch s {
	case InspectionStatusScheduled, InspectionStatusInProgress, InspectionStatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo checks if the inspection can transition to the target status.
//
// Valid transitions:
// - SCHEDULED -> IN_PROGRESS
// - IN_PROGRESS -> COMPLETED
//
// No transition skips a state and none reverses.
func (s InspectionStatus) CanTransitionTo(target InspectionStatus) bool {
	switch s {
	case InspectionStatusScheduled:
		return target == InspectionStatusInProgress
	case InspectionStatusInProgress:
		return target == InspectionStatusCompleted
	}
	return false
}

// =============================================================================
// Inspection Type
// =============================================================================

// InspectionType is the closed set of inspection kinds.
type InspectionType string

const (
	InspectionTypePreTrip  InspectionType = "PRE_TRIP"
	InspectionTypePostTrip InspectionType = "POST_TRIP"
	InspectionTypeDaily    InspectionType = "DAILY"
	InspectionTypeWeekly   InspectionType = "WEEKLY"
	InspectionTypeMonthly  InspectionType = "MONTHLY"
)

// InspectionTypes lists every inspection type in display order.
var InspectionTypes = []InspectionType{
	InspectionTypePreTrip,
	InspectionTypePostTrip,
	InspectionTypeDaily,
	InspectionTypeWeekly,
	InspectionTypeMonthly,
}

// String returns the string representation of the type.
func (t InspectionType) String() string {
	return string(t)
}

// IsValid returns true if the type is a recognized value.
func (t InspectionType) IsValid() bool {
	switch t {
	case InspectionTypePreTrip, InspectionTypePostTrip, InspectionTypeDaily,
		InspectionTypeWeekly, InspectionTypeMonthly:
		return true
	}
	return false
}

// ReinspectionInterval returns how long a passed inspection of this type
// stays current. Unknown types fall back to one day.
func (t InspectionType) ReinspectionInterval() time.Duration {
	switch t {
	case InspectionTypeWeekly:
		return 7 * 24 * time.Hour
	case InspectionTypeMonthly:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// NextInspectionDue maps an inspection type and completion time to the date
// the vehicle must be inspected again.
func NextInspectionDue(t InspectionType, completedAt time.Time) time.Time {
	return completedAt.Add(t.ReinspectionInterval())
}

// =============================================================================
// Location
// =============================================================================

// Location is the optional GPS position where an inspection took place.
type Location struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// =============================================================================
// Inspection Record
// =============================================================================

// InspectionRecord represents one physical inspection pass of a vehicle.
//
// Records are created when an inspection starts, completed exactly once,
// and never deleted.
type InspectionRecord struct {
	ID                uuid.UUID        // Unique identifier
	VehicleID         uuid.UUID        // Inspected vehicle
	InspectorID       uuid.UUID        // User performing the inspection
	Type              InspectionType   // Inspection kind
	Status            InspectionStatus // Current lifecycle state
	ScheduledAt       time.Time        // When the inspection was planned for
	StartedAt         *time.Time       // When the inspector began
	CompletedAt       *time.Time       // Set exactly when Status is COMPLETED
	OverallResult     *bool            // Set exactly when Status is COMPLETED
	DefectsFound      int              // Number of failed item results
	CriticalIssues    int              // Failed items with HIGH or CRITICAL severity
	NextInspectionDue *time.Time       // Derived from Type and CompletedAt
	Location          *Location        // Optional coordinates
	Notes             string           // Optional inspector notes
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsCompleted returns true if the record has reached its terminal state.
func (r *InspectionRecord) IsCompleted() bool {
	return r.Status == InspectionStatusCompleted
}

// Passed returns true if the record is completed with no defects.
func (r *InspectionRecord) Passed() bool {
	return r.OverallResult != nil && *r.OverallResult
}

// Failed returns true if the record is completed with at least one defect.
func (r *InspectionRecord) Failed() bool {
	return r.OverallResult != nil && !*r.OverallResult
}

// Duration returns the time between start and completion. The second value
// is false when either timestamp is missing.
func (r *InspectionRecord) Duration() (time.Duration, bool) {
	if r.StartedAt == nil || r.CompletedAt == nil {
		return 0, false
	}
	return r.CompletedAt.Sub(*r.StartedAt), true
}

// Validate checks the completion invariant:
// CompletedAt set <=> Status COMPLETED <=> OverallResult set,
// and StartedAt does not follow CompletedAt.
func (r *InspectionRecord) Validate() error {
	completed := r.Status == InspectionStatusCompleted
	if (r.CompletedAt != nil) != completed {
		return fmt.Errorf("inspection %s: completedAt inconsistent with status %s", r.ID, r.Status)
	}
	if (r.OverallResult != nil) != completed {
		return fmt.Errorf("inspection %s: overallResult inconsistent with status %s", r.ID, r.Status)
	}
	if r.StartedAt != nil && r.CompletedAt != nil && r.CompletedAt.Before(*r.StartedAt) {
		return fmt.Errorf("inspection %s: completedAt precedes startedAt", r.ID)
	}
	return nil
}

// =============================================================================
// Completion Outcome
// =============================================================================

// InspectionOutcome is the result derived from a set of item results.
type InspectionOutcome struct {
	DefectsFound   int                // Failed items
	CriticalIssues int                // Failed items with HIGH or CRITICAL severity
	Passed         bool               // DefectsFound == 0
	Severity       Severity           // CRITICAL if any critical item failed, else HIGH; empty without critical issues
	Issues         []MaintenanceIssue // One entry per critical issue
}

// EvaluateItemResults derives the inspection outcome from item results.
// Minor defects fail the inspection but do not count as critical issues.
func EvaluateItemResults(results []InspectionItemResult) InspectionOutcome {
	var out InspectionOutcome
	for _, res := range results {
		if res.IsPassed {
			continue
		}
		out.DefectsFound++
		if !res.IsCriticalIssue() {
			continue
		}
		out.CriticalIssues++
		if *res.Severity == SeverityCritical {
			out.Severity = SeverityCritical
		} else if out.Severity == "" {
			out.Severity = SeverityHigh
		}
		out.Issues = append(out.Issues, MaintenanceIssue{
			InspectionItemID: res.InspectionItemID,
			Severity:         *res.Severity,
			Notes:            res.Notes,
		})
	}
	out.Passed = out.DefectsFound == 0
	return out
}

// TargetVehicleStatus returns the vehicle status an outcome implies.
// Only critical issues ground the vehicle.
func (o InspectionOutcome) TargetVehicleStatus() VehicleStatus {
	if o.CriticalIssues > 0 {
		return VehicleStatusMaintenance
	}
	return VehicleStatusAvailable
}

// =============================================================================
// Inspection Service Parameters
// =============================================================================

// StartInspectionParams contains parameters for starting an inspection.
type StartInspectionParams struct {
	VehicleID   uuid.UUID      `validate:"required"`
	InspectorID uuid.UUID      `validate:"required"`
	Type        InspectionType `validate:"required,inspection_type"`
	ScheduledAt *time.Time     // Optional: defaults to now
	Location    *Location      `validate:"omitempty"`
	Notes       string         `validate:"max=2000"`
	ActorID     uuid.UUID      // Who triggered the operation (recorded on events)
}

// StartScheduledParams contains parameters for beginning a scheduled inspection.
type StartScheduledParams struct {
	RecordID uuid.UUID `validate:"required"`
	ActorID  uuid.UUID
}

// ItemResultInput is one submitted checklist outcome.
type ItemResultInput struct {
	InspectionItemID uuid.UUID `validate:"required"`
	IsPassed         bool
	Severity         *Severity `validate:"omitempty,severity"`
	Notes            string    `validate:"max=2000"`
}

// CompleteInspectionParams contains parameters for completing an inspection.
type CompleteInspectionParams struct {
	RecordID uuid.UUID         `validate:"required"`
	Results  []ItemResultInput `validate:"dive"`
	ActorID  uuid.UUID
}

// CompleteRecordParams is what the store needs to finalize a record atomically.
type CompleteRecordParams struct {
	RecordID          uuid.UUID
	Results           []InspectionItemResult
	DefectsFound      int
	CriticalIssues    int
	OverallResult     bool
	CompletedAt       time.Time
	NextInspectionDue time.Time
}

// =============================================================================
// Listing
// =============================================================================

// SortDirection orders list results.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Sortable record fields.
const (
	SortFieldScheduledAt = "scheduled_at"
	SortFieldCompletedAt = "completed_at"
	SortFieldCreatedAt   = "created_at"
	SortFieldStatus      = "status"
	SortFieldType        = "inspection_type"
)

// IsValidSortField returns true if the field can be used for ordering.
func IsValidSortField(field string) bool {
	switch field {
	case SortFieldScheduledAt, SortFieldCompletedAt, SortFieldCreatedAt,
		SortFieldStatus, SortFieldType:
		return true
	}
	return false
}

// InspectionFilter narrows record queries. Nil fields do not filter.
type InspectionFilter struct {
	VehicleID   *uuid.UUID
	InspectorID *uuid.UUID
	Type        *InspectionType
	Status      *InspectionStatus
	From        *time.Time // ScheduledAt >= From
	To          *time.Time // ScheduledAt < To
}

// ListInspectionsParams contains parameters for listing inspection records.
type ListInspectionsParams struct {
	Filter    InspectionFilter
	Page      int // 1-indexed
	PageSize  int
	SortField string
	SortDir   SortDirection
}

// Pagination defaults.
const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// Normalize fills defaults and clamps out-of-range values.
func (p ListInspectionsParams) Normalize() ListInspectionsParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	if !IsValidSortField(p.SortField) {
		p.SortField = SortFieldScheduledAt
	}
	if p.SortDir != SortAsc {
		p.SortDir = SortDesc
	}
	return p
}

// Offset returns the number of rows skipped for the page.
func (p ListInspectionsParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// ListInspectionsResult contains the result of a paginated record query.
type ListInspectionsResult struct {
	Records  []InspectionRecord
	Total    int64
	Page     int
	PageSize int
}

// HasMore returns true if there are more results available.
func (r *ListInspectionsResult) HasMore() bool {
	return int64(r.Page*r.PageSize) < r.Total
}

// TotalPages returns the total number of pages.
func (r *ListInspectionsResult) TotalPages() int {
	if r.PageSize == 0 {
		return 1
	}
	pages := r.Total / int64(r.PageSize)
	if r.Total%int64(r.PageSize) > 0 {
		pages++
	}
	return int(pages)
}

// InspectionDetail is a record together with its submitted item results.
type InspectionDetail struct {
	Record  InspectionRecord
	Results []InspectionItemResult
}
