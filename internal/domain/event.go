package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Event Kinds
// =============================================================================

// EventKind identifies a domain event. Subscribers register per kind.
type EventKind string

const (
	EventInspectionCompleted  EventKind = "inspection.completed"
	EventVehicleStatusChanged EventKind = "vehicle.status.changed"
	EventMaintenanceRequired  EventKind = "maintenance.required"
	EventStatisticsGenerated  EventKind = "statistics.generated"
)

// EventKinds lists every kind the system produces.
var EventKinds = []EventKind{
	EventInspectionCompleted,
	EventVehicleStatusChanged,
	EventMaintenanceRequired,
	EventStatisticsGenerated,
}

// String returns the string representation of the kind.
func (k EventKind) String() string {
	return string(k)
}

// =============================================================================
// Event
// =============================================================================

// Event is an immutable fact that has already happened.
//
// The set of implementations is closed: only types in this package satisfy
// Event, so every payload shape is fixed at compile time.
type Event interface {
	Kind() EventKind
	Metadata() EventMeta
	isEvent()
}

// EventMeta is carried by every event.
type EventMeta struct {
	ID         uuid.UUID `json:"eventId"`
	OccurredAt time.Time `json:"occurredAt"`
	ActorID    uuid.UUID `json:"actorId"`
}

// NewEventMeta stamps a fresh event id and timestamp.
func NewEventMeta(actorID uuid.UUID, at time.Time) EventMeta {
	return EventMeta{
		ID:         uuid.New(),
		OccurredAt: at.UTC(),
		ActorID:    actorID,
	}
}

// Metadata returns the common event fields.
func (m EventMeta) Metadata() EventMeta {
	return m
}

func (EventMeta) isEvent() {}

// =============================================================================
// Event Payloads
// =============================================================================

// InspectionCompleted is published once per successful completion.
type InspectionCompleted struct {
	EventMeta
	RecordID       uuid.UUID `json:"recordId"`
	VehicleID      uuid.UUID `json:"vehicleId"`
	Passed         bool      `json:"passed"`
	FailedItems    int       `json:"failedItems"`
	CriticalIssues int       `json:"criticalIssues"`
}

// Kind implements Event.
func (InspectionCompleted) Kind() EventKind { return EventInspectionCompleted }

// VehicleStatusChanged carries a status decision made by the workflow.
// The vehicle record is updated by whoever consumes this event.
type VehicleStatusChanged struct {
	EventMeta
	VehicleID    uuid.UUID     `json:"vehicleId"`
	InspectionID uuid.UUID     `json:"inspectionId"`
	OldStatus    VehicleStatus `json:"oldStatus"`
	NewStatus    VehicleStatus `json:"newStatus"`
}

// Kind implements Event.
func (VehicleStatusChanged) Kind() EventKind { return EventVehicleStatusChanged }

// MaintenanceIssue is one critical finding behind a maintenance request.
type MaintenanceIssue struct {
	InspectionItemID uuid.UUID `json:"inspectionItemId"`
	Severity         Severity  `json:"severity"`
	Notes            string    `json:"notes,omitempty"`
}

// MaintenanceRequired is published when an inspection found critical issues.
type MaintenanceRequired struct {
	EventMeta
	VehicleID    uuid.UUID          `json:"vehicleId"`
	InspectionID uuid.UUID          `json:"inspectionId"`
	Severity     Severity           `json:"severity"`
	Issues       []MaintenanceIssue `json:"issues"`
}

// Kind implements Event.
func (MaintenanceRequired) Kind() EventKind { return EventMaintenanceRequired }

// StatisticsGenerated is published by reporting after a statistics run.
type StatisticsGenerated struct {
	EventMeta
	Filter    StatisticsFilter `json:"filter"`
	Total     int              `json:"total"`
	Completed int              `json:"completed"`
}

// Kind implements Event.
func (StatisticsGenerated) Kind() EventKind { return EventStatisticsGenerated }

// Compile-time interface checks
var (
	_ Event = InspectionCompleted{}
	_ Event = VehicleStatusChanged{}
	_ Event = MaintenanceRequired{}
	_ Event = StatisticsGenerated{}
)
