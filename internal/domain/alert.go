package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MaintenanceAlert is the durable record of one maintenance escalation.
// At most one alert exists per (InspectionID, VehicleID).
type MaintenanceAlert struct {
	ID           uuid.UUID
	InspectionID uuid.UUID
	VehicleID    uuid.UUID
	Severity     Severity
	IssueCount   int
	CreatedAt    time.Time
}

// StoredEvent is a domain event as written to the event journal.
type StoredEvent struct {
	ID         uuid.UUID
	Kind       EventKind
	ActorID    uuid.UUID
	OccurredAt time.Time
	Payload    json.RawMessage
}

// NewStoredEvent serializes e for the journal.
func NewStoredEvent(e Event) (StoredEvent, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return StoredEvent{}, err
	}
	meta := e.Metadata()
	return StoredEvent{
		ID:         meta.ID,
		Kind:       e.Kind(),
		ActorID:    meta.ActorID,
		OccurredAt: meta.OccurredAt,
		Payload:    payload,
	}, nil
}

// ListEventsParams narrows a journal query. A nil Kind matches every kind.
type ListEventsParams struct {
	Kind  *EventKind
	Limit int
}

// Journal limits.
const (
	DefaultEventLimit = 50
	MaxEventLimit     = 500
)

// Normalize clamps the limit into range.
func (p ListEventsParams) Normalize() ListEventsParams {
	if p.Limit < 1 {
		p.Limit = DefaultEventLimit
	}
	if p.Limit > MaxEventLimit {
		p.Limit = MaxEventLimit
	}
	return p
}
