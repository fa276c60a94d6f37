package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	CreatedAt time.Time
}

type Vehicle struct {
	ID          uuid.UUID
	PlateNumber string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type InspectionRecord struct {
	ID                uuid.UUID
	VehicleID         uuid.UUID
	InspectorID       uuid.UUID
	InspectionType    string
	Status            string
	ScheduledAt       time.Time
	StartedAt         sql.NullTime
	CompletedAt       sql.NullTime
	OverallResult     sql.NullBool
	DefectsFound      int32
	CriticalIssues    int32
	NextInspectionDue sql.NullTime
	Location          pqtype.NullRawMessage
	Notes             sql.NullString
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type InspectionItemResult struct {
	ID                 uuid.UUID
	InspectionRecordID uuid.UUID
	InspectionItemID   uuid.UUID
	IsPassed           bool
	Severity           sql.NullString
	Notes              sql.NullString
	CreatedAt          time.Time
}

type MaintenanceAlert struct {
	ID           uuid.UUID
	InspectionID uuid.UUID
	VehicleID    uuid.UUID
	Severity     string
	IssueCount   int32
	CreatedAt    time.Time
}

type DomainEvent struct {
	ID         uuid.UUID
	Kind       string
	ActorID    uuid.NullUUID
	OccurredAt time.Time
	Payload    pqtype.NullRawMessage
}
