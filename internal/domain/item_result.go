package domain

import (
	"time"

	"github.com/google/uuid"
)

// Severity grades a failed checklist item.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// IsValid returns true if the severity is a recognized value.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// IsUrgent returns true for severities that ground a vehicle.
func (s Severity) IsUrgent() bool {
	return s == SeverityHigh || s == SeverityCritical
}

// InspectionItemResult is the outcome of one checklist item within a record.
// Results are written once when the record is completed and never modified.
type InspectionItemResult struct {
	ID                 uuid.UUID
	InspectionRecordID uuid.UUID
	InspectionItemID   uuid.UUID
	IsPassed           bool
	Severity           *Severity // Optional
	Notes              string
	CreatedAt          time.Time
}

// IsCriticalIssue returns true for a failed item graded HIGH or CRITICAL.
func (r *InspectionItemResult) IsCriticalIssue() bool {
	return !r.IsPassed && r.Severity != nil && r.Severity.IsUrgent()
}
