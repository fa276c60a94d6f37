package domain

import (
	"time"

	"github.com/google/uuid"
)

// StatisticsFilter narrows the records a statistics run covers.
type StatisticsFilter struct {
	From        *time.Time      `json:"from,omitempty"`
	To          *time.Time      `json:"to,omitempty"`
	VehicleID   *uuid.UUID      `json:"vehicleId,omitempty"`
	InspectorID *uuid.UUID      `json:"inspectorId,omitempty"`
	Type        *InspectionType `json:"type,omitempty"`
}

// InspectionFilter converts the statistics filter into a record query filter.
func (f StatisticsFilter) InspectionFilter() InspectionFilter {
	return InspectionFilter{
		VehicleID:   f.VehicleID,
		InspectorID: f.InspectorID,
		Type:        f.Type,
		From:        f.From,
		To:          f.To,
	}
}

// Rate divides n by d, returning 0 when d is 0.
func Rate(n, d int) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// =============================================================================
// Risk Level
// =============================================================================

// RiskLevel classifies a vehicle from its inspection history.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// ClassifyRisk grades a vehicle by its cumulative critical issues and
// pass/fail counts.
func ClassifyRisk(criticalIssues, passed, failed int) RiskLevel {
	switch {
	case criticalIssues > 5:
		return RiskCritical
	case criticalIssues > 2 || failed > passed:
		return RiskHigh
	case failed > 0 || criticalIssues > 0:
		return RiskMedium
	}
	return RiskLow
}

// =============================================================================
// Statistics Result
// =============================================================================

// InspectionCounts are the base counters shared by every breakdown.
type InspectionCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Passed    int `json:"passed"`
	Failed    int `json:"failed"`
}

// CompletionRate is completed/total.
func (c InspectionCounts) CompletionRate() float64 { return Rate(c.Completed, c.Total) }

// PassRate is passed/completed.
func (c InspectionCounts) PassRate() float64 { return Rate(c.Passed, c.Completed) }

// FailRate is failed/completed.
func (c InspectionCounts) FailRate() float64 { return Rate(c.Failed, c.Completed) }

// InspectionStatistics is the full statistics rollup.
type InspectionStatistics struct {
	InspectionCounts
	CompletionRate        float64 `json:"completionRate"`
	PassRate              float64 `json:"passRate"`
	FailRate              float64 `json:"failRate"`
	AverageCompletionTime float64 `json:"averageCompletionTime"` // minutes

	ByType      []TypeStatistics      `json:"byType"`
	ByInspector []InspectorStatistics `json:"byInspector"`
	ByVehicle   []VehicleStatistics   `json:"byVehicle"`
	Trend       []TrendPoint          `json:"trend"`

	GeneratedAt time.Time `json:"generatedAt"`
}

// TypeStatistics is the breakdown for one inspection type.
type TypeStatistics struct {
	Type      InspectionType `json:"type"`
	Total     int            `json:"total"`
	Completed int            `json:"completed"`
	Passed    int            `json:"passed"`
	Failed    int            `json:"failed"`
	PassRate  float64        `json:"passRate"`
}

// InspectorStatistics is the breakdown for one inspector.
type InspectorStatistics struct {
	InspectorID           uuid.UUID `json:"inspectorId"`
	InspectorName         string    `json:"inspectorName"`
	Total                 int       `json:"total"`
	Completed             int       `json:"completed"`
	Passed                int       `json:"passed"`
	Failed                int       `json:"failed"`
	PassRate              float64   `json:"passRate"`
	AverageCompletionTime float64   `json:"averageCompletionTime"` // minutes
}

// VehicleStatistics is the breakdown for one vehicle.
type VehicleStatistics struct {
	VehicleID      uuid.UUID  `json:"vehicleId"`
	Total          int        `json:"total"`
	Completed      int        `json:"completed"`
	Passed         int        `json:"passed"`
	Failed         int        `json:"failed"`
	PassRate       float64    `json:"passRate"`
	TotalIssues    int        `json:"totalIssues"`
	CriticalIssues int        `json:"criticalIssues"`
	LastInspection *time.Time `json:"lastInspection,omitempty"`
	RiskLevel      RiskLevel  `json:"riskLevel"`
}

// TrendPoint is one calendar day in the trend series.
type TrendPoint struct {
	Date        string  `json:"date"` // YYYY-MM-DD, UTC
	Total       int     `json:"total"`
	Completed   int     `json:"completed"`
	Passed      int     `json:"passed"`
	Failed      int     `json:"failed"`
	AverageTime float64 `json:"averageTime"` // minutes
}

// VehicleRisk is the risk assessment for a single vehicle.
type VehicleRisk struct {
	VehicleID      uuid.UUID `json:"vehicleId"`
	Completed      int       `json:"completed"`
	Passed         int       `json:"passed"`
	Failed         int       `json:"failed"`
	CriticalIssues int       `json:"criticalIssues"`
	RiskLevel      RiskLevel `json:"riskLevel"`
}
