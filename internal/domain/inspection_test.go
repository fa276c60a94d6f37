package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestInspectionStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from InspectionStatus
		to   InspectionStatus
		want bool
	}{
		{"scheduled to in progress", InspectionStatusScheduled, InspectionStatusInProgress, true},
		{"in progress to completed", InspectionStatusInProgress, InspectionStatusCompleted, true},

		// Skipping a state
		{"scheduled to completed", InspectionStatusScheduled, InspectionStatusCompleted, false},

		// Reversals
		{"in progress to scheduled", InspectionStatusInProgress, InspectionStatusScheduled, false},
		{"completed to in progress", InspectionStatusCompleted, InspectionStatusInProgress, false},
		{"completed to scheduled", InspectionStatusCompleted, InspectionStatusScheduled, false},

		// Same state
		{"completed to completed", InspectionStatusCompleted, InspectionStatusCompleted, false},
		{"unknown to in progress", InspectionStatus("PAUSED"), InspectionStatusInProgress, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestNextInspectionDue(t *testing.T) {
	completedAt := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		typ  InspectionType
		want time.Time
	}{
		{InspectionTypePreTrip, completedAt.AddDate(0, 0, 1)},
		{InspectionTypePostTrip, completedAt.AddDate(0, 0, 1)},
		{InspectionTypeDaily, completedAt.AddDate(0, 0, 1)},
		{InspectionTypeWeekly, completedAt.AddDate(0, 0, 7)},
		{InspectionTypeMonthly, completedAt.AddDate(0, 0, 30)},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, NextInspectionDue(tt.typ, completedAt))
		})
	}
}

func TestInspectionRecord_Validate(t *testing.T) {
	started := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	completed := started.Add(25 * time.Minute)
	before := started.Add(-time.Minute)
	pass := true

	tests := []struct {
		name    string
		record  InspectionRecord
		wantErr bool
	}{
		{
			name:   "in progress without outcome",
			record: InspectionRecord{Status: InspectionStatusInProgress, StartedAt: &started},
		},
		{
			name:   "completed with outcome",
			record: InspectionRecord{Status: InspectionStatusCompleted, StartedAt: &started, CompletedAt: &completed, OverallResult: &pass},
		},
		{
			name:    "completed without completedAt",
			record:  InspectionRecord{Status: InspectionStatusCompleted, OverallResult: &pass},
			wantErr: true,
		},
		{
			name:    "completed without result",
			record:  InspectionRecord{Status: InspectionStatusCompleted, CompletedAt: &completed},
			wantErr: true,
		},
		{
			name:    "in progress with result",
			record:  InspectionRecord{Status: InspectionStatusInProgress, OverallResult: &pass},
			wantErr: true,
		},
		{
			name:    "completion before start",
			record:  InspectionRecord{Status: InspectionStatusCompleted, StartedAt: &started, CompletedAt: &before, OverallResult: &pass},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEvaluateItemResults(t *testing.T) {
	sev := func(s Severity) *Severity { return &s }
	item := func(passed bool, s *Severity) InspectionItemResult {
		return InspectionItemResult{InspectionItemID: uuid.New(), IsPassed: passed, Severity: s}
	}

	tests := []struct {
		name         string
		results      []InspectionItemResult
		wantDefects  int
		wantCritical int
		wantPassed   bool
		wantSeverity Severity
		wantStatus   VehicleStatus
	}{
		{
			name:       "all passed",
			results:    []InspectionItemResult{item(true, nil), item(true, sev(SeverityCritical))},
			wantPassed: true,
			wantStatus: VehicleStatusAvailable,
		},
		{
			name:        "minor defects do not ground the vehicle",
			results:     []InspectionItemResult{item(false, sev(SeverityLow)), item(false, sev(SeverityMedium)), item(false, nil)},
			wantDefects: 3,
			wantStatus:  VehicleStatusAvailable,
		},
		{
			name:         "high severity failure",
			results:      []InspectionItemResult{item(true, nil), item(false, sev(SeverityHigh))},
			wantDefects:  1,
			wantCritical: 1,
			wantSeverity: SeverityHigh,
			wantStatus:   VehicleStatusMaintenance,
		},
		{
			name:         "critical outranks high",
			results:      []InspectionItemResult{item(false, sev(SeverityHigh)), item(false, sev(SeverityCritical)), item(false, sev(SeverityLow))},
			wantDefects:  3,
			wantCritical: 2,
			wantSeverity: SeverityCritical,
			wantStatus:   VehicleStatusMaintenance,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := EvaluateItemResults(tt.results)
			assert.Equal(t, tt.wantDefects, out.DefectsFound)
			assert.Equal(t, tt.wantCritical, out.CriticalIssues)
			assert.Equal(t, tt.wantPassed, out.Passed)
			assert.Equal(t, tt.wantSeverity, out.Severity)
			assert.Equal(t, tt.wantStatus, out.TargetVehicleStatus())
			assert.Len(t, out.Issues, tt.wantCritical)
		})
	}
}

func TestListInspectionsParams_Normalize(t *testing.T) {
	p := ListInspectionsParams{Page: 0, PageSize: 1000, SortField: "vin; drop table", SortDir: "sideways"}.Normalize()

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxPageSize, p.PageSize)
	assert.Equal(t, SortFieldScheduledAt, p.SortField)
	assert.Equal(t, SortDesc, p.SortDir)
	assert.Equal(t, 0, p.Offset())

	p = ListInspectionsParams{Page: 3, PageSize: 10, SortField: SortFieldStatus, SortDir: SortAsc}.Normalize()
	assert.Equal(t, 20, p.Offset())
	assert.Equal(t, SortAsc, p.SortDir)
}

func TestListInspectionsResult_Pages(t *testing.T) {
	r := &ListInspectionsResult{Total: 45, Page: 2, PageSize: 20}
	assert.Equal(t, 3, r.TotalPages())
	assert.True(t, r.HasMore())

	r.Page = 3
	assert.False(t, r.HasMore())
}
