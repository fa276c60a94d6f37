package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karkyon/dump-tracker-system-sub000/internal/domain"
	"github.com/karkyon/dump-tracker-system-sub000/internal/repository/memory"
)

var statsNow = time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)

// userMap is a UserLookup over a fixed set of users.
type userMap struct {
	users map[uuid.UUID]*domain.User
	err   error
}

func (m userMap) GetUser(_ context.Context, id uuid.UUID) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, domain.NotFound("test.get_user", "user", id.String())
}

type statsFixture struct {
	store *memory.Store
	users userMap
	logs  *bytes.Buffer
	svc   StatisticsService
}

func newStatsFixture(t *testing.T) *statsFixture {
	t.Helper()
	f := &statsFixture{
		store: memory.New(),
		users: userMap{users: map[uuid.UUID]*domain.User{}},
		logs:  &bytes.Buffer{},
	}
	f.rebuild()
	return f
}

func (f *statsFixture) rebuild(opts ...Option) {
	logger := slog.New(slog.NewTextHandler(f.logs, nil))
	opts = append([]Option{WithClock(func() time.Time { return statsNow })}, opts...)
	f.svc = NewStatisticsService(f.store, f.store, f.users, logger, opts...)
}

func (f *statsFixture) vehicle(t *testing.T) uuid.UUID {
	t.Helper()
	v := &domain.Vehicle{ID: uuid.New(), PlateNumber: uuid.NewString(), Status: domain.VehicleStatusAvailable}
	require.NoError(t, f.store.CreateVehicle(context.Background(), v))
	return v.ID
}

// inspector registers a user in the store. The statistics lookup only knows
// the name when named is true.
func (f *statsFixture) inspector(t *testing.T, name string, named bool) uuid.UUID {
	t.Helper()
	u := &domain.User{ID: uuid.New(), Name: name, Email: uuid.NewString() + "@example.com"}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	if named {
		f.users.users[u.ID] = u
	}
	return u.ID
}

type seedRecord struct {
	vehicle     uuid.UUID
	inspector   uuid.UUID
	typ         domain.InspectionType
	scheduledAt time.Time
	unstarted   bool          // leave SCHEDULED
	pending     bool          // leave IN_PROGRESS
	duration    time.Duration // start to completion
	defects     int
	critical    int
}

func (f *statsFixture) seed(t *testing.T, s seedRecord) {
	t.Helper()
	ctx := context.Background()

	if s.typ == "" {
		s.typ = domain.InspectionTypeDaily
	}
	rec := &domain.InspectionRecord{
		ID:          uuid.New(),
		VehicleID:   s.vehicle,
		InspectorID: s.inspector,
		Type:        s.typ,
		Status:      domain.InspectionStatusInProgress,
		ScheduledAt: s.scheduledAt,
		CreatedAt:   s.scheduledAt,
		UpdatedAt:   s.scheduledAt,
	}
	if s.unstarted {
		rec.Status = domain.InspectionStatusScheduled
	} else {
		startedAt := s.scheduledAt
		rec.StartedAt = &startedAt
	}
	require.NoError(t, f.store.CreateInspectionRecord(ctx, rec))

	if s.unstarted || s.pending {
		return
	}
	completedAt := s.scheduledAt.Add(s.duration)
	_, err := f.store.CompleteInspectionRecord(ctx, domain.CompleteRecordParams{
		RecordID:          rec.ID,
		DefectsFound:      s.defects,
		CriticalIssues:    s.critical,
		OverallResult:     s.defects == 0,
		CompletedAt:       completedAt,
		NextInspectionDue: domain.NextInspectionDue(s.typ, completedAt),
	})
	require.NoError(t, err)
}

func daysAgo(n int) time.Time {
	return statsNow.AddDate(0, 0, -n)
}

// =============================================================================
// Compute
// =============================================================================

func TestCompute_Empty(t *testing.T) {
	f := newStatsFixture(t)

	stats, err := f.svc.Compute(context.Background(), domain.StatisticsFilter{})
	require.NoError(t, err)

	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.CompletionRate)
	assert.Zero(t, stats.PassRate)
	assert.Zero(t, stats.FailRate)
	assert.Zero(t, stats.AverageCompletionTime)
	assert.False(t, math.IsNaN(stats.PassRate))
	assert.Len(t, stats.ByType, len(domain.InspectionTypes), "every type is listed")
	assert.Empty(t, stats.ByInspector)
	assert.Empty(t, stats.ByVehicle)
	assert.Empty(t, stats.Trend)
	assert.Equal(t, statsNow, stats.GeneratedAt)
}

func TestCompute_Rollup(t *testing.T) {
	f := newStatsFixture(t)
	truck := f.vehicle(t)
	van := f.vehicle(t)
	alice := f.inspector(t, "Alice", true)
	ghost := f.inspector(t, "Ghost", false)

	f.seed(t, seedRecord{vehicle: truck, inspector: alice, scheduledAt: daysAgo(1), duration: 30 * time.Minute})
	f.seed(t, seedRecord{vehicle: truck, inspector: alice, scheduledAt: daysAgo(1).Add(2 * time.Hour), duration: 90 * time.Minute, defects: 2, critical: 1})
	f.seed(t, seedRecord{vehicle: truck, inspector: alice, typ: domain.InspectionTypeWeekly, scheduledAt: daysAgo(3), duration: 60 * time.Minute, defects: 1})
	f.seed(t, seedRecord{vehicle: van, inspector: ghost, typ: domain.InspectionTypePreTrip, scheduledAt: daysAgo(3), pending: true})
	f.seed(t, seedRecord{vehicle: van, inspector: ghost, typ: domain.InspectionTypeMonthly, scheduledAt: daysAgo(45), duration: 20 * time.Minute})

	stats, err := f.svc.Compute(context.Background(), domain.StatisticsFilter{})
	require.NoError(t, err)

	// Base counts
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 4, stats.Completed)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 2, stats.Passed)
	assert.Equal(t, 2, stats.Failed)
	assert.InDelta(t, 0.8, stats.CompletionRate, 1e-9)
	assert.InDelta(t, 0.5, stats.PassRate, 1e-9)
	assert.InDelta(t, 0.5, stats.FailRate, 1e-9)
	assert.InDelta(t, 50.0, stats.AverageCompletionTime, 1e-9, "(30+90+60+20)/4")

	// Types
	byType := map[domain.InspectionType]domain.TypeStatistics{}
	for _, ts := range stats.ByType {
		byType[ts.Type] = ts
	}
	assert.Equal(t, 2, byType[domain.InspectionTypeDaily].Total)
	assert.InDelta(t, 0.5, byType[domain.InspectionTypeDaily].PassRate, 1e-9)
	assert.Equal(t, 1, byType[domain.InspectionTypeWeekly].Failed)
	assert.Equal(t, 1, byType[domain.InspectionTypePreTrip].Total)
	assert.Zero(t, byType[domain.InspectionTypePreTrip].PassRate, "no completed pre-trip")
	assert.Zero(t, byType[domain.InspectionTypePostTrip].Total)

	// Inspectors, busiest first
	require.Len(t, stats.ByInspector, 2)
	assert.Equal(t, alice, stats.ByInspector[0].InspectorID)
	assert.Equal(t, "Alice", stats.ByInspector[0].InspectorName)
	assert.InDelta(t, 60.0, stats.ByInspector[0].AverageCompletionTime, 1e-9)
	assert.InDelta(t, 1.0/3.0, stats.ByInspector[0].PassRate, 1e-9)
	assert.Equal(t, ghost, stats.ByInspector[1].InspectorID)
	assert.Equal(t, domain.UnknownUserName, stats.ByInspector[1].InspectorName)

	// Vehicles
	require.Len(t, stats.ByVehicle, 2)
	truckStats := stats.ByVehicle[0]
	assert.Equal(t, truck, truckStats.VehicleID)
	assert.Equal(t, 3, truckStats.TotalIssues, "sum of defects over completed records")
	assert.Equal(t, 1, truckStats.CriticalIssues)
	assert.Equal(t, domain.RiskHigh, truckStats.RiskLevel, "two failures outweigh one pass")
	require.NotNil(t, truckStats.LastInspection)
	assert.Equal(t, daysAgo(1).Add(2*time.Hour+90*time.Minute), *truckStats.LastInspection)
	assert.Equal(t, domain.RiskLow, stats.ByVehicle[1].RiskLevel)

	// Trend is sparse and excludes the record from 45 days ago
	require.Len(t, stats.Trend, 2)
	assert.Equal(t, daysAgo(3).Format("2006-01-02"), stats.Trend[0].Date)
	assert.Equal(t, 2, stats.Trend[0].Total)
	assert.Equal(t, 1, stats.Trend[0].Completed)
	assert.InDelta(t, 60.0, stats.Trend[0].AverageTime, 1e-9)
	assert.Equal(t, daysAgo(1).Format("2006-01-02"), stats.Trend[1].Date)
	assert.Equal(t, 2, stats.Trend[1].Total)
	assert.Equal(t, 1, stats.Trend[1].Passed)
	assert.Equal(t, 1, stats.Trend[1].Failed)
	assert.InDelta(t, 60.0, stats.Trend[1].AverageTime, 1e-9)
}

func TestCompute_Filters(t *testing.T) {
	f := newStatsFixture(t)
	truck := f.vehicle(t)
	van := f.vehicle(t)
	alice := f.inspector(t, "Alice", true)

	f.seed(t, seedRecord{vehicle: truck, inspector: alice, scheduledAt: daysAgo(2), duration: time.Hour})
	f.seed(t, seedRecord{vehicle: van, inspector: alice, scheduledAt: daysAgo(10), duration: time.Hour, defects: 1})

	stats, err := f.svc.Compute(context.Background(), domain.StatisticsFilter{VehicleID: &van})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Failed)

	from := daysAgo(5)
	stats, err = f.svc.Compute(context.Background(), domain.StatisticsFilter{From: &from})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, truck, stats.ByVehicle[0].VehicleID)
}

func TestCompute_TrendWindowIsConfigurable(t *testing.T) {
	f := newStatsFixture(t)
	truck := f.vehicle(t)
	alice := f.inspector(t, "Alice", true)

	f.seed(t, seedRecord{vehicle: truck, inspector: alice, scheduledAt: daysAgo(1), duration: time.Hour})
	f.seed(t, seedRecord{vehicle: truck, inspector: alice, scheduledAt: daysAgo(10), duration: time.Hour})

	f.rebuild(WithTrendDays(7))
	stats, err := f.svc.Compute(context.Background(), domain.StatisticsFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	require.Len(t, stats.Trend, 1)
	assert.Equal(t, daysAgo(1).Format("2006-01-02"), stats.Trend[0].Date)
}

func TestCompute_ExcludesUntimedRecordsFromAverages(t *testing.T) {
	f := newStatsFixture(t)
	truck := f.vehicle(t)
	alice := f.inspector(t, "Alice", true)

	f.seed(t, seedRecord{vehicle: truck, inspector: alice, scheduledAt: daysAgo(1), duration: 40 * time.Minute})
	f.seed(t, seedRecord{vehicle: truck, inspector: alice, scheduledAt: daysAgo(1), unstarted: true})

	stats, err := f.svc.Compute(context.Background(), domain.StatisticsFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.InDelta(t, 40.0, stats.AverageCompletionTime, 1e-9)
}

func TestCompute_InspectorLookupFailureFallsBack(t *testing.T) {
	f := newStatsFixture(t)
	truck := f.vehicle(t)
	alice := f.inspector(t, "Alice", true)
	f.seed(t, seedRecord{vehicle: truck, inspector: alice, scheduledAt: daysAgo(1), duration: time.Hour})

	f.users.err = errors.New("user service unavailable")
	f.rebuild()

	stats, err := f.svc.Compute(context.Background(), domain.StatisticsFilter{})
	require.NoError(t, err)
	require.Len(t, stats.ByInspector, 1)
	assert.Equal(t, domain.UnknownUserName, stats.ByInspector[0].InspectorName)
	assert.Contains(t, f.logs.String(), "failed to resolve inspector name")
}

func TestCompute_InvalidFilter(t *testing.T) {
	f := newStatsFixture(t)

	from, to := daysAgo(1), daysAgo(5)
	_, err := f.svc.Compute(context.Background(), domain.StatisticsFilter{From: &from, To: &to})
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

	bad := domain.InspectionType("YEARLY")
	_, err = f.svc.Compute(context.Background(), domain.StatisticsFilter{Type: &bad})
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestCompute_PagesThroughLargeHistories(t *testing.T) {
	f := newStatsFixture(t)
	truck := f.vehicle(t)
	alice := f.inspector(t, "Alice", true)

	n := domain.MaxPageSize + 15
	for i := 0; i < n; i++ {
		f.seed(t, seedRecord{vehicle: truck, inspector: alice, scheduledAt: daysAgo(60).Add(time.Duration(i) * time.Minute), duration: time.Minute})
	}

	stats, err := f.svc.Compute(context.Background(), domain.StatisticsFilter{})
	require.NoError(t, err)
	assert.Equal(t, n, stats.Total)
	assert.Equal(t, n, stats.Passed)
}

// =============================================================================
// VehicleRisk
// =============================================================================

func TestVehicleRisk_SixCriticalRecordsIsCritical(t *testing.T) {
	f := newStatsFixture(t)
	truck := f.vehicle(t)
	alice := f.inspector(t, "Alice", true)

	for i := 0; i < 6; i++ {
		f.seed(t, seedRecord{vehicle: truck, inspector: alice, scheduledAt: daysAgo(i + 1), duration: time.Hour, defects: 1, critical: 1})
	}

	risk, err := f.svc.VehicleRisk(context.Background(), truck)
	require.NoError(t, err)
	assert.Equal(t, domain.RiskCritical, risk.RiskLevel)
	assert.Equal(t, 6, risk.CriticalIssues)
	assert.Equal(t, 6, risk.Failed)

	stats, err := f.svc.Compute(context.Background(), domain.StatisticsFilter{})
	require.NoError(t, err)
	require.Len(t, stats.ByVehicle, 1)
	assert.Equal(t, domain.RiskCritical, stats.ByVehicle[0].RiskLevel)
}

func TestVehicleRisk_Levels(t *testing.T) {
	tests := []struct {
		name  string
		seeds []seedRecord
		want  domain.RiskLevel
	}{
		{"no history", nil, domain.RiskLow},
		{"all passed", []seedRecord{{}, {}}, domain.RiskLow},
		{"one minor failure", []seedRecord{{}, {}, {defects: 1}}, domain.RiskMedium},
		{"more failures than passes", []seedRecord{{}, {defects: 1}, {defects: 2}}, domain.RiskHigh},
		{"three critical issues", []seedRecord{{}, {}, {}, {}, {defects: 3, critical: 3}}, domain.RiskHigh},
		{"pending records ignored", []seedRecord{{}, {pending: true}}, domain.RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newStatsFixture(t)
			truck := f.vehicle(t)
			alice := f.inspector(t, "Alice", true)
			for i, s := range tt.seeds {
				s.vehicle, s.inspector = truck, alice
				s.scheduledAt = daysAgo(i + 1)
				s.duration = time.Hour
				f.seed(t, s)
			}

			risk, err := f.svc.VehicleRisk(context.Background(), truck)
			require.NoError(t, err)
			assert.Equal(t, tt.want, risk.RiskLevel)
		})
	}
}

func TestVehicleRisk_UnknownVehicle(t *testing.T) {
	f := newStatsFixture(t)

	_, err := f.svc.VehicleRisk(context.Background(), uuid.New())
	assert.True(t, domain.IsNotFound(err))
}
