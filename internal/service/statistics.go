package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/karkyon/dump-tracker-system-sub000/internal/domain"
	"github.com/karkyon/dump-tracker-system-sub000/internal/metrics"
)

// DefaultTrendDays is the trailing window of the trend series.
const DefaultTrendDays = 30

const trendDateLayout = "2006-01-02"

// StatisticsService computes read-only rollups over inspection history.
// It never publishes events and never writes.
type StatisticsService interface {
	// Compute aggregates every record matching the filter.
	// Returns domain.EINVALID if From is after To.
	Compute(ctx context.Context, filter domain.StatisticsFilter) (*domain.InspectionStatistics, error)

	// VehicleRisk classifies a single vehicle from its whole history.
	// Returns domain.ENOTFOUND if the vehicle does not exist.
	VehicleRisk(ctx context.Context, vehicleID uuid.UUID) (*domain.VehicleRisk, error)
}

type statisticsService struct {
	store     InspectionStore
	vehicles  VehicleLookup
	users     UserLookup
	now       func() time.Time
	trendDays int
	logger    *slog.Logger
}

// NewStatisticsService creates a new StatisticsService.
func NewStatisticsService(
	store InspectionStore,
	vehicles VehicleLookup,
	users UserLookup,
	logger *slog.Logger,
	opts ...Option,
) StatisticsService {
	o := buildOptions(opts)
	return &statisticsService{
		store:     store,
		vehicles:  vehicles,
		users:     users,
		now:       o.now,
		trendDays: o.trendDays,
		logger:    logger,
	}
}

// =============================================================================
// Compute
// =============================================================================

// Compute aggregates every record matching the filter.
func (s *statisticsService) Compute(ctx context.Context, filter domain.StatisticsFilter) (*domain.InspectionStatistics, error) {
	const op = "statistics.compute"

	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, domain.Invalid(op, "from must not be after to")
	}
	if filter.Type != nil && !filter.Type.IsValid() {
		return nil, domain.Invalid(op, "unknown inspection type")
	}

	now := s.now().UTC()
	trendStart := now.AddDate(0, 0, -s.trendDays)

	agg := newAggregate()
	err := s.forEachRecord(ctx, filter.InspectionFilter(), func(rec *domain.InspectionRecord) {
		agg.add(rec, !rec.ScheduledAt.Before(trendStart) && !rec.ScheduledAt.After(now))
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list inspections")
	}

	stats := &domain.InspectionStatistics{
		InspectionCounts:      agg.total.counts(),
		AverageCompletionTime: agg.total.averageMinutes(),
		ByType:                agg.byTypeStats(),
		ByInspector:           s.byInspectorStats(ctx, agg),
		ByVehicle:             agg.byVehicleStats(),
		Trend:                 agg.trendPoints(),
		GeneratedAt:           now,
	}
	stats.CompletionRate = stats.InspectionCounts.CompletionRate()
	stats.PassRate = stats.InspectionCounts.PassRate()
	stats.FailRate = stats.InspectionCounts.FailRate()

	s.logger.Debug("statistics computed",
		"total", stats.Total,
		"completed", stats.Completed,
		"vehicles", len(stats.ByVehicle),
		"trend_days", len(stats.Trend),
	)
	metrics.StatisticsRuns.Inc()

	return stats, nil
}

// byInspectorStats resolves inspector names once per inspector.
// A lookup failure degrades to the fallback name instead of failing the run.
func (s *statisticsService) byInspectorStats(ctx context.Context, agg *aggregate) []domain.InspectorStatistics {
	out := make([]domain.InspectorStatistics, 0, len(agg.byInspector))
	for id, b := range agg.byInspector {
		name := domain.UnknownUserName
		user, err := s.users.GetUser(ctx, id)
		switch {
		case err == nil:
			name = user.DisplayName()
		case !domain.IsNotFound(err):
			s.logger.Warn("failed to resolve inspector name",
				"inspector_id", id,
				"error", err,
			)
		}

		c := b.counts()
		out = append(out, domain.InspectorStatistics{
			InspectorID:           id,
			InspectorName:         name,
			Total:                 c.Total,
			Completed:             c.Completed,
			Passed:                c.Passed,
			Failed:                c.Failed,
			PassRate:              c.PassRate(),
			AverageCompletionTime: b.averageMinutes(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		if out[i].InspectorName != out[j].InspectorName {
			return out[i].InspectorName < out[j].InspectorName
		}
		return out[i].InspectorID.String() < out[j].InspectorID.String()
	})
	return out
}

// =============================================================================
// VehicleRisk
// =============================================================================

// VehicleRisk classifies a single vehicle from its whole history.
func (s *statisticsService) VehicleRisk(ctx context.Context, vehicleID uuid.UUID) (*domain.VehicleRisk, error) {
	const op = "statistics.vehicle_risk"

	if _, err := s.vehicles.GetVehicle(ctx, vehicleID); err != nil {
		return nil, lookupError(op, "vehicle", vehicleID, err)
	}

	var b bucket
	err := s.forEachRecord(ctx, domain.InspectionFilter{VehicleID: &vehicleID}, b.add)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list inspections")
	}

	return &domain.VehicleRisk{
		VehicleID:      vehicleID,
		Completed:      b.completed,
		Passed:         b.passed,
		Failed:         b.failed,
		CriticalIssues: b.criticalIssues,
		RiskLevel:      domain.ClassifyRisk(b.criticalIssues, b.passed, b.failed),
	}, nil
}

// forEachRecord pages through every record matching the filter in
// scheduled order.
func (s *statisticsService) forEachRecord(ctx context.Context, filter domain.InspectionFilter, fn func(*domain.InspectionRecord)) error {
	params := domain.ListInspectionsParams{
		Filter:    filter,
		Page:      1,
		PageSize:  domain.MaxPageSize,
		SortField: domain.SortFieldScheduledAt,
		SortDir:   domain.SortAsc,
	}
	for {
		records, err := s.store.ListInspectionRecords(ctx, params)
		if err != nil {
			return err
		}
		for i := range records {
			fn(&records[i])
		}
		if len(records) < params.PageSize {
			return nil
		}
		params.Page++
	}
}

// =============================================================================
// Aggregation
// =============================================================================

// bucket accumulates counters for one breakdown key.
type bucket struct {
	total          int
	completed      int
	passed         int
	failed         int
	defects        int
	criticalIssues int
	timed          int
	totalMinutes   float64
	lastCompleted  *time.Time
}

func (b *bucket) add(rec *domain.InspectionRecord) {
	b.total++
	if !rec.IsCompleted() {
		return
	}
	b.completed++
	switch {
	case rec.Passed():
		b.passed++
	case rec.Failed():
		b.failed++
	}
	b.defects += rec.DefectsFound
	b.criticalIssues += rec.CriticalIssues

	if d, ok := rec.Duration(); ok && d >= 0 {
		b.timed++
		b.totalMinutes += d.Minutes()
	}
	if rec.CompletedAt != nil && (b.lastCompleted == nil || rec.CompletedAt.After(*b.lastCompleted)) {
		t := *rec.CompletedAt
		b.lastCompleted = &t
	}
}

func (b *bucket) counts() domain.InspectionCounts {
	return domain.InspectionCounts{
		Total:     b.total,
		Completed: b.completed,
		Pending:   b.total - b.completed,
		Passed:    b.passed,
		Failed:    b.failed,
	}
}

func (b *bucket) averageMinutes() float64 {
	if b.timed == 0 {
		return 0
	}
	return b.totalMinutes / float64(b.timed)
}

type aggregate struct {
	total       bucket
	byType      map[domain.InspectionType]*bucket
	byInspector map[uuid.UUID]*bucket
	byVehicle   map[uuid.UUID]*bucket
	byDay       map[string]*bucket
}

func newAggregate() *aggregate {
	return &aggregate{
		byType:      make(map[domain.InspectionType]*bucket),
		byInspector: make(map[uuid.UUID]*bucket),
		byVehicle:   make(map[uuid.UUID]*bucket),
		byDay:       make(map[string]*bucket),
	}
}

func (a *aggregate) add(rec *domain.InspectionRecord, inTrend bool) {
	a.total.add(rec)
	bucketFor(a.byType, rec.Type).add(rec)
	bucketFor(a.byInspector, rec.InspectorID).add(rec)
	bucketFor(a.byVehicle, rec.VehicleID).add(rec)
	if inTrend {
		bucketFor(a.byDay, rec.ScheduledAt.UTC().Format(trendDateLayout)).add(rec)
	}
}

func bucketFor[K comparable](m map[K]*bucket, key K) *bucket {
	b, ok := m[key]
	if !ok {
		b = &bucket{}
		m[key] = b
	}
	return b
}

// byTypeStats reports every known type, including ones with no records.
func (a *aggregate) byTypeStats() []domain.TypeStatistics {
	out := make([]domain.TypeStatistics, 0, len(domain.InspectionTypes))
	for _, t := range domain.InspectionTypes {
		var c domain.InspectionCounts
		if b, ok := a.byType[t]; ok {
			c = b.counts()
		}
		out = append(out, domain.TypeStatistics{
			Type:      t,
			Total:     c.Total,
			Completed: c.Completed,
			Passed:    c.Passed,
			Failed:    c.Failed,
			PassRate:  c.PassRate(),
		})
	}
	return out
}

func (a *aggregate) byVehicleStats() []domain.VehicleStatistics {
	out := make([]domain.VehicleStatistics, 0, len(a.byVehicle))
	for id, b := range a.byVehicle {
		c := b.counts()
		out = append(out, domain.VehicleStatistics{
			VehicleID:      id,
			Total:          c.Total,
			Completed:      c.Completed,
			Passed:         c.Passed,
			Failed:         c.Failed,
			PassRate:       c.PassRate(),
			TotalIssues:    b.defects,
			CriticalIssues: b.criticalIssues,
			LastInspection: b.lastCompleted,
			RiskLevel:      domain.ClassifyRisk(b.criticalIssues, b.passed, b.failed),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].VehicleID.String() < out[j].VehicleID.String()
	})
	return out
}

// trendPoints returns one point per day that has data, oldest first.
// Days without records are omitted.
func (a *aggregate) trendPoints() []domain.TrendPoint {
	out := make([]domain.TrendPoint, 0, len(a.byDay))
	for day, b := range a.byDay {
		c := b.counts()
		out = append(out, domain.TrendPoint{
			Date:        day,
			Total:       c.Total,
			Completed:   c.Completed,
			Passed:      c.Passed,
			Failed:      c.Failed,
			AverageTime: b.averageMinutes(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out
}
