package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/karkyon/dump-tracker-system-sub000/internal/domain"
	"github.com/karkyon/dump-tracker-system-sub000/internal/event"
	"github.com/karkyon/dump-tracker-system-sub000/internal/service"
)

// StatisticsHandler serves the reporting endpoints.
//
// It is the reporting collaborator of the workflow: each generated report is
// announced as a statistics.generated event.
type StatisticsHandler struct {
	stats     service.StatisticsService
	publisher event.Publisher
	now       func() time.Time
	logger    *slog.Logger
}

// StatisticsOption customizes a StatisticsHandler.
type StatisticsOption func(*StatisticsHandler)

// WithStatisticsClock overrides the time source that stamps
// statistics.generated events.
func WithStatisticsClock(now func() time.Time) StatisticsOption {
	return func(h *StatisticsHandler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewStatisticsHandler creates a new StatisticsHandler.
func NewStatisticsHandler(stats service.StatisticsService, publisher event.Publisher, logger *slog.Logger, opts ...StatisticsOption) *StatisticsHandler {
	h := &StatisticsHandler{
		stats:     stats,
		publisher: publisher,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers the reporting routes.
//
// Routes:
// - GET /api/statistics            -> Statistics
// - GET /api/vehicles/{id}/risk    -> VehicleRisk
func (h *StatisticsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/statistics", h.Statistics)
	mux.HandleFunc("GET /api/vehicles/{id}/risk", h.VehicleRisk)
}

// Statistics computes the rollup for the query filter.
//
// Query parameters: from, to, vehicleId, inspectorId, type.
func (h *StatisticsHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	q := newQueryParser(r)
	filter := domain.StatisticsFilter{
		From:        q.time("from"),
		To:          q.time("to"),
		VehicleID:   q.uuid("vehicleId"),
		InspectorID: q.uuid("inspectorId"),
		Type:        q.inspectionType("type"),
	}
	if err := q.err(); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	stats, err := h.stats.Compute(r.Context(), filter)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.publisher.Publish(r.Context(), domain.StatisticsGenerated{
		EventMeta: domain.NewEventMeta(actor, h.now()),
		Filter:    filter,
		Total:     stats.Total,
		Completed: stats.Completed,
	})

	writeJSON(w, http.StatusOK, stats)
}

// VehicleRisk classifies one vehicle from its inspection history.
func (h *StatisticsHandler) VehicleRisk(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		NotFoundResponse(w, r, h.logger)
		return
	}

	risk, err := h.stats.VehicleRisk(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, risk)
}
