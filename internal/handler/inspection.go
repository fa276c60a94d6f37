package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/karkyon/dump-tracker-system-sub000/internal/domain"
	"github.com/karkyon/dump-tracker-system-sub000/internal/service"
)

// =============================================================================
// Request Payloads
// =============================================================================

// StartInspectionRequest is the body of start and schedule requests.
type StartInspectionRequest struct {
	VehicleID   uuid.UUID             `json:"vehicleId"`
	InspectorID uuid.UUID             `json:"inspectorId"`
	Type        domain.InspectionType `json:"inspectionType"`
	ScheduledAt *time.Time            `json:"scheduledAt,omitempty"`
	Location    *domain.Location      `json:"location,omitempty"`
	Notes       string                `json:"notes,omitempty"`
}

func (req StartInspectionRequest) params(actor uuid.UUID) domain.StartInspectionParams {
	return domain.StartInspectionParams{
		VehicleID:   req.VehicleID,
		InspectorID: req.InspectorID,
		Type:        req.Type,
		ScheduledAt: req.ScheduledAt,
		Location:    req.Location,
		Notes:       req.Notes,
		ActorID:     actor,
	}
}

// ItemResultRequest is one checklist outcome in a completion request.
type ItemResultRequest struct {
	InspectionItemID uuid.UUID        `json:"inspectionItemId"`
	IsPassed         bool             `json:"isPassed"`
	Severity         *domain.Severity `json:"severity,omitempty"`
	Notes            string           `json:"notes,omitempty"`
}

// CompleteInspectionRequest is the body of a completion request.
type CompleteInspectionRequest struct {
	Results []ItemResultRequest `json:"results"`
}

// =============================================================================
// Handler Configuration
// =============================================================================

// InspectionHandler exposes the inspection workflow over JSON.
type InspectionHandler struct {
	inspections service.InspectionService
	logger      *slog.Logger
}

// NewInspectionHandler creates a new InspectionHandler.
func NewInspectionHandler(inspections service.InspectionService, logger *slog.Logger) *InspectionHandler {
	return &InspectionHandler{
		inspections: inspections,
		logger:      logger,
	}
}

// =============================================================================
// Route Registration
// =============================================================================

// RegisterRoutes registers all inspection routes with the provided mux.
//
// Routes:
// - GET  /api/inspections                -> List
// - POST /api/inspections                -> Start
// - POST /api/inspections/schedule       -> Schedule
// - GET  /api/inspections/{id}           -> Show
// - POST /api/inspections/{id}/start     -> StartScheduled
// - POST /api/inspections/{id}/complete  -> Complete
func (h *InspectionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/inspections", h.List)
	mux.HandleFunc("POST /api/inspections", h.Start)
	mux.HandleFunc("POST /api/inspections/schedule", h.Schedule)
	mux.HandleFunc("GET /api/inspections/{id}", h.Show)
	mux.HandleFunc("POST /api/inspections/{id}/start", h.StartScheduled)
	mux.HandleFunc("POST /api/inspections/{id}/complete", h.Complete)
}

// =============================================================================
// POST /api/inspections - Start Inspection
// =============================================================================

// Start begins an inspection immediately.
func (h *InspectionHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, h.inspections.Start)
}

// =============================================================================
// POST /api/inspections/schedule - Schedule Inspection
// =============================================================================

// Schedule plans an inspection for later.
func (h *InspectionHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, h.inspections.Schedule)
}

type createFunc func(ctx context.Context, params domain.StartInspectionParams) (*domain.InspectionRecord, error)

func (h *InspectionHandler) create(w http.ResponseWriter, r *http.Request, fn createFunc) {
	actor, err := actorID(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req StartInspectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	rec, err := fn(r.Context(), req.params(actor))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", "/api/inspections/"+rec.ID.String())
	writeJSON(w, http.StatusCreated, toInspectionResponse(rec))
}

// =============================================================================
// POST /api/inspections/{id}/start - Start Scheduled Inspection
// =============================================================================

// StartScheduled begins a previously scheduled inspection.
func (h *InspectionHandler) StartScheduled(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		NotFoundResponse(w, r, h.logger)
		return
	}
	actor, err := actorID(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	rec, err := h.inspections.StartScheduled(r.Context(), domain.StartScheduledParams{
		RecordID: id,
		ActorID:  actor,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toInspectionResponse(rec))
}

// =============================================================================
// POST /api/inspections/{id}/complete - Complete Inspection
// =============================================================================

// Complete submits item results and finalizes the inspection.
func (h *InspectionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		NotFoundResponse(w, r, h.logger)
		return
	}
	actor, err := actorID(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req CompleteInspectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	results := make([]domain.ItemResultInput, 0, len(req.Results))
	for _, res := range req.Results {
		results = append(results, domain.ItemResultInput{
			InspectionItemID: res.InspectionItemID,
			IsPassed:         res.IsPassed,
			Severity:         res.Severity,
			Notes:            res.Notes,
		})
	}

	rec, err := h.inspections.Complete(r.Context(), domain.CompleteInspectionParams{
		RecordID: id,
		Results:  results,
		ActorID:  actor,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toInspectionResponse(rec))
}

// =============================================================================
// GET /api/inspections/{id} - Show Inspection
// =============================================================================

// Show returns one inspection with its item results.
func (h *InspectionHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		NotFoundResponse(w, r, h.logger)
		return
	}

	detail, err := h.inspections.Get(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toDetailResponse(detail))
}

// =============================================================================
// GET /api/inspections - List Inspections
// =============================================================================

// List returns a filtered, sorted page of inspections.
//
// Query parameters: vehicleId, inspectorId, type, status, from, to, page,
// pageSize, sort (scheduled_at|completed_at|created_at|status|inspection_type)
// and order (asc|desc).
func (h *InspectionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := newQueryParser(r)
	params := domain.ListInspectionsParams{
		Filter: domain.InspectionFilter{
			VehicleID:   q.uuid("vehicleId"),
			InspectorID: q.uuid("inspectorId"),
			Type:        q.inspectionType("type"),
			Status:      q.inspectionStatus("status"),
			From:        q.time("from"),
			To:          q.time("to"),
		},
		Page:     q.int("page"),
		PageSize: q.int("pageSize"),
	}

	query := r.URL.Query()
	if sort := query.Get("sort"); sort != "" {
		if !domain.IsValidSortField(sort) {
			q.fail("sort", "unknown sort field")
		}
		params.SortField = sort
	}
	switch order := domain.SortDirection(query.Get("order")); order {
	case "", domain.SortAsc, domain.SortDesc:
		params.SortDir = order
	default:
		q.fail("order", "must be asc or desc")
	}

	if err := q.err(); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.inspections.List(r.Context(), params)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toListResponse(result))
}
