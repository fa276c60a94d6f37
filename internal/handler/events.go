package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/karkyon/dump-tracker-system-sub000/internal/domain"
)

// EventLister reads the event journal.
type EventLister interface {
	ListEvents(ctx context.Context, params domain.ListEventsParams) ([]domain.StoredEvent, error)
}

// EventHandler serves the audit trail written by the event journal.
type EventHandler struct {
	events EventLister
	logger *slog.Logger
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(events EventLister, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

// RegisterRoutes registers the journal routes.
//
// Routes:
// - GET /api/events -> List
func (h *EventHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/events", h.List)
}

// List returns the most recent journaled events, newest first.
//
// Query parameters: kind, limit.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	q := newQueryParser(r)
	params := domain.ListEventsParams{
		Kind:  q.eventKind("kind"),
		Limit: q.int("limit"),
	}
	if err := q.err(); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	events, err := h.events.ListEvents(r.Context(), params.Normalize())
	if err != nil {
		InternalErrorResponse(w, r, h.logger, err)
		return
	}

	data := make([]EventResponse, 0, len(events))
	for _, e := range events {
		data = append(data, toEventResponse(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
