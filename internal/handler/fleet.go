package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/karkyon/dump-tracker-system-sub000/internal/domain"
)

// FleetStore is the master data the workflow reads through its lookups.
type FleetStore interface {
	CreateVehicle(ctx context.Context, v *domain.Vehicle) error
	GetVehicle(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error)
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// CreateVehicleRequest registers a vehicle.
type CreateVehicleRequest struct {
	PlateNumber string               `json:"plateNumber"`
	Status      domain.VehicleStatus `json:"status,omitempty"`
}

// CreateUserRequest registers an inspector.
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FleetHandler registers and reads vehicles and inspectors.
type FleetHandler struct {
	store  FleetStore
	logger *slog.Logger
}

// NewFleetHandler creates a new FleetHandler.
func NewFleetHandler(store FleetStore, logger *slog.Logger) *FleetHandler {
	return &FleetHandler{store: store, logger: logger}
}

// RegisterRoutes registers the master data routes.
//
// Routes:
// - POST /api/vehicles       -> CreateVehicle
// - GET  /api/vehicles/{id}  -> ShowVehicle
// - POST /api/users          -> CreateUser
// - GET  /api/users/{id}     -> ShowUser
func (h *FleetHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/vehicles", h.CreateVehicle)
	mux.HandleFunc("GET /api/vehicles/{id}", h.ShowVehicle)
	mux.HandleFunc("POST /api/users", h.CreateUser)
	mux.HandleFunc("GET /api/users/{id}", h.ShowUser)
}

// CreateVehicle registers a vehicle. Status defaults to AVAILABLE.
func (h *FleetHandler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	const op = "fleet.create_vehicle"

	var req CreateVehicleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	v := &domain.Vehicle{
		ID:          uuid.New(),
		PlateNumber: strings.TrimSpace(req.PlateNumber),
		Status:      req.Status,
	}
	if v.Status == "" {
		v.Status = domain.VehicleStatusAvailable
	}

	fields := map[string]string{}
	if v.PlateNumber == "" {
		fields["plateNumber"] = "is required"
	}
	if !v.Status.IsValid() {
		fields["status"] = "unknown vehicle status"
	}
	if len(fields) > 0 {
		ErrorResponse(w, r, h.logger, &domain.ValidationError{Op: op, Fields: fields})
		return
	}

	if err := h.store.CreateVehicle(r.Context(), v); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.logger.Info("vehicle registered", "vehicle_id", v.ID, "plate_number", v.PlateNumber)
	w.Header().Set("Location", "/api/vehicles/"+v.ID.String())
	writeJSON(w, http.StatusCreated, toVehicleResponse(v))
}

// ShowVehicle returns one vehicle.
func (h *FleetHandler) ShowVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		NotFoundResponse(w, r, h.logger)
		return
	}

	v, err := h.store.GetVehicle(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toVehicleResponse(v))
}

// CreateUser registers an inspector.
func (h *FleetHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	const op = "fleet.create_user"

	var req CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	u := &domain.User{
		ID:    uuid.New(),
		Name:  strings.TrimSpace(req.Name),
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
	}

	fields := map[string]string{}
	if u.Name == "" {
		fields["name"] = "is required"
	}
	if !strings.Contains(u.Email, "@") {
		fields["email"] = "must be an email address"
	}
	if len(fields) > 0 {
		ErrorResponse(w, r, h.logger, &domain.ValidationError{Op: op, Fields: fields})
		return
	}

	if err := h.store.CreateUser(r.Context(), u); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.logger.Info("user registered", "user_id", u.ID)
	w.Header().Set("Location", "/api/users/"+u.ID.String())
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

// ShowUser returns one user.
func (h *FleetHandler) ShowUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		NotFoundResponse(w, r, h.logger)
		return
	}

	u, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}
