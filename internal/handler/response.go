package handler

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/karkyon/dump-tracker-system-sub000/internal/domain"
)

// =============================================================================
// Inspection Payloads
// =============================================================================

// InspectionResponse is the JSON shape of an inspection record.
type InspectionResponse struct {
	ID                uuid.UUID               `json:"id"`
	VehicleID         uuid.UUID               `json:"vehicleId"`
	InspectorID       uuid.UUID               `json:"inspectorId"`
	Type              domain.InspectionType   `json:"inspectionType"`
	Status            domain.InspectionStatus `json:"status"`
	ScheduledAt       time.Time               `json:"scheduledAt"`
	StartedAt         *time.Time              `json:"startedAt,omitempty"`
	CompletedAt       *time.Time              `json:"completedAt,omitempty"`
	OverallResult     *bool                   `json:"overallResult,omitempty"`
	DefectsFound      int                     `json:"defectsFound"`
	CriticalIssues    int                     `json:"criticalIssues"`
	NextInspectionDue *time.Time              `json:"nextInspectionDue,omitempty"`
	Location          *domain.Location        `json:"location,omitempty"`
	Notes             string                  `json:"notes,omitempty"`
	CreatedAt         time.Time               `json:"createdAt"`
	UpdatedAt         time.Time               `json:"updatedAt"`

	Results []ItemResultResponse `json:"results,omitempty"`
}

// ItemResultResponse is the JSON shape of a submitted checklist outcome.
type ItemResultResponse struct {
	ID               uuid.UUID        `json:"id"`
	InspectionItemID uuid.UUID        `json:"inspectionItemId"`
	IsPassed         bool             `json:"isPassed"`
	Severity         *domain.Severity `json:"severity,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
}

func toInspectionResponse(rec *domain.InspectionRecord) InspectionResponse {
	return InspectionResponse{
		ID:                rec.ID,
		VehicleID:         rec.VehicleID,
		InspectorID:       rec.InspectorID,
		Type:              rec.Type,
		Status:            rec.Status,
		ScheduledAt:       rec.ScheduledAt,
		StartedAt:         rec.StartedAt,
		CompletedAt:       rec.CompletedAt,
		OverallResult:     rec.OverallResult,
		DefectsFound:      rec.DefectsFound,
		CriticalIssues:    rec.CriticalIssues,
		NextInspectionDue: rec.NextInspectionDue,
		Location:          rec.Location,
		Notes:             rec.Notes,
		CreatedAt:         rec.CreatedAt,
		UpdatedAt:         rec.UpdatedAt,
	}
}

func toDetailResponse(detail *domain.InspectionDetail) InspectionResponse {
	resp := toInspectionResponse(&detail.Record)
	resp.Results = make([]ItemResultResponse, 0, len(detail.Results))
	for _, res := range detail.Results {
		resp.Results = append(resp.Results, ItemResultResponse{
			ID:               res.ID,
			InspectionItemID: res.InspectionItemID,
			IsPassed:         res.IsPassed,
			Severity:         res.Severity,
			Notes:            res.Notes,
			CreatedAt:        res.CreatedAt,
		})
	}
	return resp
}

// PaginationResponse describes the page returned by a list endpoint.
type PaginationResponse struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasMore    bool  `json:"hasMore"`
}

// InspectionListResponse is a page of inspection records.
type InspectionListResponse struct {
	Data       []InspectionResponse `json:"data"`
	Pagination PaginationResponse   `json:"pagination"`
}

func toListResponse(result *domain.ListInspectionsResult) InspectionListResponse {
	resp := InspectionListResponse{
		Data: make([]InspectionResponse, 0, len(result.Records)),
		Pagination: PaginationResponse{
			Page:       result.Page,
			PageSize:   result.PageSize,
			Total:      result.Total,
			TotalPages: result.TotalPages(),
			HasMore:    result.HasMore(),
		},
	}
	for i := range result.Records {
		resp.Data = append(resp.Data, toInspectionResponse(&result.Records[i]))
	}
	return resp
}

// =============================================================================
// Master Data Payloads
// =============================================================================

// VehicleResponse is the JSON shape of a vehicle.
type VehicleResponse struct {
	ID          uuid.UUID            `json:"id"`
	PlateNumber string               `json:"plateNumber"`
	Status      domain.VehicleStatus `json:"status"`
}

func toVehicleResponse(v *domain.Vehicle) VehicleResponse {
	return VehicleResponse{ID: v.ID, PlateNumber: v.PlateNumber, Status: v.Status}
}

// UserResponse is the JSON shape of a user.
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

// =============================================================================
// Event Payloads
// =============================================================================

// EventResponse is one journaled domain event.
type EventResponse struct {
	ID         uuid.UUID        `json:"id"`
	Kind       domain.EventKind `json:"kind"`
	ActorID    uuid.UUID        `json:"actorId"`
	OccurredAt time.Time        `json:"occurredAt"`
	Payload    json.RawMessage  `json:"payload"`
}

func toEventResponse(e domain.StoredEvent) EventResponse {
	return EventResponse{
		ID:         e.ID,
		Kind:       e.Kind,
		ActorID:    e.ActorID,
		OccurredAt: e.OccurredAt,
		Payload:    e.Payload,
	}
}
