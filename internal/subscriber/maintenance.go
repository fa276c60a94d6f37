package subscriber

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/karkyon/dump-tracker-system-sub000/internal/domain"
	"github.com/karkyon/dump-tracker-system-sub000/internal/event"
	"github.com/karkyon/dump-tracker-system-sub000/internal/metrics"
)

// Escalation is what an Escalator receives for one maintenance request.
type Escalation struct {
	Event         domain.MaintenanceRequired
	Vehicle       *domain.Vehicle // nil when the vehicle could not be resolved
	SeverityLabel string
}

// VehicleName returns the plate number, or the vehicle id when unknown.
func (e Escalation) VehicleName() string {
	if e.Vehicle != nil && e.Vehicle.PlateNumber != "" {
		return e.Vehicle.PlateNumber
	}
	return e.Event.VehicleID.String()
}

// Escalator delivers an urgent maintenance request to one channel.
type Escalator interface {
	Channel() string
	Escalate(ctx context.Context, esc Escalation) error
}

// MaintenanceNotifier turns maintenance.required events into alerts.
//
// Each (inspection, vehicle) pair is alerted at most once; replays of the
// same event are recorded as duplicates and skipped. HIGH and CRITICAL
// requests go to every configured escalator. Lower severities are only
// recorded.
type MaintenanceNotifier struct {
	alerts     AlertRecorder
	vehicles   VehicleLookup
	escalators []Escalator
	now        func() time.Time
	logger     *slog.Logger
}

// NewMaintenanceNotifier creates a notifier. vehicles may be nil, in which
// case escalations carry only the vehicle id.
func NewMaintenanceNotifier(
	alerts AlertRecorder,
	vehicles VehicleLookup,
	logger *slog.Logger,
	escalators ...Escalator,
) *MaintenanceNotifier {
	return &MaintenanceNotifier{
		alerts:     alerts,
		vehicles:   vehicles,
		escalators: escalators,
		now:        time.Now,
		logger:     logger.With("subscriber", NameMaintenanceNotifier),
	}
}

// Register subscribes the notifier to maintenance.required.
func (n *MaintenanceNotifier) Register(bus *event.Bus) {
	event.On(bus, NameMaintenanceNotifier, n.Handle)
}

// Handle records and escalates one maintenance request.
func (n *MaintenanceNotifier) Handle(ctx context.Context, e domain.MaintenanceRequired) error {
	logger := n.logger.With(
		"vehicle_id", e.VehicleID,
		"inspection_id", e.InspectionID,
		"severity", e.Severity,
		"issues", len(e.Issues),
	)

	created, err := n.alerts.RecordMaintenanceAlert(ctx, domain.MaintenanceAlert{
		ID:           uuid.New(),
		InspectionID: e.InspectionID,
		VehicleID:    e.VehicleID,
		Severity:     e.Severity,
		IssueCount:   len(e.Issues),
		CreatedAt:    n.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("record maintenance alert: %w", err)
	}
	if !created {
		logger.Info("duplicate maintenance request ignored")
		return nil
	}

	if !e.Severity.IsUrgent() {
		logger.Info("maintenance request recorded")
		return nil
	}

	esc := Escalation{
		Event:         e,
		Vehicle:       n.lookupVehicle(ctx, e.VehicleID, logger),
		SeverityLabel: label(e.Severity.String()),
	}

	var errs []error
	for _, escalator := range n.escalators {
		err := escalator.Escalate(ctx, esc)
		metrics.EscalationSent(e.Severity, escalator.Channel(), err)
		if err != nil {
			logger.Error("maintenance escalation failed",
				"channel", escalator.Channel(),
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", escalator.Channel(), err))
			continue
		}
		logger.Debug("maintenance escalation sent", "channel", escalator.Channel())
	}

	logger.Warn("vehicle requires maintenance", "vehicle", esc.VehicleName())
	return errors.Join(errs...)
}

func (n *MaintenanceNotifier) lookupVehicle(ctx context.Context, id uuid.UUID, logger *slog.Logger) *domain.Vehicle {
	if n.vehicles == nil {
		return nil
	}
	v, err := n.vehicles.GetVehicle(ctx, id)
	if err != nil {
		logger.Warn("could not resolve vehicle for escalation", "error", err)
		return nil
	}
	return v
}
