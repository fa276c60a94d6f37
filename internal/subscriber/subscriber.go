// Package subscriber holds the event bus consumers that act on workflow
// events: the vehicle status synchronizer, the maintenance notifier, and the
// event journal.
//
// Each consumer registers itself on an *event.Bus. Registration order is
// dispatch order, so the composition root decides who runs first.
package subscriber

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/karkyon/dump-tracker-system-sub000/internal/domain"
)

// Subscriber names as they appear in logs and metrics.
const (
	NameVehicleStatusSynchronizer = "vehicle-status-synchronizer"
	NameMaintenanceNotifier       = "maintenance-notifier"
	NameEventJournal              = "event-journal"
)

// VehicleUpdater writes vehicle status. Unknown ids return domain.ENOTFOUND.
type VehicleUpdater interface {
	UpdateVehicleStatus(ctx context.Context, id uuid.UUID, status domain.VehicleStatus) error
}

// VehicleLookup reads vehicle master data.
type VehicleLookup interface {
	GetVehicle(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error)
}

// AlertRecorder stores maintenance alerts. RecordMaintenanceAlert reports
// false when an alert for the same inspection and vehicle already exists.
type AlertRecorder interface {
	RecordMaintenanceAlert(ctx context.Context, alert domain.MaintenanceAlert) (bool, error)
}

// EventStore is the durable journal behind EventJournal.
type EventStore interface {
	AppendEvent(ctx context.Context, e domain.StoredEvent) error
}

// label turns an enum value such as "CRITICAL" or "PRE_TRIP" into
// "Critical" or "Pre Trip".
func label(value string) string {
	// Casers carry state and are not shared between goroutines
	return cases.Title(language.English).String(strings.ReplaceAll(value, "_", " "))
}
