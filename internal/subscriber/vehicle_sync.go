package subscriber

import (
	"context"
	"log/slog"

	"github.com/karkyon/dump-tracker-system-sub000/internal/domain"
	"github.com/karkyon/dump-tracker-system-sub000/internal/event"
	"github.com/karkyon/dump-tracker-system-sub000/internal/metrics"
)

// VehicleStatusSynchronizer applies vehicle.status.changed events to the
// vehicle store. It is the only writer of vehicle status and never decides
// a status itself.
//
// A failed update is logged, counted, and dropped. The inspection record is
// not compensated.
type VehicleStatusSynchronizer struct {
	vehicles VehicleUpdater
	logger   *slog.Logger
}

// NewVehicleStatusSynchronizer creates a synchronizer.
func NewVehicleStatusSynchronizer(vehicles VehicleUpdater, logger *slog.Logger) *VehicleStatusSynchronizer {
	return &VehicleStatusSynchronizer{
		vehicles: vehicles,
		logger:   logger.With("subscriber", NameVehicleStatusSynchronizer),
	}
}

// Register subscribes the synchronizer to vehicle.status.changed.
func (s *VehicleStatusSynchronizer) Register(bus *event.Bus) {
	event.On(bus, NameVehicleStatusSynchronizer, s.Handle)
}

// Handle applies one status change.
func (s *VehicleStatusSynchronizer) Handle(ctx context.Context, e domain.VehicleStatusChanged) error {
	logger := s.logger.With(
		"vehicle_id", e.VehicleID,
		"inspection_id", e.InspectionID,
		"old_status", e.OldStatus,
		"new_status", e.NewStatus,
	)

	if !e.NewStatus.IsValid() {
		metrics.VehicleStatusSyncFailures.Inc()
		logger.Error("vehicle status sync dropped: unknown status")
		return nil
	}

	if err := s.vehicles.UpdateVehicleStatus(ctx, e.VehicleID, e.NewStatus); err != nil {
		metrics.VehicleStatusSyncFailures.Inc()
		logger.Error("vehicle status sync dropped", "error", err)
		return nil
	}

	logger.Info("vehicle status synchronized")
	return nil
}
