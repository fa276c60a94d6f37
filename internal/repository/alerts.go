package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const insertMaintenanceAlert = `
INSERT INTO maintenance_alerts (id, inspection_id, vehicle_id, severity, issue_count, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (inspection_id, vehicle_id) DO NOTHING
`

type InsertMaintenanceAlertParams struct {
	ID           uuid.UUID
	InspectionID uuid.UUID
	VehicleID    uuid.UUID
	Severity     string
	IssueCount   int32
	CreatedAt    time.Time
}

// InsertMaintenanceAlert returns 0 when an alert for the same inspection and
// vehicle already exists.
func (q *Queries) InsertMaintenanceAlert(ctx context.Context, arg InsertMaintenanceAlertParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertMaintenanceAlert,
		arg.ID,
		arg.InspectionID,
		arg.VehicleID,
		arg.Severity,
		arg.IssueCount,
		arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
