package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const getVehicle = `
SELECT id, plate_number, status, created_at, updated_at
FROM vehicles
WHERE id = $1
`

func (q *Queries) GetVehicle(ctx context.Context, id uuid.UUID) (Vehicle, error) {
	row := q.db.QueryRowContext(ctx, getVehicle, id)
	var i Vehicle
	err := row.Scan(
		&i.ID,
		&i.PlateNumber,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createVehicle = `
INSERT INTO vehicles (id, plate_number, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
`

type CreateVehicleParams struct {
	ID          uuid.UUID
	PlateNumber string
	Status      string
	CreatedAt   time.Time
}

func (q *Queries) CreateVehicle(ctx context.Context, arg CreateVehicleParams) error {
	_, err := q.db.ExecContext(ctx, createVehicle, arg.ID, arg.PlateNumber, arg.Status, arg.CreatedAt)
	return err
}

const updateVehicleStatus = `
UPDATE vehicles
SET status = $2, updated_at = $3
WHERE id = $1
`

type UpdateVehicleStatusParams struct {
	ID        uuid.UUID
	Status    string
	UpdatedAt time.Time
}

// UpdateVehicleStatus returns the number of rows changed.
func (q *Queries) UpdateVehicleStatus(ctx context.Context, arg UpdateVehicleStatusParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateVehicleStatus, arg.ID, arg.Status, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
