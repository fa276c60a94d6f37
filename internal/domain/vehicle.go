package domain

import (
	"github.com/google/uuid"
)

// VehicleStatus is the operational status of a vehicle.
type VehicleStatus string

const (
	VehicleStatusAvailable    VehicleStatus = "AVAILABLE"
	VehicleStatusInUse        VehicleStatus = "IN_USE"
	VehicleStatusInInspection VehicleStatus = "IN_INSPECTION"
	VehicleStatusMaintenance  VehicleStatus = "MAINTENANCE"
	VehicleStatusRetired      VehicleStatus = "RETIRED"
)

// String returns the string representation of the status.
func (s VehicleStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a recognized value.
func (s VehicleStatus) IsValid() bool {
	switch s {
	case VehicleStatusAvailable, VehicleStatusInUse, VehicleStatusInInspection,
		VehicleStatusMaintenance, VehicleStatusRetired:
		return true
	}
	return false
}

// IsTerminal returns true for statuses a vehicle never leaves.
func (s VehicleStatus) IsTerminal() bool {
	return s == VehicleStatusRetired
}

// Vehicle is the slice of vehicle master data the workflow reads.
type Vehicle struct {
	ID          uuid.UUID
	PlateNumber string
	Status      VehicleStatus
}

// CanBeInspected returns true if an inspection may start on the vehicle.
func (v *Vehicle) CanBeInspected() bool {
	return !v.Status.IsTerminal()
}
