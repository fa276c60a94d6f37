// Package email sends operational emails over SMTP.
//
// The only message the fleet system sends is the maintenance alert that the
// maintenance notifier raises when an inspection grounds a vehicle.
package email

import (
	"context"
	"time"
)

// =============================================================================
// Interface Definition
// =============================================================================

// EmailService defines the interface for sending operational emails.
//
// All methods are context-aware for timeout and cancellation support.
type EmailService interface {
	// SendMaintenanceAlert tells the operations desk that a vehicle needs
	// maintenance before it can be dispatched again.
	SendMaintenanceAlert(ctx context.Context, to string, alert MaintenanceAlert) error
}

// =============================================================================
// Email Data Types
// =============================================================================

// Email represents a single email message.
type Email struct {
	To       string // Recipient email address
	Subject  string // Email subject line
	HTMLBody string // HTML content of the email
	TextBody string // Plain text fallback content
}

// MaintenanceAlert is the content of a maintenance alert email.
type MaintenanceAlert struct {
	VehicleID     string
	PlateNumber   string // Empty when the vehicle could not be resolved
	InspectionID  string
	SeverityLabel string // e.g. "Critical"
	OccurredAt    time.Time
	Issues        []AlertIssue
}

// AlertIssue is one line of the issue table.
type AlertIssue struct {
	ItemID        string
	SeverityLabel string
	Notes         string
}

// =============================================================================
// Configuration Types
// =============================================================================

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host     string // SMTP server hostname (e.g., "localhost" for Mailhog)
	Port     int    // SMTP server port (e.g., 1025 for Mailhog)
	Username string // SMTP authentication username (empty for Mailhog)
	Password string // SMTP authentication password (empty for Mailhog)
	From     string // Default sender email address
	FromName string // Default sender display name
}

const (
	// DefaultFromEmail is the default sender email for alerts.
	DefaultFromEmail = "fleet-alerts@localhost"

	// DefaultFromName is the default sender display name.
	DefaultFromName = "Fleet Inspections"
)
