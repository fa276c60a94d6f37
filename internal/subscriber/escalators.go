package subscriber

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"github.com/karkyon/dump-tracker-system-sub000/internal/domain"
	"github.com/karkyon/dump-tracker-system-sub000/internal/email"
)

// Escalation channels.
const (
	ChannelSlack = "slack"
	ChannelEmail = "email"
	ChannelLog   = "log"
)

// =============================================================================
// Slack
// =============================================================================

// SlackEscalator posts to a Slack incoming webhook.
type SlackEscalator struct {
	webhookURL string
	client     *http.Client
}

// NewSlackEscalator creates an escalator for the given webhook URL.
func NewSlackEscalator(webhookURL string) *SlackEscalator {
	return &SlackEscalator{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Channel implements Escalator.
func (s *SlackEscalator) Channel() string { return ChannelSlack }

// Escalate implements Escalator.
func (s *SlackEscalator) Escalate(ctx context.Context, esc Escalation) error {
	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf(":rotating_light: *%s maintenance required* for vehicle %s",
			esc.SeverityLabel, esc.VehicleName()),
		Attachments: []slack.Attachment{{
			Color:  slackColor(esc.Event.Severity),
			Title:  "Inspection " + esc.Event.InspectionID.String(),
			Fields: slackIssueFields(esc.Event.Issues),
			Footer: "Reported " + esc.Event.OccurredAt.UTC().Format(time.RFC3339),
		}},
	}

	if err := slack.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.client, msg); err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	return nil
}

func slackColor(sev domain.Severity) string {
	if sev == domain.SeverityCritical {
		return "danger"
	}
	return "warning"
}

func slackIssueFields(issues []domain.MaintenanceIssue) []slack.AttachmentField {
	fields := make([]slack.AttachmentField, 0, len(issues))
	for _, issue := range issues {
		value := label(issue.Severity.String())
		if issue.Notes != "" {
			value += ": " + issue.Notes
		}
		fields = append(fields, slack.AttachmentField{
			Title: "Item " + issue.InspectionItemID.String(),
			Value: value,
		})
	}
	return fields
}

// =============================================================================
// Email
// =============================================================================

// EmailEscalator mails the operations desk.
type EmailEscalator struct {
	emails email.EmailService
	to     []string
}

// NewEmailEscalator creates an escalator that mails every recipient.
func NewEmailEscalator(emails email.EmailService, to ...string) *EmailEscalator {
	return &EmailEscalator{emails: emails, to: to}
}

// Channel implements Escalator.
func (e *EmailEscalator) Channel() string { return ChannelEmail }

// Escalate implements Escalator.
func (e *EmailEscalator) Escalate(ctx context.Context, esc Escalation) error {
	alert := email.MaintenanceAlert{
		VehicleID:     esc.Event.VehicleID.String(),
		InspectionID:  esc.Event.InspectionID.String(),
		SeverityLabel: esc.SeverityLabel,
		OccurredAt:    esc.Event.OccurredAt,
		Issues:        make([]email.AlertIssue, 0, len(esc.Event.Issues)),
	}
	if esc.Vehicle != nil {
		alert.PlateNumber = esc.Vehicle.PlateNumber
	}
	for _, issue := range esc.Event.Issues {
		alert.Issues = append(alert.Issues, email.AlertIssue{
			ItemID:        issue.InspectionItemID.String(),
			SeverityLabel: label(issue.Severity.String()),
			Notes:         issue.Notes,
		})
	}

	// One message per recipient so a bad address does not block the rest
	var errs []error
	for _, to := range e.to {
		if err := e.emails.SendMaintenanceAlert(ctx, to, alert); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", to, err))
		}
	}
	return errors.Join(errs...)
}

// =============================================================================
// Log
// =============================================================================

// LogEscalator writes the request to the structured log. It is always
// configured, so an urgent request is never silent.
type LogEscalator struct {
	logger *slog.Logger
}

// NewLogEscalator creates a log escalator.
func NewLogEscalator(logger *slog.Logger) *LogEscalator {
	return &LogEscalator{logger: logger}
}

// Channel implements Escalator.
func (l *LogEscalator) Channel() string { return ChannelLog }

// Escalate implements Escalator.
func (l *LogEscalator) Escalate(ctx context.Context, esc Escalation) error {
	items := make([]string, 0, len(esc.Event.Issues))
	for _, issue := range esc.Event.Issues {
		items = append(items, issue.InspectionItemID.String())
	}

	level := slog.LevelWarn
	if esc.Event.Severity == domain.SeverityCritical {
		level = slog.LevelError
	}
	l.logger.Log(ctx, level, "maintenance escalation",
		"vehicle", esc.VehicleName(),
		"vehicle_id", esc.Event.VehicleID,
		"inspection_id", esc.Event.InspectionID,
		"severity", esc.Event.Severity,
		"items", strings.Join(items, ","),
	)
	return nil
}

// Compile-time interface checks
var (
	_ Escalator = (*SlackEscalator)(nil)
	_ Escalator = (*EmailEscalator)(nil)
	_ Escalator = (*LogEscalator)(nil)
)
