package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// =============================================================================
// SMTP Email Service Implementation
// =============================================================================

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPEmailService sends emails via SMTP.
//
// Works with Mailhog in development (no authentication) and any standard
// SMTP relay in production.
type SMTPEmailService struct {
	config    SMTPConfig
	templates *template.Template
	sendMail  sendFunc
	logger    *slog.Logger
}

// NewSMTPEmailService creates a new SMTP-based email service.
//
// Example usage:
//
//	emailService, err := email.NewSMTPEmailService(
//	    email.SMTPConfig{Host: "localhost", Port: 1025},
//	    logger,
//	)
func NewSMTPEmailService(config SMTPConfig, logger *slog.Logger) (*SMTPEmailService, error) {
	if config.From == "" {
		config.From = DefaultFromEmail
	}
	if config.FromName == "" {
		config.FromName = DefaultFromName
	}

	templates, err := template.New("email").Funcs(emailTemplateFuncs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &SMTPEmailService{
		config:    config,
		templates: templates,
		sendMail:  smtp.SendMail,
		logger:    logger,
	}, nil
}

// =============================================================================
// EmailService Interface Implementation
// =============================================================================

// SendMaintenanceAlert sends a maintenance alert to the operations desk.
func (s *SMTPEmailService) SendMaintenanceAlert(ctx context.Context, to string, alert MaintenanceAlert) error {
	htmlBody, err := s.renderTemplate("maintenance_alert.html", alert)
	if err != nil {
		return fmt.Errorf("failed to render maintenance alert template: %w", err)
	}

	vehicle := alert.PlateNumber
	if vehicle == "" {
		vehicle = alert.VehicleID
	}

	var text strings.Builder
	fmt.Fprintf(&text, "%s maintenance required for vehicle %s.\n\n", alert.SeverityLabel, vehicle)
	fmt.Fprintf(&text, "Inspection: %s\n", alert.InspectionID)
	fmt.Fprintf(&text, "Reported:   %s\n\n", alert.OccurredAt.UTC().Format(time.RFC1123))
	text.WriteString("Issues:\n")
	for _, issue := range alert.Issues {
		fmt.Fprintf(&text, "  - %s [%s]", issue.ItemID, issue.SeverityLabel)
		if issue.Notes != "" {
			fmt.Fprintf(&text, ": %s", issue.Notes)
		}
		text.WriteString("\n")
	}

	return s.send(ctx, Email{
		To:       to,
		Subject:  fmt.Sprintf("[%s] Maintenance required: %s", alert.SeverityLabel, vehicle),
		HTMLBody: htmlBody,
		TextBody: text.String(),
	})
}

// =============================================================================
// Internal Methods
// =============================================================================

// send sends an email via SMTP.
func (s *SMTPEmailService) send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := s.buildMessage(email)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	// Mailhog needs no credentials
	var auth smtp.Auth
	if s.config.Username != "" && s.config.Password != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	if err := s.sendMail(addr, auth, s.config.From, []string{email.To}, msg); err != nil {
		s.logger.Error("failed to send email",
			"to", email.To,
			"subject", email.Subject,
			"error", err,
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		"to", email.To,
		"subject", email.Subject,
	)
	return nil
}

// buildMessage constructs the raw email message with headers.
func (s *SMTPEmailService) buildMessage(email Email) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s <%s>\r\n", s.config.FromName, s.config.From)
	fmt.Fprintf(&buf, "To: %s\r\n", email.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", email.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")

	boundary := "===============FLEET_ALERT_BOUNDARY==============="
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(email.TextBody)
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	buf.WriteString(email.HTMLBody)
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	return buf.Bytes()
}

// renderTemplate renders an email template with the given data.
func (s *SMTPEmailService) renderTemplate(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// emailTemplateFuncs returns template functions available in email templates.
func emailTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatTime": func(t time.Time) string {
			return t.UTC().Format("2006-01-02 15:04 MST")
		},
		"currentYear": func() int {
			return time.Now().Year()
		},
	}
}

var _ EmailService = (*SMTPEmailService)(nil)
