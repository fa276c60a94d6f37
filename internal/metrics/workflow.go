package metrics

import "github.com/karkyon/dump-tracker-system-sub000/internal/domain"

// InspectionStarted records a started inspection.
func InspectionStarted(t domain.InspectionType) {
	InspectionsStarted.WithLabelValues(string(t)).Inc()
}

// InspectionCompleted records a completed inspection and its defects.
func InspectionCompleted(t domain.InspectionType, outcome domain.InspectionOutcome) {
	result := "failed"
	if outcome.Passed {
		result = "passed"
	}
	InspectionsCompleted.WithLabelValues(string(t), result).Inc()

	if minor := outcome.DefectsFound - outcome.CriticalIssues; minor > 0 {
		InspectionDefects.WithLabelValues("minor").Add(float64(minor))
	}
	if outcome.CriticalIssues > 0 {
		InspectionDefects.WithLabelValues("critical").Add(float64(outcome.CriticalIssues))
	}
}

// EscalationSent records the result of one escalation attempt.
func EscalationSent(severity domain.Severity, channel string, err error) {
	status := "sent"
	if err != nil {
		status = "failed"
	}
	MaintenanceEscalations.WithLabelValues(string(severity), channel, status).Inc()
}
