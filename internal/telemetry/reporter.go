package telemetry

import (
	"fmt"

	"github.com/getsentry/sentry-go"

	"github.com/edulearn/edulearn-api/internal/errors"
)

// SentryReporter sends enhanced errors to a Sentry hub
type SentryReporter struct {
	hub     *sentry.Hub
	enabled bool
}

// NewSentryReporter creates a reporter bound to hub. A nil hub disables it.
func NewSentryReporter(hub *sentry.Hub) *SentryReporter {
	return &SentryReporter{hub: hub, enabled: hub != nil}
}

// IsEnabled implements errors.TelemetryReporter
func (r *SentryReporter) IsEnabled() bool {
	return r != nil && r.enabled
}

// ReportError implements errors.TelemetryReporter. Only the component,
// category and operation travel with the message; other context values may
// carry user input and stay local.
func (r *SentryReporter) ReportError(ee *errors.EnhancedError) {
	if !r.IsEnabled() || ee == nil {
		return
	}

	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(levelFor(ee))
		scope.SetTag("component", ee.GetComponent())
		scope.SetTag("category", string(ee.Category))
		if ee.Priority != "" {
			scope.SetTag("priority", ee.Priority)
		}
		scope.SetExtra("component", ee.GetComponent())
		scope.SetExtra("category", string(ee.Category))
		if op, ok := ee.GetContext()["operation"]; ok {
			scope.SetExtra("operation", fmt.Sprint(op))
		}
		scope.SetFingerprint([]string{ee.GetComponent(), string(ee.Category), fingerprintOperation(ee)})

		r.hub.CaptureMessage(errors.ScrubMessage(ee.Error()))
	})

	ee.MarkReported()
}

func fingerprintOperation(ee *errors.EnhancedError) string {
	if op, ok := ee.GetContext()["operation"]; ok {
		return fmt.Sprint(op)
	}
	return "unknown"
}

// levelFor maps an explicit priority first, then the category
func levelFor(ee *errors.EnhancedError) sentry.Level {
	switch ee.Priority {
	case errors.PriorityCritical:
		return sentry.LevelFatal
	case errors.PriorityLow:
		return sentry.LevelInfo
	}
	if ee.Category == errors.CategoryUpstream {
		return sentry.LevelWarning
	}
	return sentry.LevelError
}
