package telemetry

import (
	"github.com/getsentry/sentry-go"

	"github.com/edulearn/edulearn-api/internal/errors"
)

// InitializeErrorIntegration routes reportable enhanced errors to hub
func InitializeErrorIntegration(hub *sentry.Hub) {
	errors.SetTelemetryReporter(NewSentryReporter(hub))
}

// DisableErrorIntegration stops error reporting
func DisableErrorIntegration() {
	errors.SetTelemetryReporter(nil)
}
