// Package telemetry reports server-side failures to Sentry with secrets and
// personal data stripped.
package telemetry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/edulearn/edulearn-api/internal/buildinfo"
	"github.com/edulearn/edulearn-api/internal/conf"
	"github.com/edulearn/edulearn-api/internal/errors"
	"github.com/edulearn/edulearn-api/internal/logger"
)

// FlushTimeout bounds how long shutdown waits for queued events
const FlushTimeout = 2 * time.Second

// allowedExtras are the only event extras that survive privacy filtering
var allowedExtras = map[string]bool{
	"component": true,
	"category":  true,
	"operation": true,
}

// GetLogger returns the telemetry module logger
func GetLogger() logger.Logger {
	return logger.Global().Module("telemetry")
}

// InitSentry initializes the Sentry SDK and installs the error reporter.
// Reporting is opt-in: with Sentry disabled it only logs and returns nil.
func InitSentry(settings *conf.Settings, info buildinfo.BuildInfo) error {
	cfg := settings.Telemetry.Sentry
	if !cfg.Enabled {
		GetLogger().Info("Sentry telemetry is disabled")
		return nil
	}
	if cfg.DSN == "" {
		return errors.Newf("sentry enabled but no DSN configured").
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := sentry.Init(ClientOptions(settings, info)); err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}

	InitializeErrorIntegration(sentry.CurrentHub())

	GetLogger().Info("Sentry telemetry initialized",
		logger.String("environment", cfg.Environment),
		logger.Float64("sample_rate", cfg.SampleRate))
	return nil
}

// ClientOptions builds the privacy-preserving Sentry client options
func ClientOptions(settings *conf.Settings, info buildinfo.BuildInfo) sentry.ClientOptions {
	cfg := settings.Telemetry.Sentry
	sampleRate := cfg.SampleRate
	if sampleRate <= 0 || sampleRate > 1 {
		sampleRate = 1.0
	}
	environment := cfg.Environment
	if environment == "" {
		environment = "production"
	}

	return sentry.ClientOptions{
		Dsn:              cfg.DSN,
		SampleRate:       sampleRate,
		AttachStacktrace: false,
		Environment:      environment,
		ServerName:       "", // keep the hostname out of events
		Release:          "edulearn-api@" + info.GetVersion(),
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return applyPrivacyFilters(event)
		},
	}
}

// applyPrivacyFilters removes user, host and request data from an event and
// scrubs credentials from its message.
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	if event == nil {
		return nil
	}

	event.User = sentry.User{}
	event.ServerName = ""
	event.Request = nil
	event.Message = errors.ScrubMessage(event.Message)

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}

	for k := range event.Extra {
		if !allowedExtras[k] {
			delete(event.Extra, k)
		}
	}

	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	for i := range event.Exception {
		event.Exception[i].Value = errors.ScrubMessage(event.Exception[i].Value)
	}

	return event
}

// Flush waits for queued events to be sent
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}
