// Package errors - telemetry integration (optional)
package errors

import (
	"regexp"
	"sync"
)

// TelemetryReporter is an interface for reporting errors to telemetry systems
type TelemetryReporter interface {
	ReportError(err *EnhancedError)
	IsEnabled() bool
}

var (
	telemetryMu             sync.RWMutex
	globalTelemetryReporter TelemetryReporter
)

// SetTelemetryReporter sets the global telemetry reporter. Passing nil
// disables reporting.
func SetTelemetryReporter(reporter TelemetryReporter) {
	telemetryMu.Lock()
	defer telemetryMu.Unlock()
	globalTelemetryReporter = reporter
	hasActiveReporting.Store(reporter != nil && reporter.IsEnabled())
}

// GetTelemetryReporter returns the current telemetry reporter
func GetTelemetryReporter() TelemetryReporter {
	telemetryMu.RLock()
	defer telemetryMu.RUnlock()
	return globalTelemetryReporter
}

// reportableCategories lists the categories worth sending off-box. Caller
// mistakes (validation, not-found) stay local.
var reportableCategories = map[ErrorCategory]bool{
	CategoryUpstream:      true,
	CategoryInternal:      true,
	CategoryDatabase:      true,
	CategoryFileIO:        true,
	CategoryConfiguration: true,
}

// reportToTelemetry reports an error to the configured telemetry system
func reportToTelemetry(ee *EnhancedError) {
	if !reportableCategories[ee.Category] {
		return
	}
	// A wrapped error that already went out is not sent again
	var inner *EnhancedError
	if As(ee.Err, &inner) && inner.IsReported() {
		ee.MarkReported()
		return
	}
	reporter := GetTelemetryReporter()
	if reporter != nil && reporter.IsEnabled() && !ee.IsReported() {
		reporter.ReportError(ee)
	}
}

// Precompiled patterns for ScrubMessage
var (
	urlQueryRegex  = regexp.MustCompile(`(https?://[^?\s]+)\?\S*`)
	apiKeyRegex    = regexp.MustCompile(`(?i)(api[_-]?key|key|token|auth)[=:]\s*\S+`)
	googleKeyRegex = regexp.MustCompile(`AIza[0-9A-Za-z_\-]{20,}`)
)

// ScrubMessage removes query strings and credentials from an error message
// before it leaves the process.
func ScrubMessage(message string) string {
	scrubbed := urlQueryRegex.ReplaceAllString(message, "$1?[REDACTED]")
	scrubbed = apiKeyRegex.ReplaceAllString(scrubbed, "[API_KEY_REDACTED]")
	return googleKeyRegex.ReplaceAllString(scrubbed, "[API_KEY_REDACTED]")
}
