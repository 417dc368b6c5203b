package logger

import (
	"regexp"
)

type redaction struct {
	pattern     *regexp.Regexp
	replacement string
}

// sensitiveData lists credentials that must not reach log output
var sensitiveData = []redaction{
	{regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9-._~+/]+=*)`), "$1[REDACTED]"},
	{regexp.MustCompile(`(?i)((api|access|auth|token|secret|key|passw(or)?d)[0-9a-z\-_\.]*[\s:=]+)([^;,\s&"]{5,})`), "$1[REDACTED]"},
	// Google API keys appearing bare, e.g. echoed back in an upstream message
	{regexp.MustCompile(`AIza[0-9A-Za-z_\-]{20,}`), "[REDACTED]"},
	// DSN passwords, user:password@tcp(host)
	{regexp.MustCompile(`([A-Za-z0-9_]+:)([^@\s/]+)(@tcp\()`), "$1[REDACTED]$3"},
}

// RedactSensitiveData replaces sensitive information with "[REDACTED]"
func RedactSensitiveData(input string) string {
	if input == "" {
		return input
	}
	for _, r := range sensitiveData {
		input = r.pattern.ReplaceAllString(input, r.replacement)
	}
	return input
}
