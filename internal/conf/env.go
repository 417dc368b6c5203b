// env.go - Environment variable configuration and validation
package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "EDULEARN_DEBUG", validateEnvBool},

		// Web server
		{"webserver.port", "EDULEARN_PORT", validateEnvPort},
		{"webserver.debug", "EDULEARN_WEBSERVER_DEBUG", validateEnvBool},

		// Storage
		{"media.path", "EDULEARN_MEDIA_PATH", validateEnvPath},
		{"output.sqlite.enabled", "EDULEARN_SQLITE_ENABLED", validateEnvBool},
		{"output.sqlite.path", "EDULEARN_SQLITE_PATH", validateEnvPath},
		{"output.mysql.enabled", "EDULEARN_MYSQL_ENABLED", validateEnvBool},
		{"output.mysql.host", "EDULEARN_MYSQL_HOST", nil},
		{"output.mysql.port", "EDULEARN_MYSQL_PORT", validateEnvPort},
		{"output.mysql.username", "EDULEARN_MYSQL_USERNAME", nil},
		{"output.mysql.password", "EDULEARN_MYSQL_PASSWORD", nil},
		{"output.mysql.passwordfile", "EDULEARN_MYSQL_PASSWORD_FILE", validateEnvPath},
		{"output.mysql.database", "EDULEARN_MYSQL_DATABASE", nil},

		// Generative AI
		{"ai.apikey", "GEMINI_API_KEY", nil},
		{"ai.apikeyfile", "GEMINI_API_KEY_FILE", validateEnvPath},
		{"ai.model", "EDULEARN_AI_MODEL", nil},
		{"ai.baseurl", "EDULEARN_AI_BASEURL", nil},
		{"ai.timeout", "EDULEARN_AI_TIMEOUT", validateEnvDuration},

		// Cache
		{"cache.answerttl", "EDULEARN_ANSWER_TTL", validateEnvDuration},

		// Logging and telemetry
		{"logging.default_level", "EDULEARN_LOG_LEVEL", validateEnvLogLevel},
		{"telemetry.metrics.enabled", "EDULEARN_METRICS_ENABLED", validateEnvBool},
		{"telemetry.sentry.enabled", "EDULEARN_SENTRY_ENABLED", validateEnvBool},
		{"telemetry.sentry.dsn", "SENTRY_DSN", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f", value)
	}
	return nil
}

func validateEnvPort(value string) error {
	return validatePort(strings.TrimSpace(value))
}

func validateEnvPath(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("path must not be blank")
	}
	if strings.ContainsRune(value, 0) {
		return fmt.Errorf("path contains a NUL byte")
	}
	return nil
}

func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %s", d)
	}
	return nil
}

func validateEnvLogLevel(value string) error {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "trace", "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("log level must be one of trace, debug, info, warn, error")
}
