// conf/validate.go

package conf

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxAnswerTTL caps how long a generated answer may be served from cache
const MaxAnswerTTL = time.Hour

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateWebServerSettings(&settings.WebServer); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateOutputSettings(&settings.Output); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateAISettings(&settings.AI); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateCacheSettings(&settings.Cache); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if settings.Media.Path == "" {
		ve.Errors = append(ve.Errors, "media path must not be empty")
	}

	if settings.Telemetry.Sentry.Enabled && settings.Telemetry.Sentry.DSN == "" {
		ve.Errors = append(ve.Errors, "Sentry DSN is required when Sentry is enabled")
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validatePort(port string) error {
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("port must be numeric, got %q", port)
	}
	if n < 1 || n > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", n)
	}
	return nil
}

func validateWebServerSettings(settings *WebServerSettings) error {
	if err := validatePort(settings.Port); err != nil {
		return fmt.Errorf("WebServer %w", err)
	}
	if settings.ShutdownTimeout < 0 {
		return errors.New("WebServer shutdown timeout must not be negative")
	}
	return nil
}

// validateOutputSettings requires exactly one enabled store
func validateOutputSettings(settings *OutputSettings) error {
	switch {
	case settings.SQLite.Enabled && settings.MySQL.Enabled:
		return errors.New("only one database can be enabled, both SQLite and MySQL are enabled")
	case settings.SQLite.Enabled:
		if settings.SQLite.Path == "" {
			return errors.New("SQLite path is required when SQLite is enabled")
		}
	case settings.MySQL.Enabled:
		var missing []string
		if settings.MySQL.Host == "" {
			missing = append(missing, "host")
		}
		if settings.MySQL.Database == "" {
			missing = append(missing, "database")
		}
		if settings.MySQL.Username == "" {
			missing = append(missing, "username")
		}
		if len(missing) > 0 {
			return fmt.Errorf("MySQL settings missing: %s", strings.Join(missing, ", "))
		}
		if err := validatePort(settings.MySQL.Port); err != nil {
			return fmt.Errorf("MySQL %w", err)
		}
	default:
		return errors.New("no database enabled, enable SQLite or MySQL")
	}
	return nil
}

func validateAISettings(settings *AISettings) error {
	var errs []string
	if strings.TrimSpace(settings.APIKey) == "" {
		errs = append(errs, "AI API key is required (set GEMINI_API_KEY or GEMINI_API_KEY_FILE)")
	}
	if settings.Model == "" {
		errs = append(errs, "AI model must not be empty")
	}
	if settings.Timeout <= 0 {
		errs = append(errs, "AI timeout must be positive")
	}
	if settings.RateLimit < 0 {
		errs = append(errs, "AI rate limit must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("AI settings errors: %v", errs)
	}
	return nil
}

func validateCacheSettings(settings *CacheSettings) error {
	if settings.AnswerTTL <= 0 {
		return fmt.Errorf("answer cache TTL must be positive, got %s", settings.AnswerTTL)
	}
	if settings.AnswerTTL > MaxAnswerTTL {
		return fmt.Errorf("answer cache TTL must not exceed %s, got %s", MaxAnswerTTL, settings.AnswerTTL)
	}
	if settings.SubjectTTL < 0 {
		return fmt.Errorf("subject cache TTL must not be negative, got %s", settings.SubjectTTL)
	}
	return nil
}
