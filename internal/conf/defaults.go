// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Default values referenced outside this package
const (
	DefaultAIModel    = "gemini-1.5-flash"
	DefaultAIBaseURL  = "https://generativelanguage.googleapis.com/"
	DefaultAnswerTTL  = time.Hour
	DefaultSubjectTTL = time.Minute
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("webserver.port", "8000")
	viper.SetDefault("webserver.debug", false)
	viper.SetDefault("webserver.bodylimit", "1M")
	viper.SetDefault("webserver.shutdowntimeout", 10*time.Second)
	viper.SetDefault("webserver.allowedorigins", []string{"*"})

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "edulearn.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "edulearn")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.passwordfile", "")
	viper.SetDefault("output.mysql.database", "edulearn")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	viper.SetDefault("media.path", "media")

	viper.SetDefault("ai.apikey", "")
	viper.SetDefault("ai.apikeyfile", "")
	viper.SetDefault("ai.model", DefaultAIModel)
	viper.SetDefault("ai.baseurl", DefaultAIBaseURL)
	viper.SetDefault("ai.timeout", 30*time.Second)
	viper.SetDefault("ai.ratelimit", 5.0)
	viper.SetDefault("ai.burst", 10)

	viper.SetDefault("cache.answerttl", DefaultAnswerTTL)
	viper.SetDefault("cache.subjectttl", DefaultSubjectTTL)

	viper.SetDefault("logging.default_level", "info")
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.file_output.enabled", false)
	viper.SetDefault("logging.file_output.path", "logs/edulearn.log")
	viper.SetDefault("logging.file_output.level", "info")

	viper.SetDefault("telemetry.metrics.enabled", false)
	viper.SetDefault("telemetry.metrics.path", "/metrics")
	viper.SetDefault("telemetry.sentry.enabled", false)
	viper.SetDefault("telemetry.sentry.dsn", "")
	viper.SetDefault("telemetry.sentry.environment", "production")
	viper.SetDefault("telemetry.sentry.samplerate", 1.0)
}
