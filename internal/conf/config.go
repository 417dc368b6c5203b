// config.go: settings struct for the EduLearn API and the functions to load and save it.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/edulearn/edulearn-api/internal/errors"
	"github.com/edulearn/edulearn-api/internal/logger"
	"github.com/edulearn/edulearn-api/internal/secrets"
)

// WebServerSettings contains settings for the HTTP API server
type WebServerSettings struct {
	Port            string        `yaml:"port" mapstructure:"port"`                       // listen port
	Debug           bool          `yaml:"debug" mapstructure:"debug"`                     // verbose request logging
	BodyLimit       string        `yaml:"bodylimit" mapstructure:"bodylimit"`             // maximum request body, e.g. "1M"
	ShutdownTimeout time.Duration `yaml:"shutdowntimeout" mapstructure:"shutdowntimeout"` // grace period for in-flight requests
	AllowedOrigins  []string      `yaml:"allowedorigins" mapstructure:"allowedorigins"`   // CORS origins
}

// SQLiteSettings contains settings for the SQLite store
type SQLiteSettings struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"` // path to the database file
}

// MySQLSettings contains settings for the MySQL store
type MySQLSettings struct {
	Enabled      bool   `yaml:"enabled" mapstructure:"enabled"`
	Username     string `yaml:"username" mapstructure:"username"`
	Password     string `yaml:"password" mapstructure:"password"`
	PasswordFile string `yaml:"passwordfile" mapstructure:"passwordfile"` // mounted secret, preferred over Password
	Database     string `yaml:"database" mapstructure:"database"`
	Host         string `yaml:"host" mapstructure:"host"`
	Port         string `yaml:"port" mapstructure:"port"`
}

// OutputSettings selects the relational store
type OutputSettings struct {
	SQLite SQLiteSettings `yaml:"sqlite" mapstructure:"sqlite"`
	MySQL  MySQLSettings  `yaml:"mysql" mapstructure:"mysql"`
}

// MediaSettings points at the root directory for uploaded question papers
type MediaSettings struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// AISettings configures the generative AI upstream
type AISettings struct {
	APIKey     string        `yaml:"apikey" mapstructure:"apikey"`
	APIKeyFile string        `yaml:"apikeyfile" mapstructure:"apikeyfile"` // mounted secret, preferred over APIKey
	Model      string        `yaml:"model" mapstructure:"model"`           // e.g. gemini-1.5-flash
	BaseURL    string        `yaml:"baseurl" mapstructure:"baseurl"`       // API root, overridable for tests and proxies
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`       // per-call deadline
	RateLimit  float64       `yaml:"ratelimit" mapstructure:"ratelimit"`   // upstream requests per second, 0 disables
	Burst      int           `yaml:"burst" mapstructure:"burst"`
}

// CacheSettings controls cache lifetimes
type CacheSettings struct {
	AnswerTTL  time.Duration `yaml:"answerttl" mapstructure:"answerttl"`   // lifetime of cached AI answers
	SubjectTTL time.Duration `yaml:"subjectttl" mapstructure:"subjectttl"` // lifetime of cached subject responses
}

// MetricsSettings controls the Prometheus endpoint
type MetricsSettings struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// SentrySettings controls error reporting to Sentry
type SentrySettings struct {
	Enabled     bool    `yaml:"enabled" mapstructure:"enabled"`
	DSN         string  `yaml:"dsn" mapstructure:"dsn"`
	Environment string  `yaml:"environment" mapstructure:"environment"`
	SampleRate  float64 `yaml:"samplerate" mapstructure:"samplerate"`
}

// TelemetrySettings groups observability options
type TelemetrySettings struct {
	Metrics MetricsSettings `yaml:"metrics" mapstructure:"metrics"`
	Sentry  SentrySettings  `yaml:"sentry" mapstructure:"sentry"`
}

// Settings contains all configuration options for the EduLearn API
type Settings struct {
	Debug     bool                 `yaml:"debug" mapstructure:"debug"`
	WebServer WebServerSettings    `yaml:"webserver" mapstructure:"webserver"`
	Output    OutputSettings       `yaml:"output" mapstructure:"output"`
	Media     MediaSettings        `yaml:"media" mapstructure:"media"`
	AI        AISettings           `yaml:"ai" mapstructure:"ai"`
	Cache     CacheSettings        `yaml:"cache" mapstructure:"cache"`
	Logging   logger.LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Telemetry TelemetrySettings    `yaml:"telemetry" mapstructure:"telemetry"`
}

// loadMutex serializes Load, which works on the global viper instance
var loadMutex sync.Mutex

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	loadMutex.Lock()
	defer loadMutex.Unlock()

	if err := initViper(); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "init_viper").
			Build()
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.Newf("error unmarshaling config into struct: %w", err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := resolveSecrets(settings); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "resolve_secrets").
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, errors.Newf("error validating settings: %w", err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	return settings, nil
}

// resolveSecrets loads credentials from secret files and expands ${VAR}
// references in credential fields.
func resolveSecrets(settings *Settings) error {
	var err error
	if settings.AI.APIKey, err = secrets.Resolve(settings.AI.APIKeyFile, settings.AI.APIKey); err != nil {
		return fmt.Errorf("ai api key: %w", err)
	}
	mysql := &settings.Output.MySQL
	if mysql.Password, err = secrets.Resolve(mysql.PasswordFile, mysql.Password); err != nil {
		return fmt.Errorf("mysql password: %w", err)
	}
	if settings.Telemetry.Sentry.DSN, err = secrets.ExpandString(settings.Telemetry.Sentry.DSN); err != nil {
		return fmt.Errorf("sentry dsn: %w", err)
	}
	return nil
}

// initViper registers defaults, environment bindings and reads the config file.
// A missing config file is not an error; defaults and environment apply.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	for _, path := range GetDefaultConfigPaths() {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := bindEnvVars(); err != nil {
		return err
	}

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// Redacted returns a copy of the settings with credentials masked, for display.
func (s *Settings) Redacted() Settings {
	const mask = "[REDACTED]"
	c := *s
	c.WebServer.AllowedOrigins = append([]string(nil), s.WebServer.AllowedOrigins...)
	if c.AI.APIKey != "" {
		c.AI.APIKey = mask
	}
	if c.Output.MySQL.Password != "" {
		c.Output.MySQL.Password = mask
	}
	if c.Telemetry.Sentry.DSN != "" {
		c.Telemetry.Sentry.DSN = mask
	}
	return c
}

// MarshalYAML renders settings as YAML
func MarshalYAML(settings *Settings) ([]byte, error) {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("error marshaling settings to YAML: %w", err)
	}
	return data, nil
}

// SaveYAMLConfig writes settings to configPath. The file is written to a
// temporary file in the same directory and renamed into place.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := MarshalYAML(settings)
	if err != nil {
		return err
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}
	return nil
}
