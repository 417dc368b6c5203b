package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// isolateViper runs the test in an empty directory with a fresh viper instance
func isolateViper(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	viper.Reset()
	t.Cleanup(viper.Reset)
	return dir
}

func TestLoadDefaultsWithAPIKeyFromEnv(t *testing.T) {
	isolateViper(t)
	t.Setenv("GEMINI_API_KEY", "test-key")

	settings, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-key", settings.AI.APIKey)
	assert.Equal(t, DefaultAIModel, settings.AI.Model)
	assert.Equal(t, 30*time.Second, settings.AI.Timeout)
	assert.Equal(t, time.Hour, settings.Cache.AnswerTTL)
	assert.Equal(t, time.Minute, settings.Cache.SubjectTTL)
	assert.Equal(t, "8000", settings.WebServer.Port)
	assert.True(t, settings.Output.SQLite.Enabled)
	assert.Equal(t, "media", settings.Media.Path)
	assert.Equal(t, "info", settings.Logging.DefaultLevel)
}

func TestLoadFailsWithoutAPIKey(t *testing.T) {
	isolateViper(t)
	t.Setenv("GEMINI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := isolateViper(t)
	t.Setenv("GEMINI_API_KEY", "")

	content := `
webserver:
  port: "9090"
media:
  path: /srv/media
ai:
  apikey: file-key
  model: gemini-1.5-pro
  timeout: 5s
cache:
  answerttl: 10m
logging:
  default_level: debug
  console:
    enabled: true
    level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))

	settings, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", settings.WebServer.Port)
	assert.Equal(t, "/srv/media", settings.Media.Path)
	assert.Equal(t, "file-key", settings.AI.APIKey)
	assert.Equal(t, "gemini-1.5-pro", settings.AI.Model)
	assert.Equal(t, 5*time.Second, settings.AI.Timeout)
	assert.Equal(t, 10*time.Minute, settings.Cache.AnswerTTL)
	assert.Equal(t, "debug", settings.Logging.DefaultLevel)
	require.NotNil(t, settings.Logging.Console)
	assert.Equal(t, "debug", settings.Logging.Console.Level)
}

func TestEnvOverridesConfigFile(t *testing.T) {
	dir := isolateViper(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("ai:\n  apikey: file-key\n"), 0o600))
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("EDULEARN_PORT", "7000")
	t.Setenv("EDULEARN_MEDIA_PATH", "/data/media")

	settings, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env-key", settings.AI.APIKey)
	assert.Equal(t, "7000", settings.WebServer.Port)
	assert.Equal(t, "/data/media", settings.Media.Path)
}

func TestLoadResolvesSecretFiles(t *testing.T) {
	dir := isolateViper(t)
	t.Setenv("GEMINI_API_KEY", "ignored-env-key")

	keyFile := filepath.Join(dir, "gemini_key")
	require.NoError(t, os.WriteFile(keyFile, []byte("mounted-key\n"), 0o600))
	passFile := filepath.Join(dir, "mysql_password")
	require.NoError(t, os.WriteFile(passFile, []byte("mounted-pass\n"), 0o600))
	t.Setenv("GEMINI_API_KEY_FILE", keyFile)
	t.Setenv("EDULEARN_MYSQL_PASSWORD_FILE", passFile)

	settings, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mounted-key", settings.AI.APIKey)
	assert.Equal(t, "mounted-pass", settings.Output.MySQL.Password)
}

func TestLoadExpandsSecretReferences(t *testing.T) {
	dir := isolateViper(t)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("EDULEARN_TEST_GEMINI", "expanded-key")
	content := "ai:\n  apikey: ${EDULEARN_TEST_GEMINI}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))

	settings, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "expanded-key", settings.AI.APIKey)
}

func TestLoadFailsOnMissingSecretFile(t *testing.T) {
	dir := isolateViper(t)
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("GEMINI_API_KEY_FILE", filepath.Join(dir, "absent"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ai api key")
}

func TestInvalidEnvValueFailsLoad(t *testing.T) {
	isolateViper(t)
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("EDULEARN_PORT", "http")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EDULEARN_PORT")
}

func TestRedactedMasksSecrets(t *testing.T) {
	s := &Settings{}
	s.AI.APIKey = "secret-key"
	s.Output.MySQL.Password = "hunter2"
	s.Telemetry.Sentry.DSN = "https://abc@sentry.example/1"

	r := s.Redacted()
	assert.Equal(t, "[REDACTED]", r.AI.APIKey)
	assert.Equal(t, "[REDACTED]", r.Output.MySQL.Password)
	assert.Equal(t, "[REDACTED]", r.Telemetry.Sentry.DSN)
	assert.Equal(t, "secret-key", s.AI.APIKey, "original must be untouched")
}

func TestSaveYAMLConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	s := &Settings{}
	s.WebServer.Port = "8080"
	s.AI.Model = DefaultAIModel
	s.AI.Timeout = 15 * time.Second

	require.NoError(t, SaveYAMLConfig(path, s))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	ai, ok := decoded["ai"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "15s", ai["timeout"])
	assert.Equal(t, DefaultAIModel, ai["model"])
}
