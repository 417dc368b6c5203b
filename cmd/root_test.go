package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulearn/edulearn-api/internal/conf"
	"github.com/edulearn/edulearn-api/internal/datastore"
)

// writeConfig writes a minimal config file using a temp SQLite database
func writeConfig(t *testing.T) (configPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "edulearn.db")
	configPath = filepath.Join(dir, "config.yaml")

	content := `
ai:
  apikey: AIzaSy-test-key-that-must-not-leak
output:
  sqlite:
    enabled: true
    path: ` + dbPath + `
media:
  path: ` + filepath.Join(dir, "media") + `
logging:
  console:
    enabled: false
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))
	return configPath, dbPath
}

// execute runs the root command with args. viper is process-global, so these
// tests do not run in parallel.
func execute(t *testing.T, settings *conf.Settings, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	root := RootCommand(settings)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func TestConfigCommandRedactsSecrets(t *testing.T) {
	configPath, dbPath := writeConfig(t)

	out, err := execute(t, &conf.Settings{}, "--config", configPath, "config")
	require.NoError(t, err)

	assert.Contains(t, out, "[REDACTED]")
	assert.NotContains(t, out, "AIzaSy-test-key-that-must-not-leak")
	assert.Contains(t, out, dbPath)
	assert.Contains(t, out, "port: \"8000\"")
}

func TestConfigCommandWritesFile(t *testing.T) {
	configPath, dbPath := writeConfig(t)
	outputPath := filepath.Join(t.TempDir(), "effective.yaml")

	out, err := execute(t, &conf.Settings{}, "--config", configPath, "config", "--output", outputPath)
	require.NoError(t, err)
	assert.Contains(t, out, "configuration written to "+outputPath)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), dbPath)
	assert.Contains(t, string(data), "[REDACTED]")
	assert.NotContains(t, string(data), "AIzaSy-test-key-that-must-not-leak")
}

func TestFailedCommandFlushesLogFile(t *testing.T) {
	configPath, _ := writeConfig(t)
	logPath := filepath.Join(t.TempDir(), "edulearn.log")
	f, err := os.OpenFile(configPath, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString("  file_output:\n    enabled: true\n    path: " + logPath + "\n    level: info\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = execute(t, &conf.Settings{}, "--config", configPath, "export", "--sqlite-path", filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)

	// The entry is still buffered unless the logger was closed
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "command failed")
	assert.Contains(t, string(data), `"command":"export"`)
}

func TestMigrateSeedsSubjects(t *testing.T) {
	configPath, _ := writeConfig(t)

	settings := &conf.Settings{}
	out, err := execute(t, settings, "--config", configPath, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "3 subject(s) created")

	out, err = execute(t, &conf.Settings{}, "--config", configPath, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "0 subject(s) created", "seeding is idempotent")

	store := datastore.New(settings)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })
	for _, name := range datastore.AllSubjects() {
		subject, err := store.GetSubjectByName(t.Context(), name)
		require.NoError(t, err)
		assert.Equal(t, name, subject.Name)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("webserver:\n  port: \"99999\"\nai:\n  apikey: x\n"), 0o600))

	_, err := execute(t, &conf.Settings{}, "--config", configPath, "config")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port must be between 1 and 65535")
}

func TestExportCopiesSQLiteDatabase(t *testing.T) {
	configPath, _ := writeConfig(t)

	sourcePath := filepath.Join(t.TempDir(), "legacy.db")
	sourceSettings := &conf.Settings{}
	sourceSettings.Output.SQLite.Enabled = true
	sourceSettings.Output.SQLite.Path = sourcePath
	source := datastore.New(sourceSettings)
	require.NoError(t, source.Open())
	_, err := source.SeedSubjects(t.Context())
	require.NoError(t, err)
	maths, err := source.GetSubjectByName(t.Context(), datastore.SubjectMaths)
	require.NoError(t, err)
	paper := &datastore.QuestionPaper{ID: 42, SubjectID: maths.ID, Title: "Maths 2021", File: "question_papers/maths-2021.pdf"}
	require.NoError(t, source.SaveQuestionPaper(t.Context(), paper))
	require.NoError(t, source.Close())

	settings := &conf.Settings{}
	out, err := execute(t, settings, "--config", configPath, "export", "--sqlite-path", sourcePath)
	require.NoError(t, err)
	assert.Contains(t, out, "question_papers")
	assert.Contains(t, out, "verification passed")

	target := datastore.New(settings)
	require.NoError(t, target.Open())
	t.Cleanup(func() { _ = target.Close() })
	got, err := target.GetQuestionPaper(t.Context(), 42)
	require.NoError(t, err)
	assert.Equal(t, "Maths 2021", got.Title)
}

func TestExportRejectsMissingSource(t *testing.T) {
	configPath, _ := writeConfig(t)

	_, err := execute(t, &conf.Settings{}, "--config", configPath, "export", "--sqlite-path", filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source database")
}
