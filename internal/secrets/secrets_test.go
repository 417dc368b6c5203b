package secrets

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulearn/edulearn-api/internal/errors"
)

func TestExpandString(t *testing.T) {
	t.Setenv("EDULEARN_TEST_TOKEN", "secret123")
	t.Setenv("EDULEARN_TEST_USER", "admin")
	t.Setenv("EDULEARN_TEST_EMPTY", "")

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{"empty", "", "", ""},
		{"literal", "literal-value", "literal-value", ""},
		{"single variable", "${EDULEARN_TEST_TOKEN}", "secret123", ""},
		{"prefix and suffix", "Bearer ${EDULEARN_TEST_TOKEN}!", "Bearer secret123!", ""},
		{"two variables", "${EDULEARN_TEST_USER}:${EDULEARN_TEST_TOKEN}", "admin:secret123", ""},
		{"fallback unused", "${EDULEARN_TEST_TOKEN:-default}", "secret123", ""},
		{"fallback used", "${EDULEARN_TEST_UNSET:-default}", "default", ""},
		{"empty fallback", "${EDULEARN_TEST_UNSET:-}", "", ""},
		{"empty variable uses fallback", "${EDULEARN_TEST_EMPTY:-x}", "x", ""},
		{"missing variable", "${EDULEARN_TEST_UNSET}", "", "EDULEARN_TEST_UNSET"},
		{"empty variable is missing", "$EDULEARN_TEST_EMPTY", "", "EDULEARN_TEST_EMPTY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandString(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Equal(t, errors.CategoryConfiguration, errors.CategoryOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func writeSecret(t *testing.T, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	require.NoError(t, os.Chmod(path, perm))
	return path
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	t.Run("trims trailing newlines only", func(t *testing.T) {
		t.Parallel()
		got, err := ReadFile(writeSecret(t, "  s3cret \r\n\n", 0o600))
		require.NoError(t, err)
		assert.Equal(t, "  s3cret ", got)
	})

	t.Run("permissive mode is accepted", func(t *testing.T) {
		t.Parallel()
		got, err := ReadFile(writeSecret(t, "token", 0o644))
		require.NoError(t, err)
		assert.Equal(t, "token", got)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := ReadFile(filepath.Join(t.TempDir(), "absent"))
		require.Error(t, err)
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("directory", func(t *testing.T) {
		t.Parallel()
		_, err := ReadFile(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a regular file")
	})

	t.Run("empty content", func(t *testing.T) {
		t.Parallel()
		_, err := ReadFile(writeSecret(t, "\n", 0o600))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty")
	})

	t.Run("too large", func(t *testing.T) {
		t.Parallel()
		_, err := ReadFile(writeSecret(t, strings.Repeat("x", maxSecretFileSize+1), 0o600))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "64 KiB")
	})

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()
		_, err := ReadFile("")
		require.Error(t, err)
		assert.Equal(t, errors.CategoryConfiguration, errors.CategoryOf(err))
	})
}

func TestResolve(t *testing.T) {
	t.Setenv("EDULEARN_TEST_KEY", "from-env")
	file := writeSecret(t, "from-file\n", 0o600)

	got, err := Resolve(file, "${EDULEARN_TEST_KEY}")
	require.NoError(t, err)
	assert.Equal(t, "from-file", got, "file takes precedence over value")

	got, err = Resolve("", "${EDULEARN_TEST_KEY}")
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)

	got, err = Resolve("", "")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = Resolve(filepath.Join(t.TempDir(), "absent"), "ignored")
	require.Error(t, err)
}
