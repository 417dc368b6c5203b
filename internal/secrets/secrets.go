// Package secrets resolves credentials from environment references and
// mounted secret files (Docker and Kubernetes secrets).
//
// Secret values are never logged. Errors name the variable or file that
// failed, not its contents.
package secrets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/edulearn/edulearn-api/internal/errors"
	"github.com/edulearn/edulearn-api/internal/logger"
)

// maxSecretFileSize caps secret file reads; tokens and passwords are small
const maxSecretFileSize = 64 * 1024

// GetLogger returns the secrets module logger
func GetLogger() logger.Logger {
	return logger.Global().Module("secrets")
}

// ExpandString expands ${VAR} and ${VAR:-default} references in s.
// A referenced variable that is unset and has no fallback is an error.
func ExpandString(s string) (string, error) {
	if s == "" {
		return "", nil
	}

	var missing []string
	expanded := os.Expand(s, func(key string) string {
		name, fallback, hasFallback := strings.Cut(key, ":-")
		if value := os.Getenv(name); value != "" {
			return value
		}
		if hasFallback {
			return fallback
		}
		missing = append(missing, name)
		return ""
	})

	if len(missing) > 0 {
		return "", errors.Newf("missing required environment variable(s): %s", strings.Join(missing, ", ")).
			Component("secrets").
			Category(errors.CategoryConfiguration).
			Context("operation", "expand").
			Build()
	}
	return expanded, nil
}

// ReadFile reads a secret from path, trimming trailing newlines. Files
// readable by group or other are accepted with a warning.
func ReadFile(path string) (string, error) {
	if path == "" {
		return "", fileError(errors.NewStd("secret file path is empty"), path)
	}
	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	switch {
	case err != nil:
		return "", fileError(err, cleanPath)
	case !info.Mode().IsRegular():
		return "", fileError(errors.NewStd("secret path is not a regular file"), cleanPath)
	case info.Size() > maxSecretFileSize:
		return "", fileError(errors.NewStd("secret file exceeds 64 KiB"), cleanPath)
	}

	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		GetLogger().Warn("secret file is readable by group or other",
			logger.String("path", cleanPath),
			logger.String("mode", perm.String()))
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return "", fileError(err, cleanPath)
	}

	secret := strings.TrimRight(string(data), "\r\n")
	if secret == "" {
		return "", fileError(errors.NewStd("secret file is empty"), cleanPath)
	}
	return secret, nil
}

// Resolve returns the secret from filePath when set, otherwise value with
// environment references expanded. Both empty yields an empty secret.
func Resolve(filePath, value string) (string, error) {
	if filePath != "" {
		return ReadFile(filePath)
	}
	return ExpandString(value)
}

func fileError(err error, path string) error {
	return errors.New(err).
		Component("secrets").
		Category(errors.CategoryConfiguration).
		Context("operation", "read_secret_file").
		Context("path", path).
		Build()
}
