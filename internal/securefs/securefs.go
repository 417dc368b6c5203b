package securefs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/edulearn/edulearn-api/internal/logger"
)

// GetLogger returns the securefs package logger scoped to the securefs module.
func GetLogger() logger.Logger {
	return logger.Global().Module("securefs")
}

// rootEscapeMessage is how os.Root reports a symlink or path leaving the root
const rootEscapeMessage = "path escapes from parent"

// SecureFS provides read access to a media directory through os.Root.
//
// All paths are relative to the base directory. os.Root enforces the boundary
// at the OS level, so "../" components, absolute paths and symlinks pointing
// outside the base directory are all rejected, and the check cannot race with
// a concurrent rename.
type SecureFS struct {
	baseDir string   // The base directory that all operations are restricted to
	root    *os.Root // The sandboxed filesystem root
}

// New creates a new secure filesystem rooted at baseDir, creating the
// directory when it does not exist.
func New(baseDir string) (*SecureFS, error) {
	absPath, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base path: %w", err)
	}

	if err := os.MkdirAll(absPath, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem sandbox: %w", err)
	}

	return &SecureFS{
		baseDir: absPath,
		root:    root,
	}, nil
}

// BaseDir returns the absolute base directory
func (sfs *SecureFS) BaseDir() string {
	return sfs.baseDir
}

// ValidateRelativePath cleans relPath and rejects absolute paths and paths
// that climb above the base directory.
func (sfs *SecureFS) ValidateRelativePath(relPath string) (string, error) {
	if relPath == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	cleanedPath := filepath.Clean(filepath.FromSlash(relPath))

	if filepath.IsAbs(cleanedPath) || filepath.VolumeName(cleanedPath) != "" {
		return "", fmt.Errorf("%w: path must be relative, got '%s'", ErrInvalidPath, relPath)
	}

	if cleanedPath == ".." || strings.HasPrefix(cleanedPath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: '%s' (cleaned from '%s')", ErrPathTraversal, cleanedPath, relPath)
	}

	return cleanedPath, nil
}

// classify maps os.Root failures onto the package sentinels where one applies
func classify(err error, relPath string) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), rootEscapeMessage) {
		return fmt.Errorf("%w: '%s': %w", ErrPathTraversal, relPath, err)
	}
	return err
}

// StatRel returns file info for a path relative to the base directory
func (sfs *SecureFS) StatRel(relPath string) (fs.FileInfo, error) {
	validated, err := sfs.ValidateRelativePath(relPath)
	if err != nil {
		return nil, err
	}
	info, err := sfs.root.Stat(validated)
	return info, classify(err, validated)
}

// OpenRegular opens a regular file for reading and returns it with its
// metadata. Directories and other non-regular files are rejected with
// ErrNotRegularFile. The caller owns the returned file.
func (sfs *SecureFS) OpenRegular(relPath string) (*os.File, fs.FileInfo, error) {
	validated, err := sfs.ValidateRelativePath(relPath)
	if err != nil {
		return nil, nil, err
	}

	file, err := sfs.root.Open(validated)
	if err != nil {
		return nil, nil, classify(err, validated)
	}

	info, err := file.Stat()
	if err != nil {
		closeQuietly(file, validated)
		return nil, nil, fmt.Errorf("stat '%s': %w", validated, err)
	}

	if !info.Mode().IsRegular() {
		closeQuietly(file, validated)
		return nil, nil, fmt.Errorf("%w: '%s'", ErrNotRegularFile, validated)
	}

	return file, info, nil
}

// MkdirAll creates relPath and any missing parents inside the root
func (sfs *SecureFS) MkdirAll(relPath string, perm os.FileMode) error {
	validated, err := sfs.ValidateRelativePath(relPath)
	if err != nil {
		return err
	}
	return classify(sfs.root.MkdirAll(validated, perm), validated)
}

// WriteFile writes data to relPath inside the root, creating parent directories
func (sfs *SecureFS) WriteFile(relPath string, data []byte, perm os.FileMode) error {
	validated, err := sfs.ValidateRelativePath(relPath)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(validated); dir != "." {
		if err := sfs.root.MkdirAll(dir, 0o750); err != nil {
			return classify(err, dir)
		}
	}
	return classify(sfs.root.WriteFile(validated, data, perm), validated)
}

// Remove deletes a file inside the root
func (sfs *SecureFS) Remove(relPath string) error {
	validated, err := sfs.ValidateRelativePath(relPath)
	if err != nil {
		return err
	}
	return classify(sfs.root.Remove(validated), validated)
}

// Close closes the underlying Root
func (sfs *SecureFS) Close() error {
	if sfs.root != nil {
		return sfs.root.Close()
	}
	return nil
}

func closeQuietly(file *os.File, path string) {
	if err := file.Close(); err != nil {
		GetLogger().Warn("failed to close file",
			logger.String("path", path),
			logger.Error(err))
	}
}
