// Package securefs provides a secure file system implementation
// with path validation and sandboxing.
package securefs

import (
	"github.com/edulearn/edulearn-api/internal/errors"
)

// Sentinel errors for the securefs package.
// These errors can be used with errors.Is to check for specific error conditions.
var (
	// ErrPathTraversal indicates an attempt to access a path outside the allowed directory
	// via relative path traversal or a symlink pointing out of the root.
	ErrPathTraversal = errors.NewStd("security error: path attempts to traverse outside base directory")

	// ErrInvalidPath indicates an invalid path specification (e.g., absolute path when relative is required)
	ErrInvalidPath = errors.NewStd("security error: invalid path specification")

	// ErrNotRegularFile indicates an attempt to access something that is not a regular file
	ErrNotRegularFile = errors.NewStd("security error: not a regular file")
)

// IsEscape reports whether err means the path left the sandbox
func IsEscape(err error) bool {
	return errors.Is(err, ErrPathTraversal) || errors.Is(err, ErrInvalidPath)
}
