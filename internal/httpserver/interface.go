// Package httpserver defines the lifecycle contract the command layer uses to
// run the HTTP server.
package httpserver

import "context"

// Server defines the interface for the EduLearn HTTP server.
type Server interface {
	// Start begins serving HTTP requests in a background goroutine and
	// returns immediately. Use Shutdown() to stop the server.
	Start()

	// StartWithGracefulShutdown serves until ctx is cancelled or the process
	// receives SIGINT or SIGTERM.
	StartWithGracefulShutdown(ctx context.Context) error

	// Shutdown gracefully stops the server and releases resources.
	Shutdown() error
}
