package observability

import "github.com/edulearn/edulearn-api/internal/logger"

// GetLogger returns the observability module logger
func GetLogger() logger.Logger {
	return logger.Global().Module("observability")
}
