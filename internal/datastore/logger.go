package datastore

import (
	"time"

	gormlogger "gorm.io/gorm/logger"

	"github.com/edulearn/edulearn-api/internal/logger"
)

// slowQueryThreshold marks statements worth a warning
const slowQueryThreshold = 200 * time.Millisecond

// GetLogger returns the datastore module logger
func GetLogger() logger.Logger {
	return logger.Global().Module("datastore")
}

// createGormLogger routes GORM output through the datastore logger
func createGormLogger() gormlogger.Interface {
	return logger.NewGormLoggerAdapter(GetLogger(), slowQueryThreshold)
}
