// Package middleware provides HTTP middleware components for the EduLearn API server.
package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/edulearn/edulearn-api/internal/logger"
)

// GetLogger returns the middleware package logger
func GetLogger() logger.Logger {
	return logger.Global().Module("api.http")
}

// NewRequestLogger creates a request logging middleware on top of echo's
// RequestLoggerWithConfig. A nil log resolves the module logger per request.
func NewRequestLogger(log logger.Logger) echo.MiddlewareFunc {
	return NewRequestLoggerWithSkipper(log, nil)
}

// NewRequestLoggerWithSkipper creates a request logging middleware with a custom skipper.
func NewRequestLoggerWithSkipper(log logger.Logger, skipper middleware.Skipper) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper:      skipper,
		HandleError:  true,
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		LogRequestID: true,
		LogRoutePath: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			l := log
			if l == nil {
				l = GetLogger()
			}

			fields := []logger.Field{
				logger.String("method", v.Method),
				logger.String("uri", v.URI),
				logger.String("route", v.RoutePath),
				logger.Int("status", v.Status),
				logger.String("ip", v.RemoteIP),
				logger.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, logger.String("error", v.Error.Error()))
			}

			l.WithContext(c.Request().Context()).Info("request", fields...)
			return nil
		},
	})
}
