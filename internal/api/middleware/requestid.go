package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/edulearn/edulearn-api/internal/logger"
)

// HeaderXCache reports whether a response was served from a cache
const HeaderXCache = "X-Cache"

// maxRequestIDLength bounds client supplied ids before they reach logs
const maxRequestIDLength = 128

// NewRequestID propagates the client's X-Request-ID or generates a UUID, and
// stores it as the trace id on the request context so every log line written
// while serving the request carries it.
func NewRequestID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			if len(id) > maxRequestIDLength {
				id = uuid.NewString()
				c.Response().Header().Set(echo.HeaderXRequestID, id)
			}
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithTraceID(req.Context(), id)))
		},
	})
}

// RequestID returns the id assigned to the current request
func RequestID(c echo.Context) string {
	if id := logger.TraceIDFromContext(c.Request().Context()); id != "" {
		return id
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}
