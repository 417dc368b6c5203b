package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/edulearn/edulearn-api/internal/observability/metrics"
)

// unmatchedRoute labels requests that hit no registered route
const unmatchedRoute = "unmatched"

// NewMetrics records request counts, latency and response size per route
// template. Raw paths are never used as labels.
func NewMetrics(m *metrics.HTTPMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				// The error handler ignores committed responses, so this only
				// writes when no inner middleware has handled err yet
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = unmatchedRoute
			}
			method := c.Request().Method
			res := c.Response()

			m.RecordHTTPRequest(method, route, res.Status, time.Since(start).Seconds())
			m.RecordHTTPResponseSize(method, route, res.Size)
			if category, ok := c.Get(ErrorCategoryKey).(string); ok && category != "" {
				m.RecordHTTPRequestError(method, route, category)
			}
			return nil
		}
	}
}

// ErrorCategoryKey is the echo context key the error handler stores the
// failure category under
const ErrorCategoryKey = "error_category"
