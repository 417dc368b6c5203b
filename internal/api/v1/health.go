package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/edulearn/edulearn-api/internal/logger"
)

// HealthResponse reports service liveness and database connectivity
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	Database  string `json:"database"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}

// HealthCheck handles GET /api/health
func (c *Controller) HealthCheck(ctx echo.Context) error {
	resp := HealthResponse{
		Status:    "healthy",
		Version:   c.buildInfo.GetVersion(),
		BuildDate: c.buildInfo.GetBuildDate(),
		Database:  "connected",
		Uptime:    time.Since(c.startTime).Truncate(time.Second).String(),
		Timestamp: time.Now().Format(time.RFC3339),
	}

	status := http.StatusOK
	if c.DS != nil {
		pingCtx, cancel := context.WithTimeout(ctx.Request().Context(), healthPingTimeout)
		defer cancel()
		if err := c.DS.Ping(pingCtx); err != nil {
			GetLogger().Warn("health check database ping failed", logger.Error(err))
			resp.Status = "unhealthy"
			resp.Database = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	return ctx.JSON(status, resp)
}
