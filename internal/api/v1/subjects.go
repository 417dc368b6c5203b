package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	mw "github.com/edulearn/edulearn-api/internal/api/middleware"
	"github.com/edulearn/edulearn-api/internal/logger"
)

// GetSubjectResources handles GET /api/subject/:subject_name
func (c *Controller) GetSubjectResources(ctx echo.Context) error {
	raw := ctx.Param("subject_name")
	key := strings.ToLower(strings.TrimSpace(raw))

	if body, ok := c.cachedResponse(key); ok {
		c.setSubjectCacheHeaders(ctx, "HIT")
		return ctx.JSONBlob(http.StatusOK, body)
	}

	bundle, err := c.subjects.GetResources(ctx.Request().Context(), raw)
	if err != nil {
		return c.HandleError(ctx, err, "get_subject_resources", "Error retrieving resources",
			logger.String("subject", raw))
	}

	body, err := json.Marshal(bundle)
	if err != nil {
		return c.HandleError(ctx, err, "get_subject_resources", "Error retrieving resources")
	}

	if c.responseCache != nil {
		c.responseCache.SetDefault(key, body)
	}

	c.setSubjectCacheHeaders(ctx, "MISS")
	return ctx.JSONBlob(http.StatusOK, body)
}

func (c *Controller) cachedResponse(key string) ([]byte, bool) {
	if c.responseCache == nil {
		return nil, false
	}
	v, ok := c.responseCache.Get(key)
	if !ok {
		return nil, false
	}
	body, ok := v.([]byte)
	return body, ok
}

func (c *Controller) setSubjectCacheHeaders(ctx echo.Context, state string) {
	h := ctx.Response().Header()
	h.Set(mw.HeaderXCache, state)
	if c.responseCacheTTL > 0 {
		h.Set(echo.HeaderCacheControl, fmt.Sprintf("public, max-age=%d", int(c.responseCacheTTL.Seconds())))
	}
}
