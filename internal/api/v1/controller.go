// Package api implements the EduLearn JSON endpoints: AI answers, subject
// resources and question paper downloads.
package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	gocache "github.com/patrickmn/go-cache"

	"github.com/edulearn/edulearn-api/internal/answer"
	"github.com/edulearn/edulearn-api/internal/buildinfo"
	"github.com/edulearn/edulearn-api/internal/conf"
	"github.com/edulearn/edulearn-api/internal/download"
	"github.com/edulearn/edulearn-api/internal/logger"
	"github.com/edulearn/edulearn-api/internal/resources"
)

// DefaultResponseCacheTTL is how long a subject response is reused
const DefaultResponseCacheTTL = 60 * time.Second

// healthPingTimeout bounds the database check in the health endpoint
const healthPingTimeout = 2 * time.Second

// Answerer answers free-text questions
type Answerer interface {
	Answer(ctx context.Context, question string) (*answer.Result, error)
}

// ResourceGetter returns the resources published for a subject
type ResourceGetter interface {
	GetResources(ctx context.Context, subjectName string) (*resources.Bundle, error)
}

// PaperOpener opens a question paper for download
type PaperOpener interface {
	Open(ctx context.Context, id uint) (*download.File, error)
}

// Pinger reports datastore connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// Controller manages the API routes and handlers
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	DS       Pinger
	Settings *conf.Settings

	answers   Answerer
	subjects  ResourceGetter
	papers    PaperOpener
	buildInfo buildinfo.BuildInfo

	responseCache    *gocache.Cache // encoded subject responses
	responseCacheTTL time.Duration
	startTime        time.Time
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithBuildInfo sets the version metadata reported by the health endpoint.
func WithBuildInfo(info buildinfo.BuildInfo) Option {
	return func(c *Controller) {
		c.buildInfo = info
	}
}

// WithResponseCacheTTL overrides the subject response cache window.
// A non-positive ttl disables the cache.
func WithResponseCacheTTL(ttl time.Duration) Option {
	return func(c *Controller) {
		c.responseCacheTTL = ttl
	}
}

// GetLogger returns the api module logger
func GetLogger() logger.Logger {
	return logger.Global().Module("api")
}

// New creates the API controller and registers its routes on e.
func New(e *echo.Echo, ds Pinger, settings *conf.Settings,
	answers Answerer, subjects ResourceGetter, papers PaperOpener,
	opts ...Option) *Controller {
	c := &Controller{
		Echo:             e,
		DS:               ds,
		Settings:         settings,
		answers:          answers,
		subjects:         subjects,
		papers:           papers,
		buildInfo:        buildinfo.Current(),
		responseCacheTTL: DefaultResponseCacheTTL,
		startTime:        time.Now(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.responseCacheTTL > 0 {
		c.responseCache = gocache.New(c.responseCacheTTL, 2*c.responseCacheTTL)
	}

	c.Group = e.Group("/api")
	c.initRoutes()
	return c
}

// initRoutes registers all API endpoints
func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)

	c.Group.POST("/ai", c.AskAI)
	c.Group.GET("/subject/:subject_name", c.GetSubjectResources)
	c.Group.GET("/question_paper/:pk/download", c.DownloadQuestionPaper)

	GetLogger().Debug("API routes initialized",
		logger.Int("routes", len(c.Echo.Routes())),
		logger.Duration("response_cache_ttl", c.responseCacheTTL))
}

// FlushResponseCache drops every cached subject response
func (c *Controller) FlushResponseCache() {
	if c.responseCache != nil {
		c.responseCache.Flush()
	}
}
