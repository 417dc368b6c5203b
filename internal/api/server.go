package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	mw "github.com/edulearn/edulearn-api/internal/api/middleware"
	v1 "github.com/edulearn/edulearn-api/internal/api/v1"
	"github.com/edulearn/edulearn-api/internal/buildinfo"
	"github.com/edulearn/edulearn-api/internal/conf"
	"github.com/edulearn/edulearn-api/internal/httpserver"
	"github.com/edulearn/edulearn-api/internal/logger"
	"github.com/edulearn/edulearn-api/internal/observability"
	"github.com/edulearn/edulearn-api/internal/observability/metrics"
)

// Server is the EduLearn HTTP server. It owns the Echo instance, the
// middleware stack and the v1 API controller.
type Server struct {
	echo     *echo.Echo
	config   *Config
	settings *conf.Settings

	// Dependencies
	dataStore v1.Pinger
	answers   v1.Answerer
	subjects  v1.ResourceGetter
	papers    v1.PaperOpener
	metrics   *observability.Metrics
	buildInfo buildinfo.BuildInfo

	apiController *v1.Controller

	// Lifecycle management
	wg       sync.WaitGroup
	listener net.Listener
	errCh    chan error
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithDataStore sets the datastore checked by the health endpoint.
func WithDataStore(ds v1.Pinger) ServerOption {
	return func(s *Server) {
		s.dataStore = ds
	}
}

// WithAnswerService sets the AI answer service.
func WithAnswerService(a v1.Answerer) ServerOption {
	return func(s *Server) {
		s.answers = a
	}
}

// WithResourceService sets the subject resources service.
func WithResourceService(r v1.ResourceGetter) ServerOption {
	return func(s *Server) {
		s.subjects = r
	}
}

// WithDownloadService sets the question paper download service.
func WithDownloadService(d v1.PaperOpener) ServerOption {
	return func(s *Server) {
		s.papers = d
	}
}

// WithMetrics sets the observability metrics for the server.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithBuildInfo sets the version metadata reported by the health endpoint.
func WithBuildInfo(info buildinfo.BuildInfo) ServerOption {
	return func(s *Server) {
		s.buildInfo = info
	}
}

// WithListener serves on an existing listener instead of binding the
// configured address.
func WithListener(l net.Listener) ServerOption {
	return func(s *Server) {
		s.listener = l
	}
}

// New creates a new HTTP server with the given settings and options.
func New(settings *conf.Settings, opts ...ServerOption) (*Server, error) {
	config := ConfigFromSettings(settings)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	s := &Server{
		config:    config,
		settings:  settings,
		buildInfo: buildinfo.Current(),
		errCh:     make(chan error, 1),
	}

	for _, opt := range opts {
		opt(s)
	}

	switch {
	case s.answers == nil:
		return nil, fmt.Errorf("answer service is required")
	case s.subjects == nil:
		return nil, fmt.Errorf("resource service is required")
	case s.papers == nil:
		return nil, fmt.Errorf("download service is required")
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Debug = config.Debug
	// echo's own logger only reports listener failures; requests go through mw
	if config.Debug {
		s.echo.Logger.SetLevel(log.DEBUG)
	} else {
		s.echo.Logger.SetLevel(log.ERROR)
	}

	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware()
	s.setupRoutes()

	GetLogger().Info("HTTP server initialized",
		logger.String("address", config.Address()),
		logger.Bool("metrics", config.MetricsEnabled),
		logger.Bool("debug", config.Debug))

	return s, nil
}

// setupMiddleware configures the Echo middleware stack. Metrics wrap the
// request logger so recorded status codes match what was written.
func (s *Server) setupMiddleware() {
	// Routes are registered without trailing slashes; accept both forms
	s.echo.Pre(echomw.RemoveTrailingSlash())

	securityConfig := mw.DefaultSecurityConfig()
	securityConfig.AllowedOrigins = s.config.AllowedOrigins

	s.echo.Use(mw.NewRequestID())
	s.echo.Use(mw.NewMetrics(s.httpMetrics()))
	s.echo.Use(mw.NewRequestLoggerWithSkipper(nil, s.skipMetricsEndpoint))
	s.echo.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		DisableStackAll: true,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			GetLogger().WithContext(c.Request().Context()).Error("panic recovered",
				logger.Error(err),
				logger.String("path", c.Request().URL.Path),
				logger.String("stack", string(stack)))
			return err
		},
	}))
	s.echo.Use(mw.NewCORS(securityConfig))
	s.echo.Use(mw.NewSecureHeaders(securityConfig))
	s.echo.Use(mw.NewBodyLimit(s.config.BodyLimit))
}

func (s *Server) httpMetrics() *metrics.HTTPMetrics {
	if s.metrics == nil {
		return nil
	}
	return s.metrics.HTTP
}

func (s *Server) skipMetricsEndpoint(c echo.Context) bool {
	return s.config.MetricsEnabled && c.Path() == s.config.MetricsPath
}

// setupRoutes registers the API controller and the metrics endpoint.
func (s *Server) setupRoutes() {
	s.apiController = v1.New(
		s.echo,
		s.dataStore,
		s.settings,
		s.answers,
		s.subjects,
		s.papers,
		v1.WithBuildInfo(s.buildInfo),
		v1.WithResponseCacheTTL(s.config.ResponseCacheTTL),
	)
	s.echo.HTTPErrorHandler = s.apiController.HTTPErrorHandler

	if s.config.MetricsEnabled && s.metrics != nil {
		s.echo.GET(s.config.MetricsPath, echo.WrapHandler(s.metrics.Handler()))
		GetLogger().Info("metrics endpoint enabled", logger.String("path", s.config.MetricsPath))
	}

	GetLogger().Debug("Routes initialized", logger.Int("routes", len(s.echo.Routes())))
}

// Start begins serving HTTP requests in a background goroutine and returns
// immediately. Use Shutdown() to stop the server.
func (s *Server) Start() {
	s.wg.Go(func() {
		if err := s.startBlocking(); err != nil {
			GetLogger().Error("Server error", logger.Error(err))
			s.errCh <- err
		}
	})
	GetLogger().Info("HTTP server starting", logger.String("address", s.config.Address()))
}

// startBlocking serves until the server is shut down.
func (s *Server) startBlocking() error {
	var err error
	if s.listener != nil {
		s.echo.Listener = s.listener
		err = s.echo.Start("")
	} else {
		err = s.echo.Start(s.config.Address())
	}

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Errors delivers a fatal serve error, such as a port already in use.
func (s *Server) Errors() <-chan error {
	return s.errCh
}

// StartWithGracefulShutdown starts the server and blocks until SIGINT or
// SIGTERM, or until ctx is cancelled, then shuts down gracefully.
func (s *Server) StartWithGracefulShutdown(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.Start()

	select {
	case <-ctx.Done():
		GetLogger().Info("Shutdown signal received, initiating graceful shutdown")
	case err := <-s.errCh:
		_ = s.Shutdown()
		return err
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server, waiting up to the configured
// shutdown timeout for in-flight requests.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		GetLogger().Error("Error during server shutdown", logger.Error(err))
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.wg.Wait()
	GetLogger().Info("Server shutdown complete")
	return nil
}

// APIController returns the v1 API controller.
func (s *Server) APIController() *v1.Controller {
	return s.apiController
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Config returns the effective server configuration.
func (s *Server) Config() *Config {
	return s.config
}

var _ httpserver.Server = (*Server)(nil)
