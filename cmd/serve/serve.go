// Package serve implements the command that runs the HTTP API.
package serve

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edulearn/edulearn-api/internal/answer"
	"github.com/edulearn/edulearn-api/internal/api"
	"github.com/edulearn/edulearn-api/internal/buildinfo"
	"github.com/edulearn/edulearn-api/internal/cache"
	"github.com/edulearn/edulearn-api/internal/conf"
	"github.com/edulearn/edulearn-api/internal/datastore"
	"github.com/edulearn/edulearn-api/internal/download"
	"github.com/edulearn/edulearn-api/internal/genai"
	"github.com/edulearn/edulearn-api/internal/httpserver"
	"github.com/edulearn/edulearn-api/internal/logger"
	"github.com/edulearn/edulearn-api/internal/observability"
	"github.com/edulearn/edulearn-api/internal/resources"
	"github.com/edulearn/edulearn-api/internal/securefs"
	"github.com/edulearn/edulearn-api/internal/telemetry"
)

// answerCacheCleanup is how often expired answers are purged from memory
const answerCacheCleanup = 10 * time.Minute

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Open the database, connect to the generative AI service and serve the EduLearn JSON API until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.Context(), settings)
		},
	}

	if err := setupFlags(cmd); err != nil {
		panic(err)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("port", "", "Port to listen on")
	cmd.Flags().String("media", "", "Directory holding uploaded question papers")
	cmd.Flags().Bool("metrics", false, "Expose Prometheus metrics")

	bindings := map[string]string{
		"port":    "webserver.port",
		"media":   "media.path",
		"metrics": "telemetry.metrics.enabled",
	}
	for flag, key := range bindings {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}
	return nil
}

// GetLogger returns the serve command logger
func GetLogger() logger.Logger {
	return logger.Global().Module("serve")
}

// Run builds every service from settings and serves until ctx is cancelled
// or the process is signalled.
func Run(ctx context.Context, settings *conf.Settings) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := GetLogger()
	info := buildinfo.Current()

	log.Info("starting EduLearn API",
		logger.String("version", info.GetVersion()),
		logger.String("build_date", info.GetBuildDate()))

	if err := telemetry.InitSentry(settings, info); err != nil {
		log.Warn("error telemetry unavailable", logger.Error(err))
	}
	defer telemetry.Flush(telemetry.FlushTimeout)

	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no database enabled")
	}
	if err := store.Open(); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("failed to close database", logger.Error(err))
		}
	}()

	if _, err := store.SeedSubjects(ctx); err != nil {
		return fmt.Errorf("failed to seed subjects: %w", err)
	}

	media, err := securefs.New(settings.Media.Path)
	if err != nil {
		return fmt.Errorf("failed to open media directory: %w", err)
	}
	defer func() { _ = media.Close() }()
	if err := media.MkdirAll(datastore.UploadDir, 0o750); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	generator, err := genai.NewClient(ctx, genai.Config{
		APIKey:    settings.AI.APIKey,
		Model:     settings.AI.Model,
		BaseURL:   settings.AI.BaseURL,
		Timeout:   settings.AI.Timeout,
		RateLimit: settings.AI.RateLimit,
		Burst:     settings.AI.Burst,
		UserAgent: "edulearn-api/" + info.GetVersion(),
	})
	if err != nil {
		return err
	}

	answers := answer.NewService(
		cache.NewMemoryStore(settings.Cache.AnswerTTL, answerCacheCleanup),
		generator,
		answer.WithTTL(settings.Cache.AnswerTTL),
		answer.WithMetrics(metrics.Answer),
	)

	srv, err := api.New(settings,
		api.WithDataStore(store),
		api.WithAnswerService(answers),
		api.WithResourceService(resources.NewService(store)),
		api.WithDownloadService(download.NewService(store, media)),
		api.WithMetrics(metrics),
		api.WithBuildInfo(info),
	)
	if err != nil {
		return err
	}

	var server httpserver.Server = srv
	return server.StartWithGracefulShutdown(ctx)
}
