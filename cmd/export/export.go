// Package export implements the command that copies a SQLite database into
// the configured store, typically when moving a deployment to MySQL.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/edulearn/edulearn-api/internal/conf"
	"github.com/edulearn/edulearn-api/internal/datastore"
	"github.com/edulearn/edulearn-api/internal/logger"
)

// Command creates the export command.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		sourcePath string
		batchSize  int
		skipVerify bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy a SQLite database into the configured store",
		Long: `Copy subjects, notes and question papers from a SQLite database file into the
database selected by the configuration. Question paper ids are preserved so
download links keep working. Subjects are matched by name.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, settings, sourcePath, batchSize, skipVerify)
		},
	}

	cmd.Flags().StringVar(&sourcePath, "sqlite-path", "", "Path to the source SQLite database file")
	cmd.Flags().IntVar(&batchSize, "batch-size", datastore.DefaultExportBatchSize, "Rows written per insert")
	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "Skip the post-export presence check")
	_ = cmd.MarkFlagRequired("sqlite-path")

	return cmd
}

func run(cmd *cobra.Command, settings *conf.Settings, sourcePath string, batchSize int, skipVerify bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	log := logger.Global().Module("export")

	info, err := os.Stat(sourcePath)
	if err != nil {
		return fmt.Errorf("source database: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("source database %s is not a file", sourcePath)
	}
	if settings.Output.SQLite.Enabled && samePath(sourcePath, settings.Output.SQLite.Path) {
		return fmt.Errorf("source and target are the same database")
	}

	sourceSettings := &conf.Settings{}
	sourceSettings.Output.SQLite.Enabled = true
	sourceSettings.Output.SQLite.Path = sourcePath
	source := datastore.New(sourceSettings)
	if err := source.Open(); err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer closeStore(log, source, "source")

	target := datastore.New(settings)
	if target == nil {
		return fmt.Errorf("no database enabled")
	}
	if err := target.Open(); err != nil {
		return fmt.Errorf("failed to open target database: %w", err)
	}
	defer closeStore(log, target, "target")

	if _, err := target.SeedSubjects(ctx); err != nil {
		return fmt.Errorf("failed to seed subjects: %w", err)
	}

	stats, err := datastore.Export(ctx, source, target, batchSize)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Fprintf(out, "%-18s %10s %12s\n", "Table", "Rows", "Duration")
	for _, t := range stats.Tables {
		fmt.Fprintf(out, "%-18s %10d %12s\n", t.Table, t.Copied, t.Duration.Round(time.Millisecond))
	}
	fmt.Fprintf(out, "%-18s %10d %12s\n", "TOTAL", stats.Total(), stats.Elapsed.Round(time.Millisecond))

	if skipVerify {
		return nil
	}

	mismatches, err := datastore.VerifyExport(ctx, source, target)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	if len(mismatches) > 0 {
		for _, m := range mismatches {
			fmt.Fprintln(out, m.String())
		}
		return fmt.Errorf("verification failed: %d table(s) incomplete", len(mismatches))
	}

	_, err = fmt.Fprintln(out, "verification passed")
	return err
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

func closeStore(log logger.Logger, store datastore.Interface, role string) {
	if err := store.Close(); err != nil {
		log.Warn("failed to close database", logger.String("role", role), logger.Error(err))
	}
}
