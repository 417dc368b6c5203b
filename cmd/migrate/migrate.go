// Package migrate implements the command that prepares the database.
package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edulearn/edulearn-api/internal/conf"
	"github.com/edulearn/edulearn-api/internal/datastore"
	"github.com/edulearn/edulearn-api/internal/logger"
)

// Command creates the migrate command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema and seed subjects",
		Long:  "Run schema migration for the configured database and insert any of the maths, science and history subjects that are missing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := datastore.New(settings)
			if store == nil {
				return fmt.Errorf("no database enabled")
			}
			if err := store.Open(); err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() {
				if err := store.Close(); err != nil {
					logger.Global().Module("migrate").Warn("failed to close database", logger.Error(err))
				}
			}()

			created, err := store.SeedSubjects(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to seed subjects: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "migration complete, %d subject(s) created\n", created)
			return err
		},
	}
}
