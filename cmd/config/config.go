// Package config implements the command that prints effective settings.
package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edulearn/edulearn-api/internal/conf"
)

// Command creates the config command.
func Command(settings *conf.Settings) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, config file, environment and flags are merged.
Credentials are redacted. With --output the YAML is written to that file instead,
replacing it atomically.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			redacted := settings.Redacted()
			if outputPath != "" {
				if err := conf.SaveYAMLConfig(outputPath, &redacted); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "configuration written to %s\n", outputPath)
				return err
			}

			data, err := conf.MarshalYAML(&redacted)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the configuration to this file instead of stdout")

	return cmd
}
