// Package cmd wires the edulearn command line.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edulearn/edulearn-api/cmd/config"
	"github.com/edulearn/edulearn-api/cmd/export"
	"github.com/edulearn/edulearn-api/cmd/migrate"
	"github.com/edulearn/edulearn-api/cmd/serve"
	"github.com/edulearn/edulearn-api/internal/conf"
	"github.com/edulearn/edulearn-api/internal/logger"
)

// RootCommand creates and returns the root command. settings is filled from
// the config file, environment and flags before any subcommand runs.
func RootCommand(settings *conf.Settings) *cobra.Command {
	var (
		configFile string
		central    *logger.CentralLogger
	)

	rootCmd := &cobra.Command{
		Use:           "edulearn",
		Short:         "EduLearn learning resources API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	if err := setupFlags(rootCmd, &configFile); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(
		serve.Command(settings),
		migrate.Command(settings),
		config.Command(settings),
		export.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			viper.SetConfigFile(configFile)
		}

		loaded, err := conf.Load()
		if err != nil {
			return err
		}
		*settings = *loaded

		central, err = initLogging(settings)
		return err
	}

	closeLogging := func() error {
		err := central.Close()
		central = nil
		return err
	}

	// cobra skips PersistentPostRunE when RunE fails, so each subcommand
	// records its own failure and closes the log file itself
	for _, sub := range rootCmd.Commands() {
		run := sub.RunE
		if run == nil {
			continue
		}
		sub.RunE = func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				if err != nil {
					logger.Global().Module("cmd").Error("command failed",
						logger.String("command", cmd.Name()),
						logger.Error(err))
				}
				if closeErr := closeLogging(); err == nil {
					err = closeErr
				}
			}()
			return run(cmd, args)
		}
	}

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return closeLogging()
	}

	return rootCmd
}

// initLogging installs the process-wide logger described by settings
func initLogging(settings *conf.Settings) (*logger.CentralLogger, error) {
	if settings.Debug {
		settings.Logging.DefaultLevel = string(logger.LogLevelDebug)
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = string(logger.LogLevelDebug)
		}
	}

	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(central)
	return central, nil
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, configFile *string) error {
	rootCmd.PersistentFlags().StringVarP(configFile, "config", "c", "", "Path to config file (default: search ./config.yaml, ~/.config/edulearn, /etc/edulearn)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug output")

	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}
