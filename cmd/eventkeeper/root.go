package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"gatherly/eventkeeper/pkg/cli"
	"gatherly/eventkeeper/pkg/config"
	"gatherly/eventkeeper/pkg/secrets"
	"gatherly/eventkeeper/pkg/telemetry/logging"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "eventkeeper",
	Short: "Eventkeeper - event lifecycle and data-retention engine",
	Long: `Eventkeeper keeps event data for as long as organizers asked for and no longer.

On every batch it:
  - Persists the completed state of events whose end has passed
  - Notifies organizers ahead of archival
  - Archives events past their data retention window
  - Permanently deletes events whose deletion grace period has expired
  - Purges wall posts older than the event's wall retention window

Configuration is read from a YAML file (--config) and EVENTKEEPER_*
environment variables, which take precedence.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	}
	return cli.ExitCode(err)
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults only when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}

// loadConfig loads the configuration file with environment overrides,
// resolves ${secret:name} references and installs the result as the
// process-wide configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	sm, err := secrets.New(cfg.Secrets, nil)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	if err := sm.ResolveConfig(context.Background(), cfg); err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	config.SetConfig(cfg)
	return cfg, nil
}

// setupLogging installs the configured logger as the slog default. Logs go to
// w so that command output on stdout stays machine-readable.
func setupLogging(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	logger, err := logging.Setup(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Writer:    w,
	})
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	return logger, nil
}
