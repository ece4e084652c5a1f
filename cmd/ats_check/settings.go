package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jonathan/ats-checker/internal/config"
	"github.com/jonathan/ats-checker/internal/observability"
)

// loadSettings resolves the config file and environment, then applies any flags the user set.
func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Resolve(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.Endpoint, _ = flags.GetString("endpoint")
	}
	if flags.Changed("timeout") {
		d, _ := flags.GetDuration("timeout")
		cfg.Timeout = config.Duration(d)
	}
	if flags.Changed("port") {
		cfg.Server.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("use-browser") {
		cfg.UseBrowser, _ = flags.GetBool("use-browser")
	}
	if verbose {
		cfg.Verbose = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return observability.NewLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.JSONLogs)
}

// addEndpointFlags registers the flags shared by commands that talk to the analysis service.
func addEndpointFlags(cmd *cobra.Command) {
	cmd.Flags().String("endpoint", config.DefaultEndpoint, "Analysis service URL")
	cmd.Flags().Duration("timeout", config.DefaultTimeout, "Time limit for one analysis (0 disables)")
}
