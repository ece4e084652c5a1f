package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/ats-checker/internal/analysis"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the analysis service is up",
	RunE:  runPing,
}

func init() {
	addEndpointFlags(pingCmd)
	rootCmd.AddCommand(pingCmd)
}

func runPing(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	client, err := analysis.NewClient(analysis.Options{
		Endpoint:  cfg.Endpoint,
		UserAgent: cfg.UserAgent,
		Logger:    newLogger(cmd, cfg),
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout.Std())
		defer cancel()
	}

	health, err := client.Ping(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is up (HTTP %d, %s): %s\n",
		health.URL, health.StatusCode, health.Elapsed.Round(time.Millisecond), health.Message)
	return nil
}
