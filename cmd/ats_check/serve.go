package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/ats-checker/internal/analysis"
	"github.com/jonathan/ats-checker/internal/config"
	"github.com/jonathan/ats-checker/internal/server"
	"github.com/jonathan/ats-checker/internal/submission"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web view",
	Long: `Start an HTTP server holding one pending resume and job description. Clients edit the input,
submit it, and follow state changes on GET /events.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", config.DefaultPort, "Port to listen on")
	addEndpointFlags(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	client, err := analysis.NewClient(analysis.Options{
		Endpoint:  cfg.Endpoint,
		UserAgent: cfg.UserAgent,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	ctrl := submission.New(submission.HTTPDispatcher{Client: client}, submission.Options{
		Timeout: cfg.Timeout.Std(),
		Logger:  logger,
	})

	srv := server.New(ctrl, server.Options{
		Port:             cfg.Server.Port,
		SubmitsPerMinute: cfg.Server.SubmitsPerMinute,
		SubmitBurst:      cfg.Server.SubmitBurst,
		Logger:           logger,
	})
	return srv.Run(cmd.Context())
}
