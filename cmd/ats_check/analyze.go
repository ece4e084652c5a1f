package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/ats-checker/internal/analysis"
	"github.com/jonathan/ats-checker/internal/fetch"
	"github.com/jonathan/ats-checker/internal/ingestion"
	"github.com/jonathan/ats-checker/internal/observability"
	"github.com/jonathan/ats-checker/internal/submission"
	"github.com/jonathan/ats-checker/internal/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a resume against a job description",
	Long: `Upload a resume (PDF, DOCX or TXT, local path or s3://bucket/key) together with a job
description given as text, a file or a job posting URL. Prints the keyword comparison,
the analysis report and the refined resume.`,
	RunE: runAnalyze,
}

var (
	resumeRef  string
	jdText     string
	jdFile     string
	jdURL      string
	jsonOutput bool
)

func init() {
	analyzeCmd.Flags().StringVarP(&resumeRef, "resume", "r", "", "Resume file path or s3://bucket/key")
	analyzeCmd.Flags().StringVar(&jdText, "jd", "", "Job description text")
	analyzeCmd.Flags().StringVar(&jdFile, "jd-file", "", "Path to a job description text file")
	analyzeCmd.Flags().StringVar(&jdURL, "jd-url", "", "URL of a job posting")
	analyzeCmd.Flags().Bool("use-browser", false, "Render --jd-url pages in headless Chrome when the plain fetch finds little text")
	analyzeCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the final state as JSON")
	addEndpointFlags(analyzeCmd)

	rootCmd.AddCommand(analyzeCmd)
}

// errAnalysisFailed marks a run that ended in the Failed state. The message was already shown.
var errAnalysisFailed = errors.New("analysis failed")

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)
	ctx := cmd.Context()

	client, err := analysis.NewClient(analysis.Options{
		Endpoint:  cfg.Endpoint,
		UserAgent: cfg.UserAgent,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	var (
		doc *types.Document
		jd  string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var objects ingestion.ObjectSource
		if strings.HasPrefix(resumeRef, "s3://") {
			src, err := ingestion.NewS3Source(gctx, cfg.AWSRegion)
			if err != nil {
				return err
			}
			objects = src
		}
		d, err := ingestion.LoadDocument(gctx, resumeRef, objects)
		if err != nil {
			return fmt.Errorf("failed to load resume: %w", err)
		}
		doc = d
		return nil
	})
	g.Go(func() error {
		text, err := ingestion.LoadJobDescription(gctx, ingestion.JobSource{
			Text:       jdText,
			File:       jdFile,
			URL:        jdURL,
			UseBrowser: cfg.UseBrowser,
		}, &fetch.Options{Timeout: fetch.DefaultTimeout, UserAgent: fetch.DefaultUserAgent, Logger: logger})
		if err != nil {
			return fmt.Errorf("failed to load job description: %w", err)
		}
		jd = text
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	ctrl := submission.New(submission.HTTPDispatcher{Client: client}, submission.Options{
		Timeout: cfg.Timeout.Std(),
		Logger:  logger,
	})
	defer ctrl.Close()

	printer := observability.NewPrinter(cmd.OutOrStdout())
	if !jsonOutput {
		unsubscribe := ctrl.Subscribe(func(st types.SubmissionState) {
			if _, ok := st.(types.InFlight); ok {
				printer.PrintInFlight()
			}
		})
		defer unsubscribe()
	}

	// Interrupts abandon the attempt; its late response is discarded.
	stop := context.AfterFunc(ctx, ctrl.Close)
	defer stop()

	ctrl.SetDocument(doc)
	ctrl.SetJobDescription(jd)
	ctrl.Submit()
	ctrl.Wait()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("analysis interrupted: %w", err)
	}

	final := ctrl.State()
	if jsonOutput {
		if err := printer.PrintJSON(final); err != nil {
			return err
		}
	} else {
		printer.PrintState(final)
	}

	switch s := final.(type) {
	case types.Invalid:
		return &submission.ValidationError{Reasons: s.Reasons}
	case types.Failed:
		return fmt.Errorf("%w (%s)", errAnalysisFailed, s.Kind)
	}
	return nil
}
