package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"PaperNotifier/internal/app"
	"PaperNotifier/internal/config"
	"PaperNotifier/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "papernotifier",
	Short: "Aggregates new academic papers and delivers a filtered digest to a webhook",
	Long: "papernotifier pulls newly published papers from arXiv, Crossref, Semantic Scholar " +
		"and RSS feeds, filters them against keyword rules, annotates each match with a " +
		"two-line impact note, and posts the digest to a Feishu webhook.",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := buildApp()
		if err != nil {
			return err
		}
		return application.RunOnce(cmd.Context())
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline daily at the configured time",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := buildApp()
		if err != nil {
			return err
		}
		return application.RunSchedule(cmd.Context())
	},
}

var testFlowCmd = &cobra.Command{
	Use:   "test-flow",
	Short: "Send one minimal flow payload to validate the webhook configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := buildApp()
		if err != nil {
			return err
		}
		return application.SendTest(cmd.Context())
	},
}

func buildApp() (*app.Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.New(cfg, logging.New(os.Stdout, cfg.Logging.Level))
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.AddCommand(runCmd, scheduleCmd, testFlowCmd)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
