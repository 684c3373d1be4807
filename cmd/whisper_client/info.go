package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/whisper-client/internal/ingestion"
	"github.com/jonathan/whisper-client/internal/observability"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the effective configuration and service health",
	Args:  exactArgs(0),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, _ []string) error {
	a := current
	return a.withInterrupts(cmd, func(ctx context.Context) error {
		health := "ok"
		if err := a.client.Health(ctx); err != nil {
			health = "unavailable (" + err.Error() + ")"
		}

		maxPoll := "unbounded"
		if d := a.cfg.MaxPollDuration.Duration; d > 0 {
			maxPoll = d.String()
		}
		reportTemplate := "built-in"
		if a.cfg.ReportTemplate != "" {
			reportTemplate = a.cfg.ReportTemplate
		}

		a.printer.PrintKeyValues("WHISPER CLIENT", []observability.KeyValue{
			{Key: "Config", Value: a.configPath},
			{Key: "Service", Value: a.cfg.ServiceURL},
			{Key: "Health", Value: health},
			{Key: "Poll interval", Value: a.cfg.PollInterval.String()},
			{Key: "Max poll", Value: maxPoll},
			{Key: "Retry", Value: fmt.Sprintf("%d attempts, %s base delay, x%g", a.cfg.Retry.MaxAttempts, a.cfg.Retry.Delay(), a.cfg.Retry.Multiplier)},
			{Key: "Tools", Value: a.cfg.Downloader + ", " + a.cfg.Converter},
			{Key: "Audio format", Value: a.cfg.AudioFormat},
			{Key: "Template", Value: reportTemplate},
			{Key: "Formats", Value: supportedFormatList()},
		})
		return nil
	})
}

func supportedFormatList() string {
	return strings.Join(ingestion.SupportedFormats(), ", ")
}
