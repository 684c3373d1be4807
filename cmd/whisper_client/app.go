package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jonathan/whisper-client/internal/acquisition"
	"github.com/jonathan/whisper-client/internal/batch"
	"github.com/jonathan/whisper-client/internal/client"
	"github.com/jonathan/whisper-client/internal/config"
	"github.com/jonathan/whisper-client/internal/interrupt"
	"github.com/jonathan/whisper-client/internal/observability"
	"github.com/jonathan/whisper-client/internal/poller"
	"github.com/jonathan/whisper-client/internal/rendering"
	"github.com/jonathan/whisper-client/internal/types"
)

// app holds what every command needs, built once per invocation.
type app struct {
	cfg        *config.Config
	configPath string
	log        *logrus.Logger
	printer    *observability.Printer
	client     *client.Client
	verbose    bool
}

var current *app

// setupApp loads config (file, then environment, then flags) and builds the client.
func setupApp(cmd *cobra.Command, _ []string) error {
	path := flagConfigPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return usageError(err)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return usageError(err)
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return usageError(err)
	}
	if flagServiceURL != "" {
		cfg.ServiceURL = flagServiceURL
	}
	if err := cfg.Validate(); err != nil {
		return usageError(err)
	}

	logger, err := observability.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, flagVerbose)
	if err != nil {
		return usageError(err)
	}

	c, err := client.New(&client.Options{
		BaseURL:       cfg.ServiceURL,
		Timeout:       cfg.RequestTimeout.Duration,
		UploadTimeout: cfg.UploadTimeout.Duration,
		Retry: client.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.Delay(),
			Multiplier:  cfg.Retry.Multiplier,
		},
		Logger: logger,
	})
	if err != nil {
		return usageError(err)
	}

	current = &app{
		cfg:        cfg,
		configPath: path,
		log:        logger,
		printer:    observability.NewPrinter(cmd.OutOrStdout()),
		client:     c,
		verbose:    flagVerbose,
	}
	logger.WithFields(logrus.Fields{"config": path, "service": cfg.ServiceURL}).Debug("Configuration loaded")
	return nil
}

// withInterrupts runs fn under a context cancelled by the first SIGINT or SIGTERM.
func (a *app) withInterrupts(cmd *cobra.Command, fn func(ctx context.Context) error) error {
	coord := interrupt.New(cmd.Context(), a.log)
	defer coord.Stop()

	err := fn(coord.Context())
	if err != nil && types.IsCancelled(err) {
		return silentExit(exitInterrupted)
	}
	return err
}

// requireService fails fast with a hint when the health check does not pass.
func (a *app) requireService(ctx context.Context) error {
	err := a.client.Health(ctx)
	if err == nil {
		return nil
	}
	if types.IsCancelled(err) {
		return err
	}
	a.printer.PrintServiceUnavailable(a.cfg.ServiceURL, err)
	return silentExit(exitFailure)
}

func (a *app) newPoller() *poller.Poller {
	return poller.New(a.client, poller.Options{
		Interval:    a.cfg.PollInterval.Duration,
		MaxDuration: a.cfg.MaxPollDuration.Duration,
		Logger:      a.log,
		OnSnapshot: func(snap *types.JobSnapshot) {
			entry := a.log.WithFields(logrus.Fields{"job_id": snap.JobID, "status": snap.Status})
			if snap.Progress != nil {
				entry = entry.WithField("percent", fmt.Sprintf("%.1f", snap.Progress.Percentage))
			}
			entry.Debug("Polled job")
		},
	})
}

func (a *app) newPipeline() *acquisition.Pipeline {
	return acquisition.NewPipeline(acquisition.Options{
		Downloader:  a.cfg.Downloader,
		Converter:   a.cfg.Converter,
		AudioFormat: a.cfg.AudioFormat,
		Logger:      a.log,
	})
}

// batchSettings are the per-command knobs of a batch run.
type batchSettings struct {
	acquirer  batch.Acquirer
	outputDir string
	keepAudio bool
	keepVideo bool
}

// runBatch processes items and maps the summary onto an exit status.
func (a *app) runBatch(ctx context.Context, items []batch.Item, settings batchSettings) error {
	reporter, err := rendering.NewReporter(a.cfg.ReportTemplate)
	if err != nil {
		return err
	}

	driver, err := batch.NewDriver(batch.Options{
		Submitter: a.client,
		Poller:    a.newPoller(),
		Acquirer:  settings.acquirer,
		Reporter:  reporter,
		OutputDir: settings.outputDir,
		KeepAudio: settings.keepAudio,
		KeepVideo: settings.keepVideo,
		Logger:    a.log,
		OnItemStart: func(index, total int, item batch.Item) {
			if total > 1 {
				a.printer.PrintItemStart(index, total, item.Source)
			}
		},
		OnItemDone: func(_, _ int, o batch.Outcome) {
			a.printer.PrintItemResult(o.Item.Source, o.State, o.Detail, o.ReportPath)
			if a.verbose && o.Transcript != nil {
				a.printer.PrintTranscript(o.Transcript)
			}
		},
		OnStage: func(stage acquisition.Stage) {
			if !stage.IsTerminal() {
				a.printer.PrintStage(string(stage))
			}
		},
	})
	if err != nil {
		return err
	}

	summary := driver.Run(ctx, items)
	if len(items) > 1 || summary.Interrupted {
		a.printer.PrintSummary(len(summary.Outcomes), summary.Counts, summary.Elapsed)
	}

	switch {
	case summary.Interrupted:
		return silentExit(exitInterrupted)
	case summary.AllCompleted():
		return nil
	default:
		return silentExit(exitFailure)
	}
}

// reportRequestError prints client errors in the same shape as batch failures.
func (a *app) reportRequestError(subject string, err error) error {
	if types.IsCancelled(err) {
		return err
	}
	if errors.Is(err, client.ErrServiceUnreachable) {
		a.printer.PrintServiceUnavailable(a.cfg.ServiceURL, err)
		return silentExit(exitFailure)
	}
	a.printer.PrintItemResult(subject, types.StateFailed, err.Error(), "")
	return silentExit(exitFailure)
}
