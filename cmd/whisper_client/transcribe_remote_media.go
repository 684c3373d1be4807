package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/whisper-client/internal/acquisition"
	"github.com/jonathan/whisper-client/internal/batch"
	"github.com/jonathan/whisper-client/internal/ingestion"
	"github.com/jonathan/whisper-client/internal/types"
)

var transcribeRemoteMediaCmd = &cobra.Command{
	Use:   "transcribe-remote-media URL",
	Short: "Download a remote video, extract its audio and transcribe it",
	Long: "Download the video at URL with the configured downloader (yt-dlp), convert it to audio with the " +
		"configured converter (ffmpeg), then transcribe the audio. Intermediate files are removed unless kept.",
	Args: exactArgs(1),
	RunE: runTranscribeRemoteMedia,
}

var (
	remoteOutputDir string
	remoteKeepAudio bool
	remoteKeepVideo bool
)

func init() {
	transcribeRemoteMediaCmd.Flags().StringVarP(&remoteOutputDir, "output-dir", "o", ".", "Directory for the audio file and transcript")
	transcribeRemoteMediaCmd.Flags().BoolVar(&remoteKeepAudio, "keep-audio", false, "Keep the extracted audio file")
	transcribeRemoteMediaCmd.Flags().BoolVar(&remoteKeepVideo, "keep-video", false, "Keep the downloaded video file")

	rootCmd.AddCommand(transcribeRemoteMediaCmd)
}

func runTranscribeRemoteMedia(cmd *cobra.Command, args []string) error {
	mediaURL := args[0]
	if err := ingestion.ValidateMediaURL(mediaURL); err != nil {
		return usageError(err)
	}

	outputDir, err := filepath.Abs(remoteOutputDir)
	if err != nil {
		return usageError(fmt.Errorf("invalid output directory: %w", err))
	}

	a := current
	pipeline := a.newPipeline()

	return a.withInterrupts(cmd, func(ctx context.Context) error {
		if err := a.preflight(ctx, pipeline); err != nil {
			return err
		}
		return a.runBatch(ctx, []batch.Item{{Source: mediaURL, Remote: true}}, batchSettings{
			acquirer:  pipeline,
			outputDir: outputDir,
			keepAudio: remoteKeepAudio,
			keepVideo: remoteKeepVideo,
		})
	})
}

// preflight checks the service and the external tools concurrently and
// reports every problem it finds.
func (a *app) preflight(ctx context.Context, pipeline *acquisition.Pipeline) error {
	var healthErr, toolErr error
	var g errgroup.Group
	g.Go(func() error {
		healthErr = a.client.Health(ctx)
		return nil
	})
	g.Go(func() error {
		toolErr = pipeline.Check(ctx)
		return nil
	})
	_ = g.Wait()

	if ctx.Err() != nil {
		return fmt.Errorf("preflight: %w", types.ErrCancelled)
	}
	if healthErr != nil {
		a.printer.PrintServiceUnavailable(a.cfg.ServiceURL, healthErr)
	}
	if toolErr != nil {
		a.printer.PrintToolUnavailable(toolErr)
	}
	if healthErr != nil || toolErr != nil {
		return silentExit(exitFailure)
	}
	return nil
}
