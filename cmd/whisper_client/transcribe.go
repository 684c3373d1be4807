package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/whisper-client/internal/batch"
	"github.com/jonathan/whisper-client/internal/ingestion"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe PATH",
	Short: "Transcribe an audio file or a directory of audio files",
	Long: "Upload each supported audio file (mp3, wav, m4a, ogg, flac) at PATH, wait for its job to finish, " +
		"and write the transcript as markdown next to the audio file.",
	Args: exactArgs(1),
	RunE: runTranscribe,
}

var transcribeRecursive bool

func init() {
	transcribeCmd.Flags().BoolVarP(&transcribeRecursive, "recursive", "r", false, "Include audio files in subdirectories")

	rootCmd.AddCommand(transcribeCmd)
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	path := args[0]
	if ingestion.IsRemoteMedia(path) {
		return usageError(fmt.Errorf("%s is a URL; use transcribe-remote-media to download it first", path))
	}

	files, err := ingestion.CollectAudioFiles(path, transcribeRecursive)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return fmt.Errorf("no supported audio files found in %s (supported: %s)", path, supportedFormatList())
		}
		return fmt.Errorf("%w: %s (supported: %s)", ingestion.ErrUnsupportedFormat, path, supportedFormatList())
	}

	a := current
	a.log.WithField("files", len(files)).Debug("Collected audio files")

	return a.withInterrupts(cmd, func(ctx context.Context) error {
		if err := a.requireService(ctx); err != nil {
			return err
		}
		return a.runBatch(ctx, batch.LocalItems(files), batchSettings{})
	})
}
