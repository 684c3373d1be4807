// Package main provides the entry point for the whisper-client CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/whisper-client/internal/types"
)

// Process exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

var rootCmd = &cobra.Command{
	Use:   "whisper-client",
	Short: "Command-line client for a remote Whisper transcription service",
	Long: "whisper-client uploads audio files to a transcription service, follows each job until it finishes, " +
		"and saves the transcript as markdown next to the audio. Remote videos can be downloaded and converted first.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupApp,
}

var (
	flagConfigPath string
	flagVerbose    bool
	flagServiceURL string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfigPath, "config", "c", "", "Path to config file (default ~/.config/whisper-client/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Print debug logs and full transcripts")
	rootCmd.PersistentFlags().StringVar(&flagServiceURL, "service-url", "", "Transcription service URL (overrides the config file and WHISPER_SERVICE_URL)")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	err := rootCmd.Execute()
	code := exitCode(err)
	if err != nil && code != exitInterrupted {
		var exitErr *exitError
		if !errors.As(err, &exitErr) || exitErr.err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		if code == exitUsage {
			fmt.Fprintf(os.Stderr, "Run '%s --help' for usage.\n", rootCmd.CommandPath())
		}
	}
	os.Exit(code)
}

// exitError carries a specific process exit code. A nil err means the
// command already reported the problem and nothing more is printed.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func usageError(err error) error {
	return &exitError{code: exitUsage, err: err}
}

func silentExit(code int) error {
	return &exitError{code: code}
}

// exitCode maps a command error onto the process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	if types.IsCancelled(err) {
		return exitInterrupted
	}
	return exitFailure
}

// exactArgs is cobra.ExactArgs reported as a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}
