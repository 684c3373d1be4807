package main

import (
	"context"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status JOB_ID",
	Short: "Show the state of one job",
	Long:  "Show the state, progress and, once completed, the transcript of one job. Exits 0 whenever the query succeeds.",
	Args:  exactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a := current
	jobID := args[0]
	return a.withInterrupts(cmd, func(ctx context.Context) error {
		if err := a.requireService(ctx); err != nil {
			return err
		}
		snap, err := a.client.Status(ctx, jobID)
		if err != nil {
			return a.reportRequestError("job "+jobID, err)
		}
		a.printer.PrintStatus(snap, a.verbose)
		return nil
	})
}
