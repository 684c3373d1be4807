package main

import (
	"context"

	"github.com/spf13/cobra"
)

var terminateCmd = &cobra.Command{
	Use:   "terminate JOB_ID",
	Short: "Ask the service to stop a job",
	Args:  exactArgs(1),
	RunE:  runTerminate,
}

func init() {
	rootCmd.AddCommand(terminateCmd)
}

func runTerminate(cmd *cobra.Command, args []string) error {
	a := current
	jobID := args[0]
	return a.withInterrupts(cmd, func(ctx context.Context) error {
		if err := a.requireService(ctx); err != nil {
			return err
		}
		snap, err := a.client.Terminate(ctx, jobID)
		if err != nil {
			return a.reportRequestError("job "+jobID, err)
		}
		if snap.JobID == "" {
			snap.JobID = jobID
		}
		a.printer.PrintTerminated(snap)
		return nil
	})
}
