package main

import (
	"context"

	"github.com/spf13/cobra"
)

var listJobsCmd = &cobra.Command{
	Use:     "list-jobs",
	Aliases: []string{"jobs"},
	Short:   "List the jobs known to the transcription service",
	Args:    exactArgs(0),
	RunE:    runListJobs,
}

func init() {
	rootCmd.AddCommand(listJobsCmd)
}

func runListJobs(cmd *cobra.Command, _ []string) error {
	a := current
	return a.withInterrupts(cmd, func(ctx context.Context) error {
		if err := a.requireService(ctx); err != nil {
			return err
		}
		jobs, err := a.client.List(ctx)
		if err != nil {
			return a.reportRequestError("job list", err)
		}
		a.printer.PrintJobs(jobs, a.verbose)
		return nil
	})
}
