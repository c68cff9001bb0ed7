package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"animeta/internal/batch"
)

func newResumeCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var item string

	cmd := &cobra.Command{
		Use:   "resume [run-id]",
		Short: "Reprocess the failed items of a prior batch run",
		Long: `Reprocess the non-successful items of a prior batch run, restarting
each from the stage it failed at and reusing the stage artifacts saved
before the failure. Without a run id the most recent run is resumed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			runID := "latest"
			if len(args) == 1 {
				runID = args[0]
			}
			runDir, err := batch.FindRunDir(cfg.Paths.OutputRoot, runID)
			if err != nil {
				return err
			}

			logger, err := buildLogger(cfg)
			if err != nil {
				return err
			}

			var runner *batch.Runner
			if dryRun {
				// Planning needs no external services.
				runner = batch.NewRunner(cfg.Paths.OutputRoot, nil, nil, logger)
			} else {
				runner, err = buildRunner(cfg, logger)
				if err != nil {
					return err
				}
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			report, err := runner.Resume(runCtx, runDir, batch.ResumeOptions{Item: item, DryRun: dryRun})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(report.Plan) == 0 {
				fmt.Fprintf(out, "Run %s has no failed items\n", report.RunID)
				return nil
			}

			rows := make([][]string, 0, len(report.Plan))
			for _, planned := range report.Plan {
				rows = append(rows, []string{
					planned.Title,
					planned.FinalStatus,
					planned.FailedStage,
					planned.ResumeStage,
					planned.Reason,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Item", "Status", "Failed At", "Resume From", "Reason"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))

			if dryRun {
				fmt.Fprintln(out, "Dry run: nothing was processed")
				return nil
			}
			printSummary(cmd, report.Summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the resume plan without processing")
	cmd.Flags().StringVar(&item, "item", "", "Resume only the named title")
	return cmd
}
