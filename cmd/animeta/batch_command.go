package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"animeta/internal/batch"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "batch <csv>",
		Short: "Process every title listed in a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := buildLogger(cfg)
			if err != nil {
				return err
			}
			runner, err := buildRunner(cfg, logger)
			if err != nil {
				return err
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			summary, runDir, err := runner.Run(runCtx, args[0], description)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run directory: %s\n", runDir)
			printSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Free-form description stored in batch_config.json")
	return cmd
}

func printSummary(cmd *cobra.Command, summary *batch.Summary) {
	out := cmd.OutOrStdout()
	exec := summary.ExecutionSummary

	fmt.Fprintf(out, "Run %s: %d items, %s success rate", summary.RunID, exec.TotalItems, exec.SuccessRate)
	if exec.Interrupted {
		fmt.Fprint(out, " (interrupted)")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, renderTable(
		[]string{"Succeeded", "Partial", "Failed"},
		[][]string{{
			strconv.Itoa(exec.SucceededCount),
			strconv.Itoa(exec.PartialCount),
			strconv.Itoa(exec.FailedCount),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight},
	))

	if len(summary.FailedItems) == 0 {
		return
	}
	rows := make([][]string, 0, len(summary.FailedItems))
	for _, item := range summary.FailedItems {
		rows = append(rows, []string{item.Title, item.FailedStage, item.Reason})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Failed Item", "Stage", "Reason"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft},
	))
}
