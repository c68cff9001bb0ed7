package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"animeta/internal/batch"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List batch runs under the output root",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			runs, err := batch.ListRuns(cfg.Paths.OutputRoot)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No batch runs found")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				items, rate, failed := "-", "-", "-"
				state := "incomplete"
				if run.HasSummary {
					exec := run.Summary.ExecutionSummary
					items = strconv.Itoa(exec.TotalItems)
					rate = exec.SuccessRate
					failed = strconv.Itoa(exec.FailedCount + exec.PartialCount)
					if exec.Interrupted {
						state = "interrupted"
					} else {
						state = "complete"
					}
				}
				rows = append(rows, []string{run.RunID, items, rate, failed, state})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Items", "Success Rate", "Not Succeeded", "State"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
}
