package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"animeta/internal/pipeline"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "process <title>",
		Short: "Run the full pipeline for a single title",
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
			proc, err := buildPipeline(cfg, logger)
			if err != nil {
				return err
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			result := proc.Process(runCtx, args[0], pipeline.Seed{}, nil)

			out := cmd.OutOrStdout()
			if jsonOutput {
				encoder := json.NewEncoder(out)
				encoder.SetEscapeHTML(false)
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(result); err != nil {
					return err
				}
			} else {
				printResult(cmd, result)
			}

			if result.Status == pipeline.StatusFailed {
				return fmt.Errorf("processing failed: %s", result.Error)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the raw pipeline result as JSON")
	return cmd
}

func printResult(cmd *cobra.Command, result pipeline.Result) {
	out := cmd.OutOrStdout()

	rows := make([][]string, 0, len(result.Stages))
	for _, stage := range result.Stages {
		outcome := "ok"
		if !stage.Success {
			outcome = "failed"
		}
		rows = append(rows, []string{
			stage.Stage,
			outcome,
			fmt.Sprintf("%.2fs", stage.DurationSeconds),
			stage.Error,
		})
	}

	fmt.Fprintf(out, "Title:  %s\n", result.Title)
	fmt.Fprintf(out, "Status: %s (steps %s/4)\n", result.Status, strconv.Itoa(result.StepsCompleted))
	if result.CatalogURL != "" {
		fmt.Fprintf(out, "Catalog: %s\n", result.CatalogURL)
	}
	if result.PageURL != "" {
		fmt.Fprintf(out, "Page:    %s\n", result.PageURL)
	}
	if result.Error != "" {
		fmt.Fprintf(out, "Error:   %s\n", result.Error)
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Stage", "Outcome", "Duration", "Note"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
}
