package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"animeta/internal/api"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the single-title pipeline over HTTP",
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
			server, err := api.NewServer(cfg, proc, logger)
			if err != nil {
				return err
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := server.Start(runCtx); err != nil {
				return err
			}
			<-runCtx.Done()
			server.Stop()
			return nil
		},
	}
}
