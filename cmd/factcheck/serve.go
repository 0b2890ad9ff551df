package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Gbollysearch7/Hallucination-Agent/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the fact-check HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.close()
		a.openFeedback(ctx)

		srv := server.New(a.serverDeps(), logger)
		return srv.ListenAndServe(ctx, ":"+cfg.Port, cfg.RequestTimeout)
	},
}
