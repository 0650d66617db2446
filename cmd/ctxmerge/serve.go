package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/ctxmerge/internal/server"
)

func serveCmd(state *cli) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := state.mustReady(); err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, state.cfg, state.logger)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				a.Close(shutdownCtx)
			}()

			if addr == "" {
				addr = state.cfg.Server.Address
			}
			srv := server.New(a.orch, state.logger, server.Options{
				SessionTTL:  state.cfg.Server.SessionTTL,
				MaxSessions: state.cfg.Server.MaxSessions,
				MetricsPath: state.cfg.Telemetry.MetricsPath,
				Metrics:     a.telemetry.MetricsHandler(),
			})
			return srv.Start(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.address)")
	return cmd
}
