package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/ctxmerge/internal/orchestrator"
)

func planCmd(state *cli) *cobra.Command {
	var flags requestFlags
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the gathering plan and the proposed sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := state.mustReady(); err != nil {
				return err
			}
			req, err := flags.request()
			if err != nil {
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

			res := a.orch.Plan(ctx, orchestrator.NewSession("cli", req))
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	flags.register(cmd)
	return cmd
}
