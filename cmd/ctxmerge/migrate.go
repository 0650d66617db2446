package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/ctxmerge/repository/memory_repository"
)

func migrateCmd(state *cli) *cobra.Command {
	var direction string
	var steps int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run customer memory schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := state.mustReady(); err != nil {
				return err
			}
			if direction != "up" && direction != "down" {
				return fmt.Errorf("--direction must be up or down, got %q", direction)
			}
			if steps < 0 {
				return fmt.Errorf("--steps must not be negative")
			}
			backend := state.cfg.Storage.Memory.Backend
			if err := memory_repository.MigrateStore(memoryConfig(state.cfg), direction, steps); err != nil {
				return fmt.Errorf("migrate %s: %w", backend, err)
			}
			state.logger.Info("migrations applied",
				zap.String("backend", backend),
				zap.String("direction", direction),
				zap.Int("steps", steps),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&direction, "direction", "up", "up or down")
	cmd.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")
	return cmd
}
