package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/ctxmerge/config"
	"github.com/mohammad-safakhou/ctxmerge/internal/logging"
)

// cli holds what PersistentPreRunE prepared for the subcommands.
type cli struct {
	cfgPath string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	state := &cli{}
	root := &cobra.Command{
		Use:           "ctxmerge",
		Short:         "Gather, rank and condense context for a generation task",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.LoadConfig(state.cfgPath)
			if err != nil {
				return err
			}
			if state.verbose {
				cfg.General.Debug = true
			}
			logger, _, err := logging.New(cfg.General.LogLevel, cfg.General.Debug)
			if err != nil {
				return err
			}
			state.cfg, state.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if state.logger != nil {
				_ = state.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&state.cfgPath, "config", "c", "", "config file (default searches ./config and .)")
	root.PersistentFlags().BoolVarP(&state.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		serveCmd(state),
		runCmd(state),
		planCmd(state),
		memoryCmd(state),
		migrateCmd(state),
	)
	return root
}

func (c *cli) mustReady() error {
	if c.cfg == nil || c.logger == nil {
		return fmt.Errorf("configuration not loaded")
	}
	return nil
}
