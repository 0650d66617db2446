package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func memoryCmd(state *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect or extend customer memory",
	}

	var customer, text string
	add := &cobra.Command{
		Use:   "add",
		Short: "Append a note to a customer's memory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := state.mustReady(); err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("--text must not be empty")
			}
			store, err := openMemory(cmd.Context(), state.cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Append(cmd.Context(), customer, text); err != nil {
				return err
			}
			state.logger.Info("memory appended", zap.String("customer", customer), zap.String("backend", state.cfg.Storage.Memory.Backend))
			return nil
		},
	}
	add.Flags().StringVar(&customer, "customer", "", "customer id")
	add.Flags().StringVar(&text, "text", "", "note to remember")
	_ = add.MarkFlagRequired("customer")
	_ = add.MarkFlagRequired("text")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print a customer's remembered notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := state.mustReady(); err != nil {
				return err
			}
			store, err := openMemory(cmd.Context(), state.cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			content, err := store.Read(cmd.Context(), customer)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), content)
			return err
		},
	}
	show.Flags().StringVar(&customer, "customer", "", "customer id")
	_ = show.MarkFlagRequired("customer")

	cmd.AddCommand(add, show)
	return cmd
}
