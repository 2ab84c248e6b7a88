package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/rsywx-client/internal/app"
)

func newLoadCommand(flags *rootFlags) *cobra.Command {
	var (
		strategy string
		report   bool
	)
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the home page data once and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if strategy != "" {
				cfg.Loader.Strategy = strategy
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := runLoad(ctx, a); err != nil {
				return err
			}

			out, err := json.MarshalIndent(homePayload(a, false), "", "  ")
			if err != nil {
				return fmt.Errorf("encode home data: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if report {
				txt, jsonPath, err := a.SaveReport()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "report written to %s and %s\n", txt, jsonPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", "", "override loader.strategy (staged|concurrent)")
	cmd.Flags().BoolVar(&report, "report", false, "write a performance report to report.dir")
	return cmd
}

// runLoad runs one load session and waits for its background wave. Load
// failures stay in the stores; only an unusable strategy or an interrupt is
// returned.
func runLoad(ctx context.Context, a *app.App) error {
	wave, err := a.Orchestrator.Load(ctx)
	if err != nil {
		return err
	}
	if err := wave.Wait(ctx); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}
