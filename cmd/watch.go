package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"locksync/core/config"
	"locksync/core/logger"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var dryRunWatch bool

// watchCmd runs reconciliation passes on a fixed interval until stopped.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run reconciliation passes continuously on an interval",
	Long: `Run an immediate reconciliation pass, then repeat on the configured
interval (reconcile.interval, default 15m) until interrupted.

A pass that is still running when the next tick fires is never
overlapped; the tick is skipped instead.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVarP(&dryRunWatch, "dry-run", "n", false, "Compute and log changes without touching the lock or state file")
	RootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	dryRun := effectiveDryRun(dryRunWatch, cfg)
	ctx := context.Background()

	pass := func() {
		if err := runPass(ctx, cfg, l, dryRun); err != nil {
			// A failed pass keeps the previous state; the next tick retries.
			l.Error("reconciliation pass failed", zap.Error(err))
		}
	}

	l.Info("starting watch loop",
		zap.String("interval", cfg.Reconcile.Interval),
		zap.Bool("dry_run", dryRun),
	)
	pass()

	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	if _, err := c.AddFunc("@every "+cfg.Reconcile.Interval, pass); err != nil {
		return fmt.Errorf("invalid reconcile interval %q: %w", cfg.Reconcile.Interval, err)
	}
	c.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("shutting down watch loop")
	<-c.Stop().Done()
	return nil
}
