package cmd

import (
	"context"
	"fmt"
	"time"

	"locksync/core/config"
	"locksync/core/lock"
	"locksync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var dryRunCleanup bool

// cleanupCmd removes expired guest codes without running a full sync.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove expired guest codes from the lock",
	Long: `Delete owner-tagged codes whose validity window ended more than the
grace period ago (lock.grace_period_days, default 14). Codes not created
by this system are never touched.

Examples:
  # Delete expired codes
  locksync cleanup

  # Report what would be deleted
  locksync cleanup --dry-run`,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().BoolVarP(&dryRunCleanup, "dry-run", "n", false, "Report expired codes without deleting them")
	RootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	dryRun := effectiveDryRun(dryRunCleanup, cfg)

	client, err := lock.NewClient(cfg.Lock)
	if err != nil {
		return fmt.Errorf("failed to initialize lock client: %w", err)
	}
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to lock: %w", err)
	}

	sweeper := lock.NewSweeper(client, cfg.Lock, l, dryRun)
	removed, err := sweeper.Sweep(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	l.Info("cleanup complete",
		zap.Int("removed", removed),
		zap.Bool("dry_run", dryRun),
	)
	return nil
}
