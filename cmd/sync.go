package cmd

import (
	"context"
	"fmt"

	"locksync/core/config"
	"locksync/core/feed"
	"locksync/core/lock"
	"locksync/core/logger"
	"locksync/core/notify"
	"locksync/core/reconcile"
	"locksync/core/state"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var dryRunSync bool

// syncCmd runs a single reconciliation pass and exits.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one booking-to-lock reconciliation pass",
	Long: `Fetch the booking calendar, diff it against the last persisted
snapshot, and apply the resulting code changes to the lock.

Examples:
  # One full pass
  locksync sync

  # Preview only: log every planned change, touch nothing
  locksync sync --dry-run`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVarP(&dryRunSync, "dry-run", "n", false, "Compute and log changes without touching the lock or state file")
	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	return runPass(context.Background(), cfg, l, effectiveDryRun(dryRunSync, cfg))
}

// effectiveDryRun merges the per-command flag with the configured mode;
// either one enables dry-run. Shared by sync, watch, and cleanup.
func effectiveDryRun(flag bool, cfg *config.Config) bool {
	return flag || cfg.Reconcile.DryRun
}

// runPass wires the collaborators and executes one engine pass. Shared by
// the sync and watch commands.
func runPass(ctx context.Context, cfg *config.Config, l *zap.Logger, dryRun bool) error {
	source, err := feed.NewICalSource(cfg.Feed, l)
	if err != nil {
		return fmt.Errorf("failed to initialize calendar feed: %w", err)
	}

	client, err := lock.NewClient(cfg.Lock)
	if err != nil {
		return fmt.Errorf("failed to initialize lock client: %w", err)
	}

	controller, err := lock.NewController(client, cfg.Lock, l, dryRun)
	if err != nil {
		return fmt.Errorf("failed to initialize lock controller: %w", err)
	}
	sweeper := lock.NewSweeper(client, cfg.Lock, l, dryRun)

	store := state.NewStore(cfg.State, l)
	notifier := notify.New(cfg.Notify, l)

	engine := reconcile.New(source, store, controller, sweeper, notifier, l, cfg.Lock, dryRun)

	summary, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	if len(summary.ItemErrors) > 0 {
		l.Warn("pass completed with item errors",
			zap.String("run_id", summary.RunID),
			zap.Int("item_errors", len(summary.ItemErrors)),
		)
	}
	return nil
}
