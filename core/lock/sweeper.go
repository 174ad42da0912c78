package lock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Sweeper removes guest codes left behind on the device after their
// validity window ended.
type Sweeper struct {
	client Client
	log    *zap.Logger
	grace  time.Duration
	dryRun bool
}

// NewSweeper creates a sweeper over the given client.
func NewSweeper(client Client, cfg Config, log *zap.Logger, dryRun bool) *Sweeper {
	days := cfg.GracePeriodDays
	if days <= 0 {
		days = 14
	}
	return &Sweeper{
		client: client,
		log:    log,
		grace:  time.Duration(days) * 24 * time.Hour,
		dryRun: dryRun,
	}
}

// Sweep deletes owner-tagged codes whose validity window ended strictly
// before now minus the grace period, and returns the number removed.
// Per-code deletion failures are logged and skipped so one stuck record
// cannot block cleanup of the rest. Codes without the ownership tag are
// never considered.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	records, err := s.client.ListCodesByOwnerTag(ctx, OwnerTagPrefix)
	if err != nil {
		return 0, fmt.Errorf("list codes: %w", err)
	}

	cutoff := now.Add(-s.grace)
	removed := 0

	for _, rec := range records {
		if !strings.HasPrefix(rec.Name, OwnerTagPrefix) {
			continue
		}
		if rec.End.IsZero() || !rec.End.Before(cutoff) {
			continue
		}

		if s.dryRun {
			s.log.Info("dry-run: would remove expired code",
				zap.String("name", rec.Name),
				zap.Time("expired_at", rec.End),
			)
			removed++
			continue
		}

		if err := s.client.DeleteCode(ctx, rec.ID); err != nil {
			s.log.Warn("failed to remove expired code",
				zap.String("name", rec.Name),
				zap.Error(err),
			)
			continue
		}

		s.log.Info("removed expired code",
			zap.String("name", rec.Name),
			zap.Time("expired_at", rec.End),
		)
		removed++
	}

	return removed, nil
}
