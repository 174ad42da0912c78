package reconcile

import (
	"context"
	"fmt"
	"time"

	"locksync/core/booking"
	"locksync/core/feed"
	"locksync/core/lock"
	"locksync/core/logger"
	"locksync/core/notify"
	"locksync/core/state"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine drives one reconciliation pass: load prior state, fetch the
// current snapshot, classify changes, apply them to the lock, sweep
// expired codes, persist the new state.
type Engine struct {
	source     feed.Source
	store      *state.Store
	controller *lock.Controller
	sweeper    *lock.Sweeper
	notifier   notify.Notifier
	log        *zap.Logger
	lockCfg    lock.Config
	dryRun     bool
	now        func() time.Time
}

// New constructs an engine. All collaborators are passed in explicitly;
// the engine holds no global state, so each invocation is a fresh,
// independently retriable unit of work.
func New(
	source feed.Source,
	store *state.Store,
	controller *lock.Controller,
	sweeper *lock.Sweeper,
	notifier notify.Notifier,
	log *zap.Logger,
	lockCfg lock.Config,
	dryRun bool,
) *Engine {
	return &Engine{
		source:     source,
		store:      store,
		controller: controller,
		sweeper:    sweeper,
		notifier:   notifier,
		log:        log,
		lockCfg:    lockCfg,
		dryRun:     dryRun,
		now:        time.Now,
	}
}

// Run executes a single reconciliation pass. A failure at any point
// before the final persist leaves the previous state untouched, so the
// next scheduled run retries the full change set against it.
func (e *Engine) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{RunID: uuid.NewString()}
	log := logger.WithRun(e.log, summary.RunID)

	log.Info("starting booking sync", zap.Bool("dry_run", e.dryRun))

	e.checkCredentialExpiry(ctx, log)

	st := e.store.Load()
	previous := st.Bookings

	current, err := e.source.Fetch(ctx)
	if err != nil {
		log.Error("failed to fetch booking snapshot, keeping previous state", zap.Error(err))
		return summary, fmt.Errorf("fetch snapshot: %w", err)
	}

	changes := Detect(previous, current)
	summary.Cancellations = len(changes.Cancellations)
	summary.NewBookings = len(changes.NewBookings)
	summary.Extensions = len(changes.Extensions)
	summary.DateChanges = len(changes.DateChanges)

	if changes.Empty() {
		log.Info("no booking changes detected")
	} else {
		log.Info("processing changes",
			zap.Int("cancellations", summary.Cancellations),
			zap.Int("new_bookings", summary.NewBookings),
			zap.Int("extensions", summary.Extensions),
			zap.Int("date_changes", summary.DateChanges),
		)
	}

	if err := e.controller.Connect(ctx); err != nil {
		log.Error("cannot reach lock control plane, keeping previous state", zap.Error(err))
		return summary, err
	}

	// persisted starts as a copy of the current snapshot and is adjusted
	// for per-item failures, so a failed booking is re-detected next run.
	persisted := make(booking.Snapshot, len(current))
	for id, b := range current {
		persisted[id] = b
	}

	if !changes.Empty() {
		if err := e.apply(ctx, log, changes, persisted, summary); err != nil {
			log.Error("apply phase aborted, keeping previous state", zap.Error(err))
			return summary, err
		}
	}

	swept, err := e.sweeper.Sweep(ctx, e.now())
	if err != nil {
		// Sweep problems never block persisting a successful apply.
		log.Warn("cleanup sweep failed", zap.Error(err))
	}
	summary.SweptCodes = swept
	if swept > 0 {
		e.notify(ctx, fmt.Sprintf("Cleaned up %d old lock codes from past guests", swept))
	}

	if e.dryRun {
		log.Info("dry-run: state not persisted")
		return summary, nil
	}

	st.Bookings = persisted
	if err := e.store.Save(st); err != nil {
		return summary, fmt.Errorf("persist state: %w", err)
	}

	log.Info("sync complete",
		zap.Int("cancellations", summary.Cancellations),
		zap.Int("new_bookings", summary.NewBookings),
		zap.Int("extensions", summary.Extensions),
		zap.Int("date_changes", summary.DateChanges),
		zap.Int("swept_codes", summary.SweptCodes),
		zap.Int("item_errors", len(summary.ItemErrors)),
	)
	return summary, nil
}

// apply drives the change set against the lock. Cancellations go first,
// then new bookings, then date modifications. A control-plane failure
// aborts the whole phase; per-item failures are recorded and skipped.
func (e *Engine) apply(ctx context.Context, log *zap.Logger, changes ChangeSet, persisted booking.Snapshot, summary *RunSummary) error {
	for _, b := range changes.Cancellations {
		if err := e.controller.Revoke(ctx, b); err != nil {
			if lock.IsControlPlane(err) {
				return err
			}
			e.itemFailed(log, summary, b.ID, "revoke", err)
			// Keep the booking so the cancellation is retried next run.
			persisted[b.ID] = b
			continue
		}
		e.notify(ctx, fmt.Sprintf("Cancelled: removed code %s for %s", b.Code, b.Guest))
	}

	for _, b := range changes.NewBookings {
		if err := e.controller.Provision(ctx, b); err != nil {
			if lock.IsControlPlane(err) {
				return err
			}
			e.itemFailed(log, summary, b.ID, "provision", err)
			// Drop the booking so it is re-detected as new next run.
			delete(persisted, b.ID)
			continue
		}

		codeType := "Phone-based"
		if !b.PhoneVerified() {
			codeType = "GENERATED (notify guest!)"
		}
		e.notify(ctx, fmt.Sprintf("New lock code for %s\nCode: %s\nDates: %s to %s\nType: %s",
			b.Guest, b.Code,
			b.Start.Format("2006-01-02"), b.End.Format("2006-01-02"),
			codeType,
		))
	}

	modifications := make([]Change, 0, len(changes.Extensions)+len(changes.DateChanges))
	modifications = append(modifications, changes.Extensions...)
	modifications = append(modifications, changes.DateChanges...)

	for _, ch := range modifications {
		// Revoke the old window before adding the new one so the stale
		// code never outlives the intended boundary. A non-fatal revoke
		// failure does not block the guest's new code.
		if err := e.controller.Revoke(ctx, ch.Before); err != nil {
			if lock.IsControlPlane(err) {
				return err
			}
			e.itemFailed(log, summary, ch.Before.ID, "revoke", err)
		}

		if err := e.controller.Provision(ctx, ch.After); err != nil {
			if lock.IsControlPlane(err) {
				return err
			}
			e.itemFailed(log, summary, ch.After.ID, "provision", err)
			// Keep the old dates so the move is retried next run.
			persisted[ch.After.ID] = ch.Before
			continue
		}

		kind := "Modified"
		if ch.After.End.After(ch.Before.End) {
			kind = "Extended"
		}
		e.notify(ctx, fmt.Sprintf("%s: %s\nCode: %s\n%s to %s -> %s to %s",
			kind, ch.After.Guest, ch.After.Code,
			ch.Before.Start.Format("2006-01-02"), ch.Before.End.Format("2006-01-02"),
			ch.After.Start.Format("2006-01-02"), ch.After.End.Format("2006-01-02"),
		))
	}

	return nil
}

func (e *Engine) itemFailed(log *zap.Logger, summary *RunSummary, bookingID, op string, err error) {
	log.Warn("item failed, continuing with remaining changes",
		zap.String("booking_id", bookingID),
		zap.String("op", op),
		zap.Error(err),
	)
	summary.ItemErrors = append(summary.ItemErrors, ItemError{
		BookingID: bookingID,
		Op:        op,
		Err:       err,
	})
}

// notify delivers a best-effort message, suppressed in dry-run mode so a
// preview never messages the host about changes that were not made.
func (e *Engine) notify(ctx context.Context, text string) {
	if e.dryRun {
		return
	}
	e.notifier.Notify(ctx, text)
}
