package reconcile

import "locksync/core/booking"

// Change pairs the previous and current versions of a modified booking.
type Change struct {
	Before booking.Booking
	After  booking.Booking
}

// ChangeSet classifies every difference between two snapshots. The four
// sequences are disjoint: a booking present in both snapshots with
// differing dates lands in exactly one of Extensions or DateChanges,
// decided by comparing end instants only.
type ChangeSet struct {
	// Cancellations are bookings present in the previous snapshot but
	// absent from the current one.
	Cancellations []booking.Booking

	// NewBookings are bookings present in the current snapshot but
	// absent from the previous one.
	NewBookings []booking.Booking

	// Extensions are bookings whose end instant moved strictly later.
	Extensions []Change

	// DateChanges are bookings whose dates changed without qualifying as
	// an extension: moved earlier, shortened, or start-only shifts.
	DateChanges []Change
}

// Empty reports whether the set contains no changes.
func (cs ChangeSet) Empty() bool {
	return cs.Total() == 0
}

// Total returns the number of changes across all classes.
func (cs ChangeSet) Total() int {
	return len(cs.Cancellations) + len(cs.NewBookings) + len(cs.Extensions) + len(cs.DateChanges)
}

// ItemError records a per-booking failure that did not abort the run.
// The affected booking stays pending in the persisted state so the next
// run retries it.
type ItemError struct {
	BookingID string
	Op        string
	Err       error
}

// RunSummary aggregates the outcome of one reconciliation pass.
type RunSummary struct {
	// RunID correlates log entries belonging to this pass.
	RunID string

	// Detected change counts.
	Cancellations int
	NewBookings   int
	Extensions    int
	DateChanges   int

	// SweptCodes is the number of expired codes removed by cleanup.
	SweptCodes int

	// ItemErrors lists per-booking failures that were logged and skipped.
	ItemErrors []ItemError
}
