// Package booking defines the domain model shared by the feed, the
// reconciliation engine, and the lock controller: the Booking record and
// the point-in-time Snapshot of all bookings.
//
// Bookings live inside snapshots only; they have no independent
// lifecycle. Snapshots are immutable once produced and are compared by
// the reconcile package to derive the set of lock-code mutations.
package booking
