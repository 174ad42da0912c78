// Package reconcile is the core of the system: it diffs two booking
// snapshots and drives the minimal set of lock-code mutations needed to
// make the device match the calendar.
//
// # Architecture
//
// The package has two halves:
//
//  1. Detect: a pure function comparing the previous and current
//     snapshots into a ChangeSet of cancellations, new bookings,
//     extensions, and date changes. Every booking pair with differing
//     dates lands in exactly one class; classification is by end instant
//     only (strictly later = extension).
//
//  2. Engine: the run loop. One invocation performs
//     credential check -> load state -> fetch snapshot -> detect ->
//     apply -> sweep -> persist, in that order, synchronously.
//
// # Failure model
//
// Each invocation is an independently retriable unit. State is persisted
// only at the very end of a successful pass, so a crash, a fetch
// failure, or an unreachable control plane leaves the previous state
// byte-for-byte intact and the next scheduled run retries the whole
// change set. Idempotent provisioning (duplicate code = success) makes
// that retry safe.
//
// Per-booking failures do not abort the pass: they are logged, recorded
// in the RunSummary, and the persisted snapshot is adjusted so the
// affected booking is re-detected on the next run.
package reconcile
