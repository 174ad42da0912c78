// Package lock provides the integration with the lock vendor's control
// plane: the Client capability, the Controller that turns bookings into
// time-windowed access codes, and the Sweeper that cleans up expired ones.
//
// # Idempotence
//
// Reconciliation runs must be safely retriable after a crash, so the
// Controller treats a duplicate code on the device as success rather
// than an error, and a missing code on revocation as a soft condition.
// Code values and validity windows are deterministic for the same source
// data, which is what makes the duplicate-equals-success rule sound.
//
// # Error kinds
//
// The Client surfaces typed error kinds instead of vendor error strings:
//
//   - ErrDuplicateCode: the code already exists (success-equivalent on add)
//   - ErrCodeNotFound: no matching code (soft condition on revoke)
//   - ControlPlaneError: the device API is unreachable or rejected
//     authentication; the whole apply phase aborts and is retried on the
//     next scheduled run
//
// # Ownership
//
// Every code this system creates carries the OwnerTagPrefix name tag.
// The device's code list is shared with manually created codes, so only
// tagged records are ever candidates for cleanup.
package lock
