// Package state persists the reconciliation state between runs.
//
// The state is a single JSON document: the last-known booking snapshot,
// the last-sync timestamp, and the credential-expiry warning flags. It is
// read once at the start of a run and written once at the end; there are
// no concurrent writers, so atomic replace (write-temp-then-rename) is
// the only discipline required.
//
// Load never fails: missing or corrupt data degrades to an empty default
// with a logged warning, which makes the next reconciliation treat every
// current booking as new. That is safe because provisioning is idempotent.
package state
