// Package notify sends human-readable messages about code changes to the
// host, via an external messaging CLI. It is strictly fire-and-forget:
// every failure mode is swallowed and logged.
package notify
