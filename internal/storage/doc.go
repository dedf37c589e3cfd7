// Package storage is the persistence layer for the bot core.
//
// It owns two record families:
//   - quota_counters: per-actor rolling-window request counters
//   - scheduled_jobs: deferred channel posts with a status lifecycle
//
// Each family enforces a single-writer discipline via its own mutex;
// reads may overlap freely. Every call is bounded by the configured
// op timeout, and any driver failure surfaces as ErrUnavailable so
// callers can pick a fail-open or fail-closed default.
package storage
