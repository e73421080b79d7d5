// Package tasks runs long roast operations with real-time progress reporting.
//
// # Core Operations
//
// [RoastEngine] exposes two operations:
//
//  1. [RoastEngine.Targets] : Resolve which records to export
//     - Lists the remote history for the session
//     - Keeps the requested ids in order, or every record when none are given
//     - Fails with [shared.ErrRecordNotFound] naming ids missing from history
//
//  2. [RoastEngine.BulkExport] : Export many records concurrently
//     - Loads every slide of each record through [services.FetchRoast]
//     - Writes one file (or Markdown directory) per record
//     - Writes export_manifest.json summarizing successes and failures
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Pacing
//
// Record fetches pass a token bucket limiter (golang.org/x/time/rate) before a
// worker picks them up, on top of whatever limiter the API client carries.
package tasks
