// Package repositories implements persistence for roastx sessions and records.
//
// Key Implementations:
//   - [SessionRepository] : SQLite session store with JSON value and cookie columns
//   - [MemorySessionStore] : In-process session store for tests and --memory serving
//   - [RecordRepository] : Log of wrapped records created through this client, soft deleted
//
// Sequence numbers provide stable, human-readable ordering (e.g., record #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
