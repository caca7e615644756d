// Package store provides SQLite-backed durable snapshots of record lists.
//
// A snapshot is an immutable copy of a list saved under a name. Saving the
// same name again appends a new snapshot with the next seq; the latest seq
// is what Load returns. Saving content identical to the latest snapshot
// (same list hash) is a no-op.
//
// # Layout
//
//   - snapshots: id, name, seq, hash, count
//   - snapshot_records: one row per record, keyed by (snapshot_id, position),
//     data stored as canonical JSON
//
// Ordering always uses seq and position, never wall time, so history reads
// are deterministic. Record data is queryable through SQLite's JSON1
// functions (see Find); every value is bound as a parameter.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Deleting a snapshot removes its records
//
// Time values are stored as RFC 3339 strings and load back as String.
package store
