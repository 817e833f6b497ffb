// Package store provides SQLite-backed persistence for checker runs.
//
// The store keeps:
//   - Runs: one summary row per checker run, with per-property dispositions
//   - States: explored states as canonical JSON, keyed by (run, state hash)
//   - Discoveries: the path to the first state deciding each property
//
// # Critical Patterns
//
// Logical ordering
//   - Runs are ordered by seq INTEGER (assigned on insert), never timestamps
//   - Listing queries use ORDER BY seq ASC, id ASC COLLATE BINARY
//
// Content addressing
//   - State rows are keyed by the state hash, so writes are idempotent
//   - Discovery paths are stored as canonical action objects and replayed
//     against a model by ReplayDiscovery, which checks every hash
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
