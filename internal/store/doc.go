// Package store provides SQLite-backed durable storage for match logs.
//
// A match is stored as:
//   - Matches: rule-set name, seed, players, current state id, outcome
//   - Commands: every applied command, keyed by the state id it produced
//   - Events: every logged stream entry, keyed by its stream id
//   - Snapshots: zstd-compressed canonical state JSON at chosen state ids
//
// # Ordering
//
// Commands are read ORDER BY state_id ASC and events ORDER BY event_id ASC.
// Replaying the command list from the match seed rebuilds the match; see
// ReplayMatch. AppendCommand refuses a state id that does not follow the
// match's current one, so the command list has no gaps.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
