// Package store provides durable, workspace-scoped key-value storage for slotmarks.
//
// The store backs the host's "durable key-value store" collaborator: a value
// written under (workspace, key) survives process restarts and is replaced
// wholesale on every Set. The slot table is one such value.
//
// Two implementations satisfy KV:
//   - Workspace: a view of a SQLite database (Open) scoped to one workspace
//   - MemoryKV: in-process map for tests and throwaway sessions
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Every Set is a single UPSERT statement, so a value is either fully replaced
// or untouched; readers never observe a partial write.
package store
