package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// KV is a durable key-value store scoped to one workspace.
//
// Get reports ok=false when nothing is stored under key. Set replaces the
// whole value in one step and returns only after the value is durable.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

// Workspace is the SQLite-backed KV for a single workspace.
type Workspace struct {
	store *Store
	name  string
}

// Name returns the workspace name.
func (w *Workspace) Name() string {
	return w.name
}

// Get reads the value stored under key.
func (w *Workspace) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := w.store.db.QueryRowContext(ctx, `
		SELECT value FROM kv
		WHERE workspace = ? AND key = ?
	`, w.name, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s/%s: %w", w.name, key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
// Uses a transaction so the workspace row and the value land together.
func (w *Workspace) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}

	tx, err := w.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set %s/%s: begin tx: %w", w.name, key, err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO workspaces (name) VALUES (?)
		ON CONFLICT(name) DO NOTHING
	`, w.name); err != nil {
		return fmt.Errorf("set %s/%s: workspace: %w", w.name, key, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO kv (workspace, key, value, writes)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(workspace, key) DO UPDATE
		SET value = excluded.value, writes = kv.writes + 1
	`, w.name, key, value); err != nil {
		return fmt.Errorf("set %s/%s: upsert: %w", w.name, key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set %s/%s: commit: %w", w.name, key, err)
	}
	return nil
}

// Writes returns how many times key has been written in this workspace.
// Returns 0 if nothing is stored.
func (w *Workspace) Writes(ctx context.Context, key string) (int64, error) {
	var n int64
	err := w.store.db.QueryRowContext(ctx, `
		SELECT writes FROM kv
		WHERE workspace = ? AND key = ?
	`, w.name, key).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("writes %s/%s: %w", w.name, key, err)
	}
	return n, nil
}
