// Package slots is the single authority for reading and mutating the slot table.
//
// No cached table: every operation reads the persisted value, and every
// mutation reads it again immediately before modifying it and writes the whole
// table back in one Set. A table read before a suspension point (an awaited
// open, a picker) is therefore never written back stale. Mutating an
// uninitialized table initializes it in that same Set.
package slots

import (
	"context"
	"log/slog"

	"github.com/roach88/slotmarks/internal/ir"
	"github.com/roach88/slotmarks/internal/store"
)

// Store reads and mutates the persisted slot table.
type Store struct {
	kv  store.KV
	key string
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the storage key (default ir.StorageKey).
func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

// New creates a Store persisting to kv.
func New(kv store.KV, opts ...Option) *Store {
	s := &Store{kv: kv, key: ir.StorageKey}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the storage key the table lives under.
func (s *Store) Key() string {
	return s.key
}

// Load returns the persisted table. If nothing is persisted yet, an all-absent
// table is persisted and returned, so later loads are stable. Calling Load
// again after initialization performs no write.
func (s *Store) Load(ctx context.Context) (ir.SlotTable, error) {
	table, ok, err := s.read(ctx)
	if err != nil {
		return ir.SlotTable{}, err
	}
	if ok {
		return table, nil
	}

	table = ir.NewSlotTable()
	if err := s.write(ctx, "initialize", -1, table); err != nil {
		return ir.SlotTable{}, err
	}
	slog.Info("slot table initialized", "key", s.key)
	return table, nil
}

// GetSlot returns the bookmark at index, or nil if the slot is absent.
// Read-only: an uninitialized table reads as all-absent without being written.
func (s *Store) GetSlot(ctx context.Context, index int) (*ir.Bookmark, error) {
	ir.MustIndex(index)
	table, _, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	return table.Get(index), nil
}

// SetSlot overwrites slot index with rec and persists before returning.
func (s *Store) SetSlot(ctx context.Context, index int, rec ir.Bookmark) error {
	ir.MustIndex(index)
	table, _, err := s.read(ctx)
	if err != nil {
		return err
	}
	if err := s.write(ctx, "set slot", index, table.With(index, rec)); err != nil {
		return err
	}
	slog.Info("slot set", "slot", index, "document", rec.DocumentID, "line", rec.Line, "column", rec.Column)
	return nil
}

// ClearSlot makes slot index absent and persists before returning.
func (s *Store) ClearSlot(ctx context.Context, index int) error {
	ir.MustIndex(index)
	table, _, err := s.read(ctx)
	if err != nil {
		return err
	}
	if err := s.write(ctx, "clear slot", index, table.Without(index)); err != nil {
		return err
	}
	slog.Info("slot cleared", "slot", index)
	return nil
}

// ToggleSlot adds candidate to slot index, or removes the slot's bookmark if
// it already points at the candidate's document and line (column ignored).
//
//	absent                      -> Added   (slot = candidate)
//	same document, same line    -> Removed (slot absent)
//	different document or line  -> Added   (slot overwritten)
//
// Exactly one persist happens per call.
func (s *Store) ToggleSlot(ctx context.Context, index int, candidate ir.Bookmark) (ir.ToggleResult, error) {
	ir.MustIndex(index)
	table, _, err := s.read(ctx)
	if err != nil {
		return 0, err
	}

	existing := table.Get(index)
	if existing != nil && existing.SameLocation(candidate) {
		if err := s.write(ctx, "toggle slot", index, table.Without(index)); err != nil {
			return 0, err
		}
		slog.Info("slot toggled", "slot", index, "result", ir.ToggleRemoved, "document", candidate.DocumentID, "line", candidate.Line)
		return ir.ToggleRemoved, nil
	}

	if err := s.write(ctx, "toggle slot", index, table.With(index, candidate)); err != nil {
		return 0, err
	}
	slog.Info("slot toggled", "slot", index, "result", ir.ToggleAdded, "document", candidate.DocumentID, "line", candidate.Line)
	return ir.ToggleAdded, nil
}

// read fetches and decodes the persisted table. ok is false if nothing is
// stored; the returned table is then all-absent.
func (s *Store) read(ctx context.Context) (ir.SlotTable, bool, error) {
	data, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return ir.SlotTable{}, false, persistError("read table", -1, err)
	}
	if !ok {
		return ir.NewSlotTable(), false, nil
	}
	table, err := ir.UnmarshalTable(data)
	if err != nil {
		return ir.SlotTable{}, false, corruptError(err)
	}
	return table, true, nil
}

// write persists the full table in a single Set.
func (s *Store) write(ctx context.Context, op string, index int, table ir.SlotTable) error {
	data, err := ir.MarshalTable(table)
	if err != nil {
		return persistError(op, index, err)
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return persistError(op, index, err)
	}
	return nil
}
