package slots

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slotmarks/internal/ir"
	"github.com/roach88/slotmarks/internal/store"
	"github.com/roach88/slotmarks/internal/testutil"
)

func newTestStore(t *testing.T) (*Store, *store.MemoryKV) {
	t.Helper()
	kv := store.NewMemoryKV()
	return New(kv), kv
}

func TestLoad_InitializesOnce(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	table, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, table.Equal(ir.NewSlotTable()))
	assert.Equal(t, int64(1), kv.Writes(ir.StorageKey))

	raw, ok, err := kv.Get(ctx, ir.StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[null,null,null,null,null,null,null,null,null,null]`, string(raw))

	_, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), kv.Writes(ir.StorageKey), "second load must not write")
}

func TestGetSlot_DoesNotWrite(t *testing.T) {
	s, kv := newTestStore(t)

	got, err := s.GetSlot(context.Background(), 4)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, int64(0), kv.Writes(ir.StorageKey))
}

func TestToggleSlot_EmptySlotAlwaysAdds(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < ir.SlotCount; i++ {
		s, _ := newTestStore(t)
		rec := ir.Bookmark{DocumentID: "file:///a.go", Line: i * 3, Column: i}

		result, err := s.ToggleSlot(ctx, i, rec)
		require.NoError(t, err)
		assert.Equal(t, ir.ToggleAdded, result, "slot %d", i)

		got, err := s.GetSlot(ctx, i)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, rec, *got)
	}
}

func TestToggleSlot_SameLineRemovesAnyColumn(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	result, err := s.ToggleSlot(ctx, 5, ir.Bookmark{DocumentID: "file:///a.go", Line: 4, Column: 0})
	require.NoError(t, err)
	assert.Equal(t, ir.ToggleAdded, result)

	result, err = s.ToggleSlot(ctx, 5, ir.Bookmark{DocumentID: "file:///a.go", Line: 4, Column: 30})
	require.NoError(t, err)
	assert.Equal(t, ir.ToggleRemoved, result)

	got, err := s.GetSlot(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestToggleSlot_DifferentLineOverwrites(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first := ir.Bookmark{DocumentID: "file:///a.go", Line: 4}
	second := ir.Bookmark{DocumentID: "file:///a.go", Line: 8, Column: 2}

	r1, err := s.ToggleSlot(ctx, 1, first)
	require.NoError(t, err)
	r2, err := s.ToggleSlot(ctx, 1, second)
	require.NoError(t, err)

	assert.Equal(t, ir.ToggleAdded, r1)
	assert.Equal(t, ir.ToggleAdded, r2)
	got, err := s.GetSlot(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, second, *got)
}

func TestToggleSlot_DifferentDocumentOverwrites(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.ToggleSlot(ctx, 2, ir.Bookmark{DocumentID: "file:///a.go", Line: 4})
	require.NoError(t, err)
	result, err := s.ToggleSlot(ctx, 2, ir.Bookmark{DocumentID: "file:///b.go", Line: 4})
	require.NoError(t, err)
	assert.Equal(t, ir.ToggleAdded, result)

	got, err := s.GetSlot(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "file:///b.go", got.DocumentID)
}

func TestToggleSlot_OneWritePerCall(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()
	rec := ir.Bookmark{DocumentID: "file:///a.go", Line: 4}

	r1, err := s.ToggleSlot(ctx, 5, rec)
	require.NoError(t, err)
	assert.Equal(t, int64(1), kv.Writes(ir.StorageKey))

	r2, err := s.ToggleSlot(ctx, 5, rec)
	require.NoError(t, err)
	assert.Equal(t, int64(2), kv.Writes(ir.StorageKey))

	assert.Equal(t, ir.ToggleAdded, r1)
	assert.Equal(t, ir.ToggleRemoved, r2)
}

func TestToggleSlot_LeavesOtherSlotsAlone(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetSlot(ctx, 0, ir.Bookmark{DocumentID: "file:///a.go", Line: 1}))
	require.NoError(t, s.SetSlot(ctx, 9, ir.Bookmark{DocumentID: "file:///a.go", Line: 1}))

	_, err := s.ToggleSlot(ctx, 0, ir.Bookmark{DocumentID: "file:///a.go", Line: 1})
	require.NoError(t, err)

	table, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, table.Get(0))
	assert.NotNil(t, table.Get(9))
	assert.Equal(t, 1, table.Occupied())
}

func TestSetSlotAndClearSlot(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()
	rec := ir.Bookmark{DocumentID: "file:///a.go", Line: 7, Column: 3}

	require.NoError(t, s.SetSlot(ctx, 7, rec))
	require.NoError(t, s.SetSlot(ctx, 7, rec), "set is unconditional, not a toggle")
	got, err := s.GetSlot(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, rec, *got)

	require.NoError(t, s.ClearSlot(ctx, 7))
	got, err = s.GetSlot(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, int64(3), kv.Writes(ir.StorageKey))
}

func TestStore_ReadsThroughEveryTime(t *testing.T) {
	kv := store.NewMemoryKV()
	a := New(kv)
	b := New(kv)
	ctx := context.Background()

	require.NoError(t, a.SetSlot(ctx, 3, ir.Bookmark{DocumentID: "file:///a.go", Line: 1}))
	require.NoError(t, b.SetSlot(ctx, 4, ir.Bookmark{DocumentID: "file:///b.go", Line: 2}))

	table, err := a.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, table.Get(3))
	assert.NotNil(t, table.Get(4), "interleaved writers must not lose updates")
}

func TestStore_RoundTripAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slots.db")
	ctx := context.Background()

	db1, err := store.Open(path)
	require.NoError(t, err)
	s1 := New(db1.Workspace("proj"))
	require.NoError(t, s1.SetSlot(ctx, 0, ir.Bookmark{DocumentID: "file:///a.go", Line: 10, Column: 2}))
	require.NoError(t, s1.SetSlot(ctx, 9, ir.Bookmark{DocumentID: "untitled:Untitled-1", Line: 0}))
	before, err := s1.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, db1.Close())

	db2, err := store.Open(path)
	require.NoError(t, err)
	defer db2.Close()
	after, err := New(db2.Workspace("proj")).Load(ctx)
	require.NoError(t, err)

	assert.True(t, before.Equal(after))
}

func TestStore_WithKey(t *testing.T) {
	kv := store.NewMemoryKV()
	s := New(kv, WithKey("custom"))
	ctx := context.Background()

	require.NoError(t, s.SetSlot(ctx, 0, ir.Bookmark{DocumentID: "x", Line: 0}))
	assert.Equal(t, "custom", s.Key())
	assert.Equal(t, int64(1), kv.Writes("custom"))
	assert.Equal(t, int64(0), kv.Writes(ir.StorageKey))
}

func TestStore_PersistFailure(t *testing.T) {
	kv := testutil.NewFlakyKV(nil)
	s := New(kv)
	ctx := context.Background()
	rec := ir.Bookmark{DocumentID: "file:///a.go", Line: 1}

	require.NoError(t, s.SetSlot(ctx, 0, rec))

	boom := errors.New("disk full")
	kv.FailSets(boom)

	_, err := s.ToggleSlot(ctx, 0, rec)
	require.Error(t, err)
	assert.True(t, IsPersistError(err))
	assert.ErrorIs(t, err, boom)

	err = s.ClearSlot(ctx, 0)
	assert.True(t, IsPersistError(err))

	kv.FailSets(nil)
	got, err := s.GetSlot(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, rec, *got, "failed mutation must leave the table untouched")
}

func TestStore_ReadFailure(t *testing.T) {
	kv := testutil.NewFlakyKV(nil)
	s := New(kv)
	kv.FailGets(errors.New("io error"))

	_, err := s.Load(context.Background())
	assert.True(t, IsPersistError(err))
	_, err = s.GetSlot(context.Background(), 0)
	assert.True(t, IsPersistError(err))
	assert.Equal(t, 0, kv.Sets())
}

func TestStore_CorruptTable(t *testing.T) {
	kv := store.NewMemoryKV()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, ir.StorageKey, []byte(`[null]`)))

	s := New(kv)
	_, err := s.Load(ctx)
	require.Error(t, err)
	assert.True(t, IsCorruptError(err))
	assert.ErrorIs(t, err, ir.ErrInvalidTable)

	_, err = s.ToggleSlot(ctx, 0, ir.Bookmark{DocumentID: "x"})
	assert.True(t, IsCorruptError(err))
	assert.Equal(t, int64(1), kv.Writes(ir.StorageKey), "corrupt table must not be overwritten")
}

func TestStore_IndexOutOfRangePanics(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	assert.Panics(t, func() { _, _ = s.GetSlot(ctx, 10) })
	assert.Panics(t, func() { _ = s.SetSlot(ctx, -1, ir.Bookmark{}) })
	assert.Panics(t, func() { _ = s.ClearSlot(ctx, 11) })
	assert.Panics(t, func() { _, _ = s.ToggleSlot(ctx, 99, ir.Bookmark{}) })
}

func TestStoreError_Message(t *testing.T) {
	err := persistError("toggle slot", 3, errors.New("disk full"))
	assert.Equal(t, "PERSIST_FAILED: toggle slot failed (slot=3): disk full", err.Error())

	err = corruptError(errors.New("bad"))
	assert.Equal(t, "CORRUPT_TABLE: persisted slot table is unreadable: bad", err.Error())
}
