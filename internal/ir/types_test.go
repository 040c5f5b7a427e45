package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotTable_NewIsEmpty(t *testing.T) {
	table := NewSlotTable()
	assert.Equal(t, SlotCount, len(table))
	assert.Equal(t, 0, table.Occupied())
	for i := 0; i < SlotCount; i++ {
		assert.Nil(t, table.Get(i), "slot %d should be absent", i)
	}
}

func TestSlotTable_WithDoesNotMutateReceiver(t *testing.T) {
	base := NewSlotTable()
	updated := base.With(3, Bookmark{DocumentID: "file:///a.go", Line: 10, Column: 2})

	assert.Nil(t, base.Get(3))
	require.NotNil(t, updated.Get(3))
	assert.Equal(t, Bookmark{DocumentID: "file:///a.go", Line: 10, Column: 2}, *updated.Get(3))

	cleared := updated.Without(3)
	assert.Nil(t, cleared.Get(3))
	assert.NotNil(t, updated.Get(3))
}

func TestSlotTable_GetReturnsCopy(t *testing.T) {
	table := NewSlotTable().With(0, Bookmark{DocumentID: "file:///a.go", Line: 1})
	got := table.Get(0)
	got.Line = 99
	assert.Equal(t, 1, table.Get(0).Line)
}

func TestSlotTable_Equal(t *testing.T) {
	a := NewSlotTable().With(1, Bookmark{DocumentID: "x", Line: 1, Column: 1})
	b := NewSlotTable().With(1, Bookmark{DocumentID: "x", Line: 1, Column: 1})
	c := NewSlotTable().With(1, Bookmark{DocumentID: "x", Line: 1, Column: 2})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(NewSlotTable()))
	assert.True(t, NewSlotTable().Equal(NewSlotTable()))
}

func TestBookmark_SameLocationIgnoresColumn(t *testing.T) {
	a := Bookmark{DocumentID: "file:///a.go", Line: 4, Column: 0}
	assert.True(t, a.SameLocation(Bookmark{DocumentID: "file:///a.go", Line: 4, Column: 17}))
	assert.False(t, a.SameLocation(Bookmark{DocumentID: "file:///a.go", Line: 5}))
	assert.False(t, a.SameLocation(Bookmark{DocumentID: "file:///b.go", Line: 4}))
}

func TestBookmark_String(t *testing.T) {
	b := Bookmark{DocumentID: "file:///src/main.go", Line: 9, Column: 1}
	assert.Equal(t, "/src/main.go:10:2", b.String())
}

func TestToggleResult_String(t *testing.T) {
	assert.Equal(t, "Added", ToggleAdded.String())
	assert.Equal(t, "Removed", ToggleRemoved.String())
	assert.Equal(t, "ToggleResult(0)", ToggleResult(0).String())
}

func TestMustIndex(t *testing.T) {
	for i := 0; i < SlotCount; i++ {
		assert.NotPanics(t, func() { MustIndex(i) })
	}
	assert.Panics(t, func() { MustIndex(-1) })
	assert.Panics(t, func() { MustIndex(SlotCount) })
	assert.Panics(t, func() { NewSlotTable().Get(10) })
}
