package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slotmarks/internal/host"
	"github.com/roach88/slotmarks/internal/ir"
)

func TestCountLines(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"empty", "", 1},
		{"no trailing newline", "a\nb", 2},
		{"trailing newline", "a\nb\n", 2},
		{"blank lines", "\n\n\n", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			n, err := countLines(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}

	_, err := countLines(dir)
	assert.Error(t, err)
}

func TestFSHostFocus(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "a.go", 10)
	h := newFSHost()
	ctx := context.Background()

	assert.Nil(t, h.ActiveView())
	assert.Equal(t, "", h.location())

	require.NoError(t, h.focus(ctx, doc, host.Position{Line: 9, Column: 4}))
	view := h.ActiveView()
	require.NotNil(t, view)
	assert.Equal(t, ir.DocumentIDFromPath(doc), view.Document().ID())
	assert.Equal(t, 10, view.Document().LineCount())
	assert.Equal(t, doc+":10:5", h.location())

	assert.Error(t, h.focus(ctx, doc, host.Position{Line: 10}))
	assert.Error(t, h.focus(ctx, filepath.Join(dir, "missing.go"), host.Position{}))
}

func TestFSHostOpenDocument(t *testing.T) {
	h := newFSHost()
	ctx := context.Background()

	_, err := h.OpenDocument(ctx, "untitled:Untitled-1")
	assert.Error(t, err)

	doc := writeDoc(t, t.TempDir(), "a.go", 3)
	d, err := h.OpenDocument(ctx, ir.DocumentIDFromPath(doc))
	require.NoError(t, err)
	assert.Equal(t, 3, d.LineCount())

	view, err := h.ShowDocument(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, view, h.ActiveView())
}

func TestFSHostPickIsOneShot(t *testing.T) {
	h := newFSHost()
	h.choice = 3
	items := make([]host.PickItem, ir.SlotCount)

	choice, err := h.Pick(context.Background(), "title", items)
	require.NoError(t, err)
	assert.Equal(t, 3, choice)
	assert.Len(t, h.pickItems, ir.SlotCount)

	_, err = h.Pick(context.Background(), "title", items)
	assert.ErrorIs(t, err, host.ErrNoSelection)
}

func TestFSHostMarkers(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "a.go", 10)
	h := newFSHost()
	require.NoError(t, h.focus(context.Background(), doc, host.Position{}))
	view := h.ActiveView()

	h.SetMarkers(view, h.CreateMarkerStyle(2), []int{4})
	h.SetMarkers(view, h.CreateMarkerStyle(5), []int{0})
	h.SetMarkers(view, h.CreateMarkerStyle(5), nil)

	assert.Equal(t, map[int][]int{2: {4}}, h.markersFor(view.Document().ID()))
	assert.Equal(t, "slot-2", h.CreateMarkerStyle(2).Key())
}
