// Package markers keeps the margin markers of the active view in step with
// the slot table.
//
// The engine owns one marker style per slot, created once in New and reused
// for its whole lifetime. Refresh is a pure function of the persisted table
// and the view: it never mutates slot state, and calling it twice with
// nothing changed in between leaves the rendered markers as they were.
//
// Known limitation: a bookmark's line is a fixed coordinate. Inserting or
// deleting lines above it leaves the marker on whatever text now occupies that
// line; bookmarks are not re-anchored to moved text.
package markers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/slotmarks/internal/host"
	"github.com/roach88/slotmarks/internal/ir"
)

// TableReader loads the current slot table. Satisfied by *slots.Store.
type TableReader interface {
	Load(ctx context.Context) (ir.SlotTable, error)
}

// Engine recomputes the markers shown in a view.
type Engine struct {
	table    TableReader
	renderer host.MarkerRenderer
	styles   [ir.SlotCount]host.MarkerStyle

	mu    sync.Mutex
	shown map[host.View][ir.SlotCount][]int
}

// New creates an engine and its ten marker styles.
func New(table TableReader, renderer host.MarkerRenderer, factory host.StyleFactory) *Engine {
	e := &Engine{
		table:    table,
		renderer: renderer,
		shown:    map[host.View][ir.SlotCount][]int{},
	}
	for i := range e.styles {
		e.styles[i] = factory.CreateMarkerStyle(i)
	}
	slog.Debug("marker styles created", "count", ir.SlotCount)
	return e
}

// Style returns the marker style for slot index.
func (e *Engine) Style(index int) host.MarkerStyle {
	ir.MustIndex(index)
	return e.styles[index]
}

// Refresh shows, for every slot, a marker at the bookmarked line if the slot
// points into view's document and no marker otherwise. A nil view is a no-op.
//
// Every style is rendered on every call with replace-all semantics, so slots
// that were cleared or moved to another document lose their marker here.
func (e *Engine) Refresh(ctx context.Context, view host.View) error {
	if view == nil {
		return nil
	}

	table, err := e.table.Load(ctx)
	if err != nil {
		return fmt.Errorf("refresh markers: %w", err)
	}

	doc := view.Document()
	docID := ir.NormalizeDocumentID(doc.ID())
	lines := Compute(table, docID, doc.LineCount())

	for i, style := range e.styles {
		e.renderer.SetMarkers(view, style, lines[i])
	}

	e.mu.Lock()
	e.shown[view] = lines
	e.mu.Unlock()

	slog.Debug("markers refreshed", "document", docID, "visible", countVisible(lines))
	return nil
}

// Shown returns the lines most recently rendered per slot in view.
// A slot without a marker has a nil entry.
func (e *Engine) Shown(view host.View) [ir.SlotCount][]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shown[view]
}

// Forget drops what the engine remembers about view, e.g. once it is closed.
func (e *Engine) Forget(view host.View) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.shown, view)
}

// Compute returns the marker lines per slot for a document with lineCount
// lines. Slots pointing elsewhere get nil. A line past the end of the
// document is shown on the last line; lineCount <= 0 disables clamping.
func Compute(table ir.SlotTable, docID string, lineCount int) [ir.SlotCount][]int {
	var lines [ir.SlotCount][]int
	for i, b := range table {
		if b == nil || b.DocumentID != docID {
			continue
		}
		line := b.Line
		if lineCount > 0 && line >= lineCount {
			line = lineCount - 1
		}
		lines[i] = []int{line}
	}
	return lines
}

func countVisible(lines [ir.SlotCount][]int) int {
	n := 0
	for _, l := range lines {
		if len(l) > 0 {
			n++
		}
	}
	return n
}
