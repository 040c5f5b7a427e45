package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/roach88/slotmarks/internal/host"
	"github.com/roach88/slotmarks/internal/ir"
)

// fsHost is the editor stand-in for one CLI invocation. Documents are local
// files; the active view exists only when a command focuses a document.
// The picker answers with a choice fixed up front.
type fsHost struct {
	mu sync.Mutex

	active *fsView
	choice int // -1 dismisses the picker

	markers       map[string]map[int][]int
	notifications []notification
	pickItems     []host.PickItem
}

type notification struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

var _ host.Host = (*fsHost)(nil)

func newFSHost() *fsHost {
	return &fsHost{
		choice:  -1,
		markers: map[string]map[int][]int{},
	}
}

type fsDocument struct {
	id    string
	lines int
}

func (d *fsDocument) ID() string     { return d.id }
func (d *fsDocument) LineCount() int { return d.lines }

type fsView struct {
	doc      *fsDocument
	cursor   host.Position
	revealed *host.Position
}

func (v *fsView) Document() host.Document     { return v.doc }
func (v *fsView) Cursor() host.Position       { return v.cursor }
func (v *fsView) SetCursor(pos host.Position) { v.cursor = pos }
func (v *fsView) Reveal(pos host.Position)    { v.revealed = &pos }

type textStyle struct {
	index int
}

func (s textStyle) Key() string { return fmt.Sprintf("slot-%d", s.index) }

// focus makes a view of id active with the cursor at pos.
func (h *fsHost) focus(ctx context.Context, id string, pos host.Position) error {
	doc, err := loadDocument(id)
	if err != nil {
		return err
	}
	if doc.lines > 0 && pos.Line >= doc.lines {
		return fmt.Errorf("line %d is past the end of %s (%d lines)", pos.Line+1, ir.DisplayPath(doc.id), doc.lines)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = &fsView{doc: doc, cursor: pos}
	return nil
}

// loadDocument resolves id to a document. Local files must exist; documents
// with another scheme are accepted with an unknown length.
func loadDocument(id string) (*fsDocument, error) {
	id = ir.DocumentIDFromPath(id)
	path, ok := ir.FilePath(id)
	if !ok {
		return &fsDocument{id: id}, nil
	}
	lines, err := countLines(path)
	if err != nil {
		return nil, err
	}
	return &fsDocument{id: id, lines: lines}, nil
}

// countLines returns the number of lines an editor would show for path.
func countLines(path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	n := bytes.Count(data, []byte{'\n'}) + 1
	if len(data) > 0 && data[len(data)-1] == '\n' {
		n--
	}
	return max(n, 1), nil
}

// ActiveView implements host.ActiveViewProvider.
func (h *fsHost) ActiveView() host.View {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active == nil {
		return nil
	}
	return h.active
}

// OpenDocument implements host.DocumentOpener.
func (h *fsHost) OpenDocument(_ context.Context, id string) (host.Document, error) {
	if _, ok := ir.FilePath(id); !ok {
		return nil, fmt.Errorf("cannot open %s: not a local file", id)
	}
	return loadDocument(id)
}

// ShowDocument implements host.ViewPresenter.
func (h *fsHost) ShowDocument(_ context.Context, doc host.Document) (host.View, error) {
	d, ok := doc.(*fsDocument)
	if !ok {
		d = &fsDocument{id: doc.ID(), lines: doc.LineCount()}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = &fsView{doc: d}
	return h.active, nil
}

// CreateMarkerStyle implements host.StyleFactory.
func (h *fsHost) CreateMarkerStyle(index int) host.MarkerStyle {
	return textStyle{index: index}
}

// SetMarkers implements host.MarkerRenderer.
func (h *fsHost) SetMarkers(view host.View, style host.MarkerStyle, lines []int) {
	s, ok := style.(textStyle)
	if !ok {
		return
	}
	id := view.Document().ID()

	h.mu.Lock()
	defer h.mu.Unlock()
	byStyle, ok := h.markers[id]
	if !ok {
		byStyle = map[int][]int{}
		h.markers[id] = byStyle
	}
	if len(lines) == 0 {
		delete(byStyle, s.index)
		return
	}
	byStyle[s.index] = append([]int(nil), lines...)
}

// Notify implements host.Notifier.
func (h *fsHost) Notify(severity host.Severity, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notifications = append(h.notifications, notification{Severity: severity.String(), Message: message})
}

// Pick implements host.ChoicePicker with the preset choice. The choice is
// used once.
func (h *fsHost) Pick(_ context.Context, _ string, items []host.PickItem) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pickItems = append([]host.PickItem(nil), items...)
	choice := h.choice
	h.choice = -1
	if choice < 0 || choice >= len(items) {
		return -1, host.ErrNoSelection
	}
	return choice, nil
}

// location returns the active view's document and cursor as "path:line:col",
// one-based, or "" without an active view.
func (h *fsHost) location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active == nil {
		return ""
	}
	return ir.Bookmark{
		DocumentID: h.active.doc.id,
		Line:       h.active.cursor.Line,
		Column:     h.active.cursor.Column,
	}.String()
}

// markersFor returns the marker lines per slot shown for id.
func (h *fsHost) markersFor(id string) map[int][]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := map[int][]int{}
	for slot, lines := range h.markers[id] {
		out[slot] = append([]int(nil), lines...)
	}
	return out
}
