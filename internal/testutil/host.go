package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/slotmarks/internal/host"
)

// Notification is one message recorded by FakeHost.
type Notification struct {
	Severity host.Severity
	Message  string
}

// PickRequest records one call to FakeHost.Pick.
type PickRequest struct {
	Placeholder string
	Items       []host.PickItem
}

// FakeDocument is an in-memory document with a fixed line count.
type FakeDocument struct {
	id    string
	lines int
}

// ID implements host.Document.
func (d *FakeDocument) ID() string { return d.id }

// LineCount implements host.Document.
func (d *FakeDocument) LineCount() int { return d.lines }

// FakeView is an in-memory view of one FakeDocument.
type FakeView struct {
	host     *FakeHost
	doc      *FakeDocument
	cursor   host.Position
	revealed *host.Position
}

// Document implements host.View.
func (v *FakeView) Document() host.Document { return v.doc }

// Cursor implements host.View.
func (v *FakeView) Cursor() host.Position {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	return v.cursor
}

// SetCursor implements host.View.
func (v *FakeView) SetCursor(pos host.Position) {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	v.cursor = pos
}

// Reveal implements host.View.
func (v *FakeView) Reveal(pos host.Position) {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	p := pos
	v.revealed = &p
}

// Revealed returns the last revealed position, or nil.
func (v *FakeView) Revealed() *host.Position {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()
	return v.revealed
}

// FakeStyle is the marker style FakeHost hands out: one per slot index.
type FakeStyle struct {
	Index int
}

// Key implements host.MarkerStyle.
func (s FakeStyle) Key() string { return fmt.Sprintf("slot-%d", s.Index) }

// FakeHost implements host.Host entirely in memory and records every
// interaction for assertions.
//
// Documents must be registered with AddDocument before they can be opened.
// ShowDocument makes the shown view active, as editors do.
//
// Thread-safety: all methods are safe for concurrent use.
type FakeHost struct {
	mu sync.Mutex

	docs    map[string]*FakeDocument
	views   map[string]*FakeView
	active  *FakeView
	openErr map[string]error

	markers       map[*FakeView]map[string][]int
	renderCalls   int
	stylesCreated int

	notifications []Notification
	opened        []string

	picks        []int
	pickRequests []PickRequest
}

var _ host.Host = (*FakeHost)(nil)

// NewFakeHost creates an empty host with no active view.
func NewFakeHost() *FakeHost {
	return &FakeHost{
		docs:    map[string]*FakeDocument{},
		views:   map[string]*FakeView{},
		openErr: map[string]error{},
		markers: map[*FakeView]map[string][]int{},
	}
}

// AddDocument registers an openable document with the given line count.
func (h *FakeHost) AddDocument(id string, lines int) *FakeDocument {
	h.mu.Lock()
	defer h.mu.Unlock()
	doc := &FakeDocument{id: id, lines: lines}
	h.docs[id] = doc
	delete(h.openErr, id)
	return doc
}

// SetLineCount changes a document's length, simulating an edit.
func (h *FakeHost) SetLineCount(id string, lines int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if doc, ok := h.docs[id]; ok {
		doc.lines = lines
	}
}

// RemoveDocument makes id unopenable; OpenDocument fails with err.
func (h *FakeHost) RemoveDocument(id string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.docs, id)
	h.openErr[id] = err
}

// Activate makes the view of id the active view, creating it if needed,
// with the cursor at pos. The document is registered if unknown.
func (h *FakeHost) Activate(id string, pos host.Position) *FakeView {
	h.mu.Lock()
	defer h.mu.Unlock()
	doc, ok := h.docs[id]
	if !ok {
		doc = &FakeDocument{id: id, lines: pos.Line + 1}
		h.docs[id] = doc
	}
	v := h.viewLocked(doc)
	v.cursor = pos
	h.active = v
	return v
}

// Deactivate leaves the host with no active view.
func (h *FakeHost) Deactivate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = nil
}

// ActiveView implements host.ActiveViewProvider.
func (h *FakeHost) ActiveView() host.View {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active == nil {
		return nil
	}
	return h.active
}

// ActiveFakeView returns the active view as *FakeView, or nil.
func (h *FakeHost) ActiveFakeView() *FakeView {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// OpenDocument implements host.DocumentOpener.
func (h *FakeHost) OpenDocument(_ context.Context, id string) (host.Document, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.opened = append(h.opened, id)
	if err, ok := h.openErr[id]; ok {
		return nil, err
	}
	doc, ok := h.docs[id]
	if !ok {
		return nil, fmt.Errorf("cannot open document %q: not found", id)
	}
	return doc, nil
}

// ShowDocument implements host.ViewPresenter.
func (h *FakeHost) ShowDocument(_ context.Context, doc host.Document) (host.View, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fd, ok := h.docs[doc.ID()]
	if !ok {
		return nil, fmt.Errorf("cannot show document %q: not open", doc.ID())
	}
	v := h.viewLocked(fd)
	h.active = v
	return v, nil
}

func (h *FakeHost) viewLocked(doc *FakeDocument) *FakeView {
	v, ok := h.views[doc.id]
	if !ok {
		v = &FakeView{host: h, doc: doc}
		h.views[doc.id] = v
	}
	return v
}

// Opened returns every document ID passed to OpenDocument, in order.
func (h *FakeHost) Opened() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.opened...)
}

// CreateMarkerStyle implements host.StyleFactory.
func (h *FakeHost) CreateMarkerStyle(index int) host.MarkerStyle {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stylesCreated++
	return FakeStyle{Index: index}
}

// StylesCreated returns how many marker styles were created.
func (h *FakeHost) StylesCreated() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stylesCreated
}

// SetMarkers implements host.MarkerRenderer with replace-all semantics.
func (h *FakeHost) SetMarkers(view host.View, style host.MarkerStyle, lines []int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.renderCalls++
	v, ok := view.(*FakeView)
	if !ok {
		return
	}
	byStyle, ok := h.markers[v]
	if !ok {
		byStyle = map[string][]int{}
		h.markers[v] = byStyle
	}
	if len(lines) == 0 {
		delete(byStyle, style.Key())
		return
	}
	byStyle[style.Key()] = append([]int(nil), lines...)
}

// RenderCalls returns the number of SetMarkers calls.
func (h *FakeHost) RenderCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.renderCalls
}

// Markers returns the lines shown per style key in the view of id.
// Styles showing nothing are omitted.
func (h *FakeHost) Markers(id string) map[string][]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := map[string][]int{}
	v, ok := h.views[id]
	if !ok {
		return out
	}
	for key, lines := range h.markers[v] {
		out[key] = append([]int(nil), lines...)
	}
	return out
}

// MarkerKeys returns the style keys shown in the view of id, sorted.
func (h *FakeHost) MarkerKeys(id string) []string {
	markers := h.Markers(id)
	keys := make([]string, 0, len(markers))
	for k := range markers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Notify implements host.Notifier.
func (h *FakeHost) Notify(severity host.Severity, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notifications = append(h.notifications, Notification{Severity: severity, Message: message})
}

// Notifications returns every recorded notification, in order.
func (h *FakeHost) Notifications() []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Notification(nil), h.notifications...)
}

// LastNotification returns the most recent notification, or the zero value.
func (h *FakeHost) LastNotification() Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.notifications) == 0 {
		return Notification{}
	}
	return h.notifications[len(h.notifications)-1]
}

// QueuePick scripts the answer to the next Pick call: an item index, or a
// negative value to dismiss the picker.
func (h *FakeHost) QueuePick(choice int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.picks = append(h.picks, choice)
}

// Pick implements host.ChoicePicker. With nothing queued the picker is dismissed.
func (h *FakeHost) Pick(_ context.Context, placeholder string, items []host.PickItem) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pickRequests = append(h.pickRequests, PickRequest{
		Placeholder: placeholder,
		Items:       append([]host.PickItem(nil), items...),
	})
	if len(h.picks) == 0 {
		return -1, host.ErrNoSelection
	}
	choice := h.picks[0]
	h.picks = h.picks[1:]
	if choice < 0 || choice >= len(items) {
		return -1, host.ErrNoSelection
	}
	return choice, nil
}

// PickRequests returns every recorded Pick call.
func (h *FakeHost) PickRequests() []PickRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]PickRequest(nil), h.pickRequests...)
}
