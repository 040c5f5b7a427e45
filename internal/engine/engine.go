package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/slotmarks/internal/host"
	"github.com/roach88/slotmarks/internal/ir"
	"github.com/roach88/slotmarks/internal/markers"
	"github.com/roach88/slotmarks/internal/slots"
)

// ListPlaceholder is the prompt shown by the list picker.
const ListPlaceholder = "Numbered bookmarks"

// EmptySlotPlaceholder describes an absent slot in the list picker.
const EmptySlotPlaceholder = "—"

// Status summarizes how an event ended.
type Status string

const (
	StatusOK        Status = "ok"
	StatusWarning   Status = "warning"
	StatusError     Status = "error"
	StatusDismissed Status = "dismissed"
	StatusIgnored   Status = "ignored"
)

// Outcome describes one processed event. It is handed to observers and
// returned by Process.
type Outcome struct {
	EventID string
	Seq     int64
	// Event is the command ID, or the event type name for notifications.
	Event  string
	Status Status
	// Slot is the slot acted on, or -1.
	Slot int
	// Result is "Added"/"Removed" for toggles, or empty.
	Result string
	// Message is the user notification emitted, if any.
	Message string
}

// Observer is called after every processed event, from the processing goroutine.
type Observer func(Outcome)

// Engine is the single-writer command dispatcher.
//
// Thread-safety model:
//   - Enqueue(), Dispatch(), ViewChanged(), ContentChanged(): safe from any goroutine
//   - Run(), Drain(): must be called from exactly one goroutine at a time
type Engine struct {
	slots   *slots.Store
	markers *markers.Engine
	host    host.Host
	queue   *eventQueue
	clock   Sequencer
	ids     IDGenerator

	observers []Observer
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithSequencer replaces the logical clock used to stamp events.
func WithSequencer(seq Sequencer) Option {
	return func(e *Engine) {
		e.clock = seq
	}
}

// WithIDGenerator replaces the event ID generator (default UUIDv7Generator).
func WithIDGenerator(ids IDGenerator) Option {
	return func(e *Engine) {
		e.ids = ids
	}
}

// WithObserver registers fn to receive every Outcome.
func WithObserver(fn Observer) Option {
	return func(e *Engine) {
		e.observers = append(e.observers, fn)
	}
}

// New creates an Engine over the given Slot Store and host. The ten marker
// styles are created here, once, through the host's StyleFactory.
func New(s *slots.Store, h host.Host, opts ...Option) *Engine {
	e := &Engine{
		slots:   s,
		markers: markers.New(s, h, h),
		host:    h,
		queue:   newEventQueue(),
		clock:   NewClock(),
		ids:     UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Markers returns the engine's marker Sync Engine.
func (e *Engine) Markers() *markers.Engine {
	return e.markers
}

// Slots returns the engine's Slot Store.
func (e *Engine) Slots() *slots.Store {
	return e.slots
}

// Activate initializes the persisted table if needed and shows markers for
// the active view. Call once at startup, before processing events.
func (e *Engine) Activate(ctx context.Context) error {
	if _, err := e.slots.Load(ctx); err != nil {
		return fmt.Errorf("activate: %w", err)
	}
	if err := e.markers.Refresh(ctx, e.host.ActiveView()); err != nil {
		return fmt.Errorf("activate: %w", err)
	}
	slog.Info("engine activated", "key", e.slots.Key())
	return nil
}

// Enqueue submits an event for processing, stamping ID and Seq if unset.
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(ev Event) bool {
	if ev.ID == "" {
		ev.ID = e.ids.Generate()
	}
	if ev.Seq == 0 {
		ev.Seq = e.clock.Next()
	}
	return e.queue.Enqueue(ev)
}

// Dispatch enqueues a command by ID.
func (e *Engine) Dispatch(commandID string) bool {
	return e.Enqueue(Event{Type: EventTypeCommand, Command: commandID})
}

// ViewChanged enqueues an active-view-changed notification.
func (e *Engine) ViewChanged() bool {
	return e.Enqueue(Event{Type: EventTypeViewChanged})
}

// ContentChanged enqueues a content-changed notification for documentID.
func (e *Engine) ContentChanged(documentID string) bool {
	return e.Enqueue(Event{Type: EventTypeContentChanged, DocumentID: documentID})
}

// QueueLen returns the number of events waiting.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// Run starts the single-writer event loop.
// Blocks until context is cancelled or Stop() is called.
//
// ERROR HANDLING: a failed event has already been reported to the user by
// its handler; Run logs it with full event context and continues.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting")

	for {
		event, ok := e.queue.TryDequeue()
		if ok {
			if _, err := e.Process(ctx, event); err != nil {
				logEventError(event, err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// A closed queue keeps signalling; stop once it is drained.
			if e.queue.Len() == 0 && e.queue.Closed() {
				slog.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Drain processes queued events until the queue is empty, including events
// enqueued while draining. It returns every event error, joined.
func (e *Engine) Drain(ctx context.Context) error {
	var errs []error
	for {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		event, ok := e.queue.TryDequeue()
		if !ok {
			return errors.Join(errs...)
		}
		if _, err := e.Process(ctx, event); err != nil {
			logEventError(event, err)
			errs = append(errs, err)
		}
	}
}

// Stop gracefully shuts down the engine.
// Closes the event queue, which will cause Run() to return.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Process runs one event to completion and notifies observers.
// Must only be called from the processing goroutine.
func (e *Engine) Process(ctx context.Context, event Event) (Outcome, error) {
	slog.Debug("processing event",
		"id", event.ID,
		"seq", event.Seq,
		"type", event.Type,
		"command", event.Command,
	)

	out, err := e.route(ctx, event)
	out.EventID = event.ID
	out.Seq = event.Seq
	if out.Event == "" {
		out.Event = event.Type.String()
	}

	for _, fn := range e.observers {
		fn(out)
	}
	return out, err
}

// route dispatches an event to its handler.
func (e *Engine) route(ctx context.Context, event Event) (Outcome, error) {
	switch event.Type {
	case EventTypeCommand:
		cmd, err := ParseCommand(event.Command)
		if err != nil {
			msg := fmt.Sprintf("Unknown command %s.", event.Command)
			e.host.Notify(host.SeverityError, msg)
			return Outcome{Event: event.Command, Status: StatusError, Slot: -1, Message: msg}, err
		}
		return e.runCommand(ctx, cmd)

	case EventTypeViewChanged:
		return e.onViewChanged(ctx)

	case EventTypeContentChanged:
		return e.onContentChanged(ctx, event.DocumentID)

	default:
		return Outcome{Status: StatusError, Slot: -1}, fmt.Errorf("unknown event type: %d", event.Type)
	}
}

func (e *Engine) runCommand(ctx context.Context, cmd Command) (Outcome, error) {
	switch cmd.Kind {
	case CommandToggle:
		return e.toggle(ctx, cmd)
	case CommandGoto:
		return e.gotoSlot(ctx, cmd)
	case CommandClear:
		return e.clear(ctx, cmd)
	case CommandList:
		return e.list(ctx, cmd)
	default:
		return Outcome{Event: cmd.ID(), Status: StatusError, Slot: cmd.Slot}, NewUnknownCommandError(cmd.ID())
	}
}

// toggle adds or removes the bookmark at the active view's cursor.
func (e *Engine) toggle(ctx context.Context, cmd Command) (Outcome, error) {
	out := Outcome{Event: cmd.ID(), Slot: cmd.Slot}

	view := e.host.ActiveView()
	if view == nil {
		return e.warn(out, "No active editor to add a bookmark."), nil
	}

	pos := view.Cursor()
	candidate := ir.NewBookmark(view.Document().ID(), pos.Line, pos.Column)

	result, err := e.slots.ToggleSlot(ctx, cmd.Slot, candidate)
	if err != nil {
		return e.fail(out, ErrCodePersistFailed,
			fmt.Sprintf("Failed to save bookmark %d: %v", cmd.Slot, err), err)
	}
	out.Result = result.String()

	if err := e.refreshActive(ctx); err != nil {
		return e.fail(out, ErrCodeRefreshFailed,
			fmt.Sprintf("Failed to refresh bookmark markers: %v", err), err)
	}

	if result == ir.ToggleAdded {
		return e.info(out, fmt.Sprintf("Added bookmark %d → %s", cmd.Slot, candidate)), nil
	}
	return e.info(out, fmt.Sprintf("Removed bookmark %d", cmd.Slot)), nil
}

// gotoSlot opens the slot's document and moves the cursor to the bookmark.
// A failure to open leaves the slot untouched.
func (e *Engine) gotoSlot(ctx context.Context, cmd Command) (Outcome, error) {
	out := Outcome{Event: cmd.ID(), Slot: cmd.Slot}

	bm, err := e.slots.GetSlot(ctx, cmd.Slot)
	if err != nil {
		return e.fail(out, ErrCodePersistFailed,
			fmt.Sprintf("Failed to open bookmark %d: %v", cmd.Slot, err), err)
	}
	if bm == nil {
		return e.warn(out, fmt.Sprintf("No bookmark set for %d.", cmd.Slot)), nil
	}

	doc, err := e.host.OpenDocument(ctx, bm.DocumentID)
	if err != nil {
		return e.fail(out, ErrCodeOpenFailed,
			fmt.Sprintf("Failed to open bookmark %d: %v", cmd.Slot, err), err)
	}
	view, err := e.host.ShowDocument(ctx, doc)
	if err != nil {
		return e.fail(out, ErrCodeOpenFailed,
			fmt.Sprintf("Failed to open bookmark %d: %v", cmd.Slot, err), err)
	}

	pos := host.Position{Line: bm.Line, Column: max(0, bm.Column)}
	view.SetCursor(pos)
	view.Reveal(pos)

	// Showing a document changes the active view; refresh without waiting for
	// the host's notification.
	if err := e.refreshActive(ctx); err != nil {
		return e.fail(out, ErrCodeRefreshFailed,
			fmt.Sprintf("Failed to refresh bookmark markers: %v", err), err)
	}

	slog.Info("jumped to bookmark", "slot", cmd.Slot, "document", bm.DocumentID, "line", bm.Line, "column", pos.Column)
	out.Status = StatusOK
	return out, nil
}

// clear empties a slot.
func (e *Engine) clear(ctx context.Context, cmd Command) (Outcome, error) {
	out := Outcome{Event: cmd.ID(), Slot: cmd.Slot}

	if err := e.slots.ClearSlot(ctx, cmd.Slot); err != nil {
		return e.fail(out, ErrCodePersistFailed,
			fmt.Sprintf("Failed to clear bookmark %d: %v", cmd.Slot, err), err)
	}
	if err := e.refreshActive(ctx); err != nil {
		return e.fail(out, ErrCodeRefreshFailed,
			fmt.Sprintf("Failed to refresh bookmark markers: %v", err), err)
	}
	return e.info(out, fmt.Sprintf("Cleared bookmark %d", cmd.Slot)), nil
}

// list offers every slot in a picker and enqueues goto for the selection.
func (e *Engine) list(ctx context.Context, cmd Command) (Outcome, error) {
	out := Outcome{Event: cmd.ID(), Slot: -1}

	table, err := e.slots.Load(ctx)
	if err != nil {
		return e.fail(out, ErrCodePersistFailed,
			fmt.Sprintf("Failed to list bookmarks: %v", err), err)
	}

	choice, err := e.host.Pick(ctx, ListPlaceholder, ListItems(table))
	if errors.Is(err, host.ErrNoSelection) {
		out.Status = StatusDismissed
		return out, nil
	}
	if err != nil {
		return e.fail(out, ErrCodePickFailed,
			fmt.Sprintf("Failed to list bookmarks: %v", err), err)
	}
	if !ir.ValidIndex(choice) {
		out.Status = StatusDismissed
		return out, nil
	}

	out.Slot = choice
	out.Status = StatusOK
	e.Dispatch(GotoCommand(choice).ID())
	return out, nil
}

// ListItems builds the ten picker entries for table.
func ListItems(table ir.SlotTable) []host.PickItem {
	items := make([]host.PickItem, ir.SlotCount)
	for i, b := range table {
		desc := EmptySlotPlaceholder
		if b != nil {
			desc = fmt.Sprintf("%s:%d", ir.DisplayPath(b.DocumentID), b.Line+1)
		}
		items[i] = host.PickItem{Label: fmt.Sprintf("%d", i), Description: desc}
	}
	return items
}

func (e *Engine) onViewChanged(ctx context.Context) (Outcome, error) {
	out := Outcome{Slot: -1}
	if e.host.ActiveView() == nil {
		out.Status = StatusIgnored
		return out, nil
	}
	if err := e.refreshActive(ctx); err != nil {
		return refreshFailed(out, EventTypeViewChanged, err)
	}
	out.Status = StatusOK
	return out, nil
}

// onContentChanged refreshes markers when the active document was edited.
// Edits to other documents have no visible markers to update.
func (e *Engine) onContentChanged(ctx context.Context, documentID string) (Outcome, error) {
	out := Outcome{Slot: -1}
	view := e.host.ActiveView()
	if view == nil || ir.NormalizeDocumentID(view.Document().ID()) != ir.NormalizeDocumentID(documentID) {
		out.Status = StatusIgnored
		return out, nil
	}
	if err := e.markers.Refresh(ctx, view); err != nil {
		return refreshFailed(out, EventTypeContentChanged, err)
	}
	out.Status = StatusOK
	return out, nil
}

// refreshActive refreshes whatever view is active now. The active view is
// looked up again rather than reused from before a suspension point.
func (e *Engine) refreshActive(ctx context.Context) error {
	return e.markers.Refresh(ctx, e.host.ActiveView())
}

// refreshFailed reports a failed notification refresh. Notifications have no
// user-facing command, so nothing is shown; the loop logs the error.
func refreshFailed(out Outcome, t EventType, err error) (Outcome, error) {
	out.Status = StatusError
	return out, newCommandError(ErrCodeRefreshFailed, t.String(), -1, "marker refresh failed", err)
}

func (e *Engine) info(out Outcome, msg string) Outcome {
	e.host.Notify(host.SeverityInfo, msg)
	out.Status = StatusOK
	out.Message = msg
	return out
}

func (e *Engine) warn(out Outcome, msg string) Outcome {
	e.host.Notify(host.SeverityWarning, msg)
	out.Status = StatusWarning
	out.Message = msg
	return out
}

func (e *Engine) fail(out Outcome, code CommandErrorCode, msg string, err error) (Outcome, error) {
	e.host.Notify(host.SeverityError, msg)
	out.Status = StatusError
	out.Message = msg
	return out, newCommandError(code, out.Event, out.Slot, msg, err)
}

// logEventError logs a failed event with full context for investigation.
func logEventError(event Event, err error) {
	slog.Error("event processing failed",
		"id", event.ID,
		"seq", event.Seq,
		"type", event.Type,
		"command", event.Command,
		"document", event.DocumentID,
		"error", err,
	)
	if IsPersistError(err) && slots.IsCorruptError(err) {
		slog.Error("slot table is corrupt; fix or remove the stored value to continue", "error", err)
	}
}
