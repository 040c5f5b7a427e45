package engine

import (
	"sync"
)

// EventType distinguishes between event kinds.
type EventType int

const (
	// EventTypeCommand is a user command such as "numberedBookmarks.toggle3".
	EventTypeCommand EventType = iota + 1
	// EventTypeViewChanged reports that the active view changed.
	EventTypeViewChanged
	// EventTypeContentChanged reports an edit to a document.
	EventTypeContentChanged
)

// String returns the name used in logs and traces.
func (t EventType) String() string {
	switch t {
	case EventTypeCommand:
		return "command"
	case EventTypeViewChanged:
		return "view-changed"
	case EventTypeContentChanged:
		return "content-changed"
	default:
		return "unknown"
	}
}

// Event is one unit of work for the engine.
type Event struct {
	Type EventType

	// Command is the command ID, for EventTypeCommand.
	Command string

	// DocumentID is the edited document, for EventTypeContentChanged.
	DocumentID string

	// ID and Seq are stamped by Engine.Enqueue when empty.
	ID  string
	Seq int64
}

// eventQueue is a thread-safe FIFO queue for events.
//
// The queue is unbounded: a list selection enqueues a follow-up goto while an
// event is being processed, and that must never block the loop.
//
// The queue uses a channel for signaling to enable context-aware waiting in
// the Run loop.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{} // Signals event availability (buffered, size 1)
}

// newEventQueue creates an empty event queue.
func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)

	// Non-blocking: buffer of 1 coalesces multiple signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (Event{}, false) if queue is empty.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}

	e := q.events[0]
	q.events[0] = Event{}

	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Wait returns a channel that signals when events may be available.
// Use with select for context-aware waiting:
//
//	select {
//	case <-ctx.Done():
//	    return ctx.Err()
//	case <-q.Wait():
//	    // Try TryDequeue
//	}
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Closed reports whether Close has been called.
func (q *eventQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close signals that no more events will be enqueued.
// Wakes any blocked waiters by closing the signal channel.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
