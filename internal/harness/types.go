package harness

import (
	"github.com/roach88/slotmarks/internal/engine"
	"github.com/roach88/slotmarks/internal/ir"
)

// TraceEvent is one processed engine event.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	ID      string `json:"id"`
	Event   string `json:"event"`
	Status  string `json:"status"`
	Slot    int    `json:"slot"` // -1 when no slot is involved
	Result  string `json:"result,omitempty"`
	Message string `json:"message,omitempty"`
}

// traceEventFromOutcome converts an engine outcome to a trace entry.
func traceEventFromOutcome(o engine.Outcome) TraceEvent {
	return TraceEvent{
		Seq:     o.Seq,
		ID:      o.EventID,
		Event:   o.Event,
		Status:  string(o.Status),
		Slot:    o.Slot,
		Result:  o.Result,
		Message: o.Message,
	}
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Trace contains every processed event in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	Errors []string `json:"errors,omitempty"`

	// Slots is the persisted slot table after the last step.
	Slots ir.SlotTable `json:"slots"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event to the trace.
func (r *Result) AddTrace(e TraceEvent) {
	r.Trace = append(r.Trace, e)
}
