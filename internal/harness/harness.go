package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/slotmarks/internal/engine"
	"github.com/roach88/slotmarks/internal/host"
	"github.com/roach88/slotmarks/internal/slots"
	"github.com/roach88/slotmarks/internal/store"
	"github.com/roach88/slotmarks/internal/testutil"
)

// DefaultRemoveError is the open failure of a removed document.
const DefaultRemoveError = "file not found"

// Harness plays one scenario against a real engine and a fake host.
type Harness struct {
	kv     store.KV
	key    string
	host   *testutil.FakeHost
	engine *engine.Engine
	clock  *testutil.DeterministicClock
	ids    *testutil.SequentialIDGenerator
	result *Result
	logger *slog.Logger
}

// Option configures a scenario run.
type Option func(*Harness)

// WithKV persists the slot table to kv instead of a fresh store.MemoryKV.
func WithKV(kv store.KV) Option {
	return func(h *Harness) {
		h.kv = kv
	}
}

// WithStorageKey overrides the storage key of the slot table.
func WithStorageKey(key string) Option {
	return func(h *Harness) {
		h.key = key
	}
}

// WithLogger sets the logger for step progress (default discards).
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// Run executes a scenario and returns the result.
//
// Each run gets a fresh fake host, clock and ID generator. The engine is
// activated before the first step. A failing event does not stop the
// scenario: its outcome is in the trace, like any other. Run returns an
// error only when the scenario itself cannot be played.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		kv:     store.NewMemoryKV(),
		host:   testutil.NewFakeHost(),
		clock:  testutil.NewDeterministicClock(),
		ids:    testutil.NewSequentialIDGenerator("event"),
		result: NewResult(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	ctx := context.Background()

	for _, doc := range scenario.Documents {
		h.host.AddDocument(doc.ID, doc.Lines)
	}

	if err := h.start(ctx); err != nil {
		return nil, err
	}

	for i, step := range scenario.Steps {
		if err := h.play(ctx, step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	h.engine.Stop()

	table, err := h.engine.Slots().Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read final slot table: %w", err)
	}
	h.result.Slots = table

	actx := &AssertionContext{
		Ctx:  ctx,
		Host: h.host,
		KV:   h.kv,
		Key:  h.engine.Slots().Key(),
	}
	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions, actx) {
		h.result.AddError(msg)
	}

	return h.result, nil
}

// start builds and activates an engine over the harness storage.
func (h *Harness) start(ctx context.Context) error {
	var slotOpts []slots.Option
	if h.key != "" {
		slotOpts = append(slotOpts, slots.WithKey(h.key))
	}

	h.engine = engine.New(slots.New(h.kv, slotOpts...), h.host,
		engine.WithSequencer(h.clock),
		engine.WithIDGenerator(h.ids),
		engine.WithObserver(func(o engine.Outcome) {
			h.result.AddTrace(traceEventFromOutcome(o))
		}),
	)
	if err := h.engine.Activate(ctx); err != nil {
		return fmt.Errorf("failed to activate engine: %w", err)
	}
	return nil
}

// play performs one step and processes the events it produced.
func (h *Harness) play(ctx context.Context, step Step) error {
	switch {
	case step.Activate != nil:
		a := step.Activate
		h.host.Activate(a.Doc, host.Position{Line: a.Line, Column: a.Column})
		h.engine.ViewChanged()

	case step.Deactivate:
		h.host.Deactivate()
		h.engine.ViewChanged()

	case step.Cursor != nil:
		view := h.host.ActiveFakeView()
		if view == nil {
			return errors.New("cursor: no active view")
		}
		view.SetCursor(host.Position{Line: step.Cursor.Line, Column: step.Cursor.Column})
		return nil

	case step.Command != "":
		h.engine.Dispatch(step.Command)

	case step.Pick != nil:
		h.host.QueuePick(*step.Pick)
		return nil

	case step.Edit != nil:
		h.host.SetLineCount(step.Edit.Doc, step.Edit.Lines)
		h.engine.ContentChanged(step.Edit.Doc)

	case step.Remove != nil:
		msg := step.Remove.Error
		if msg == "" {
			msg = DefaultRemoveError
		}
		h.host.RemoveDocument(step.Remove.Doc, errors.New(msg))
		return nil

	case step.Restart:
		h.engine.Stop()
		h.logger.Info("restarting engine")
		return h.start(ctx)

	default:
		return errors.New("empty step")
	}

	// Event failures are recorded in the trace; they do not stop the scenario.
	if err := h.engine.Drain(ctx); err != nil {
		h.logger.Info("events failed", "error", err)
	}
	return nil
}
