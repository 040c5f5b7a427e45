package harness

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/slotmarks/internal/ir"
	"github.com/roach88/slotmarks/internal/store"
	"github.com/roach88/slotmarks/internal/testutil"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s", event.Seq, event.Event, event.Status)
			if event.Message != "" {
				fmt.Fprintf(&buf, " %q", event.Message)
			}
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// AssertionContext provides what state assertions inspect.
type AssertionContext struct {
	Ctx  context.Context
	Host *testutil.FakeHost
	KV   store.KV
	// Key is the storage key of the slot table.
	Key string
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertSlot:
			err = assertSlot(result.Slots, assertion)
		case AssertMarkers, AssertNotification, AssertOpened, AssertWrites:
			if actx == nil || actx.Host == nil {
				err = fmt.Errorf("assertion[%d]: %s requires host context", i, assertion.Type)
				break
			}
			switch assertion.Type {
			case AssertMarkers:
				err = assertMarkers(actx.Host, assertion)
			case AssertNotification:
				err = assertNotification(actx.Host, assertion)
			case AssertOpened:
				err = assertOpened(actx.Host, assertion)
			case AssertWrites:
				err = assertWrites(actx, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

// assertTraceContains checks that some event matches the assertion's event
// and every non-empty field among status, result and message.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, event := range trace {
		if event.Event != a.Event {
			continue
		}
		if a.Status != "" && event.Status != a.Status {
			continue
		}
		if a.Result != "" && event.Result != a.Result {
			continue
		}
		if a.Message != "" && event.Message != a.Message {
			continue
		}
		return nil
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describeEvent(a),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

func describeEvent(a Assertion) string {
	parts := []string{a.Event}
	if a.Status != "" {
		parts = append(parts, "status="+a.Status)
	}
	if a.Result != "" {
		parts = append(parts, "result="+a.Result)
	}
	if a.Message != "" {
		parts = append(parts, fmt.Sprintf("message=%q", a.Message))
	}
	return strings.Join(parts, " ")
}

// assertTraceOrder checks that events appear in the specified order.
// Events don't need to be consecutive (intervening events are allowed).
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, event := range trace {
		if next < len(a.Events) && event.Event == a.Events[next] {
			next++
		}
	}
	if next == len(a.Events) {
		return nil
	}

	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("events in order: %v", a.Events),
		Actual:   fmt.Sprintf("%s not found after %v", a.Events[next], a.Events[:next]),
		Trace:    trace,
	}
}

// assertTraceCount checks that the event appears exactly count times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Event == a.Event {
			count++
		}
	}
	if count == a.Count {
		return nil
	}

	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%s appears %d times", a.Event, a.Count),
		Actual:   fmt.Sprintf("appears %d times", count),
		Trace:    trace,
	}
}

// assertSlot checks the persisted content of one slot.
func assertSlot(table ir.SlotTable, a Assertion) error {
	got := table.Get(*a.Slot)

	if a.Empty {
		if got == nil {
			return nil
		}
		return &AssertionError{
			Type:     AssertSlot,
			Expected: fmt.Sprintf("slot %d empty", *a.Slot),
			Actual:   got.String(),
		}
	}

	want := ir.NewBookmark(a.Bookmark.Doc, a.Bookmark.Line, a.Bookmark.Column)
	if got != nil && *got == want {
		return nil
	}
	actual := "empty"
	if got != nil {
		actual = fmt.Sprintf("%+v", *got)
	}
	return &AssertionError{
		Type:     AssertSlot,
		Expected: fmt.Sprintf("slot %d = %+v", *a.Slot, want),
		Actual:   actual,
	}
}

// assertMarkers checks that the view of doc shows exactly the expected
// markers, one line per slot.
func assertMarkers(h *testutil.FakeHost, a Assertion) error {
	want := map[string][]int{}
	for slot, line := range a.Markers {
		want[testutil.FakeStyle{Index: slot}.Key()] = []int{line}
	}

	got := h.Markers(a.Doc)
	if reflect.DeepEqual(got, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertMarkers,
		Expected: fmt.Sprintf("%s shows %s", a.Doc, formatMarkers(want)),
		Actual:   formatMarkers(got),
	}
}

// formatMarkers renders markers sorted by style key.
func formatMarkers(m map[string][]int) string {
	if len(m) == 0 {
		return "no markers"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, m[k])
	}
	return strings.Join(parts, " ")
}

// assertNotification checks that some notification matches message and,
// if given, severity.
func assertNotification(h *testutil.FakeHost, a Assertion) error {
	all := h.Notifications()
	for _, n := range all {
		if n.Message != a.Message {
			continue
		}
		if a.Severity != "" && n.Severity.String() != a.Severity {
			continue
		}
		return nil
	}

	shown := make([]string, len(all))
	for i, n := range all {
		shown[i] = fmt.Sprintf("%s: %s", n.Severity, n.Message)
	}
	return &AssertionError{
		Type:     AssertNotification,
		Expected: fmt.Sprintf("%s: %s", a.Severity, a.Message),
		Actual:   fmt.Sprintf("%q", shown),
	}
}

// assertOpened checks the documents opened, in order.
func assertOpened(h *testutil.FakeHost, a Assertion) error {
	got := h.Opened()
	if len(got) == 0 && len(a.Docs) == 0 {
		return nil
	}
	if reflect.DeepEqual(got, a.Docs) {
		return nil
	}
	return &AssertionError{
		Type:     AssertOpened,
		Expected: fmt.Sprintf("%v", a.Docs),
		Actual:   fmt.Sprintf("%v", got),
	}
}

// assertWrites checks how many times the slot table was written.
func assertWrites(actx *AssertionContext, a Assertion) error {
	got, err := countWrites(actx.Ctx, actx.KV, actx.Key)
	if err != nil {
		return err
	}
	if got == int64(a.Count) {
		return nil
	}
	return &AssertionError{
		Type:     AssertWrites,
		Expected: fmt.Sprintf("%d writes", a.Count),
		Actual:   fmt.Sprintf("%d writes", got),
	}
}

// countWrites asks a counting store how often key was written.
func countWrites(ctx context.Context, kv store.KV, key string) (int64, error) {
	switch c := kv.(type) {
	case *store.MemoryKV:
		return c.Writes(key), nil
	case *store.Workspace:
		return c.Writes(ctx, key)
	default:
		return 0, fmt.Errorf("writes: store %T does not count writes", kv)
	}
}
