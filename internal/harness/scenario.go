package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/slotmarks/internal/ir"
)

// Scenario is a scripted editor session.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Documents are registered with the host before the first step.
	Documents []DocumentSpec `yaml:"documents,omitempty"`

	// Steps are played in order. Each step sets exactly one action.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// DocumentSpec describes an openable document.
type DocumentSpec struct {
	ID    string `yaml:"id"`
	Lines int    `yaml:"lines"`
}

// Step is one thing that happens in the editor.
type Step struct {
	// Activate focuses a document with the cursor at the given position and
	// reports the view change.
	Activate *ActivateStep `yaml:"activate,omitempty"`

	// Deactivate closes the active view and reports the view change.
	Deactivate bool `yaml:"deactivate,omitempty"`

	// Cursor moves the cursor of the active view. No event is reported.
	Cursor *PositionSpec `yaml:"cursor,omitempty"`

	// Command dispatches a command ID.
	Command string `yaml:"command,omitempty"`

	// Pick scripts the answer to the next picker: an item index, or -1 to
	// dismiss it.
	Pick *int `yaml:"pick,omitempty"`

	// Edit changes a document's line count and reports the content change.
	Edit *EditStep `yaml:"edit,omitempty"`

	// Remove makes a document unopenable.
	Remove *RemoveStep `yaml:"remove,omitempty"`

	// Restart replaces the engine with a fresh one over the same storage, as
	// when the editor is reloaded.
	Restart bool `yaml:"restart,omitempty"`
}

// ActivateStep focuses a document.
type ActivateStep struct {
	Doc    string `yaml:"doc"`
	Line   int    `yaml:"line,omitempty"`
	Column int    `yaml:"column,omitempty"`
}

// PositionSpec is a zero-based cursor position.
type PositionSpec struct {
	Line   int `yaml:"line"`
	Column int `yaml:"column"`
}

// EditStep changes a document's length.
type EditStep struct {
	Doc   string `yaml:"doc"`
	Lines int    `yaml:"lines"`
}

// RemoveStep deletes a document.
type RemoveStep struct {
	Doc string `yaml:"doc"`
	// Error is the message OpenDocument fails with (default "file not found").
	Error string `yaml:"error,omitempty"`
}

// BookmarkSpec is the expected content of a slot.
type BookmarkSpec struct {
	Doc    string `yaml:"doc"`
	Line   int    `yaml:"line"`
	Column int    `yaml:"column"`
}

// Assertion validates the trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an event matching event/status/result/message was processed
	// - "trace_order": events were processed in this relative order
	// - "trace_count": event was processed exactly count times
	// - "slot": the persisted slot holds bookmark, or is empty
	// - "markers": the markers shown in doc's view are exactly markers
	// - "notification": a notification with severity and message was shown
	// - "writes": the slot table was written exactly count times
	// - "opened": exactly docs were opened, in order
	Type string `yaml:"type"`

	// Event is a command ID or notification name (trace_contains, trace_count).
	Event string `yaml:"event,omitempty"`

	// Status, Result and Message narrow trace_contains; empty matches anything.
	Status  string `yaml:"status,omitempty"`
	Result  string `yaml:"result,omitempty"`
	Message string `yaml:"message,omitempty"`

	// Events is the expected order (trace_order).
	Events []string `yaml:"events,omitempty"`

	// Count is the expected number (trace_count, writes).
	Count int `yaml:"count,omitempty"`

	// Slot and Bookmark describe the expected slot; Empty expects an absent slot.
	Slot     *int          `yaml:"slot,omitempty"`
	Bookmark *BookmarkSpec `yaml:"bookmark,omitempty"`
	Empty    bool          `yaml:"empty,omitempty"`

	// Doc and Markers describe the expected markers, slot index to line.
	Doc     string      `yaml:"doc,omitempty"`
	Markers map[int]int `yaml:"markers,omitempty"`

	// Severity names the notification severity: info, warning or error.
	Severity string `yaml:"severity,omitempty"`

	// Docs is the expected list of opened documents (opened).
	Docs []string `yaml:"docs,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertSlot          = "slot"
	AssertMarkers       = "markers"
	AssertNotification  = "notification"
	AssertWrites        = "writes"
	AssertOpened        = "opened"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, doc := range s.Documents {
		if doc.ID == "" {
			return fmt.Errorf("documents[%d]: id is required", i)
		}
		if doc.Lines < 0 {
			return fmt.Errorf("documents[%d]: lines must be non-negative", i)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateStep checks that a step sets exactly one action.
func validateStep(index int, s Step) error {
	set := 0
	for _, ok := range []bool{
		s.Activate != nil, s.Deactivate, s.Cursor != nil, s.Command != "",
		s.Pick != nil, s.Edit != nil, s.Remove != nil, s.Restart,
	} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one action is required, got %d", index, set)
	}

	switch {
	case s.Activate != nil && s.Activate.Doc == "":
		return fmt.Errorf("steps[%d]: activate.doc is required", index)
	case s.Edit != nil && s.Edit.Doc == "":
		return fmt.Errorf("steps[%d]: edit.doc is required", index)
	case s.Remove != nil && s.Remove.Doc == "":
		return fmt.Errorf("steps[%d]: remove.doc is required", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertSlot:
		if a.Slot == nil {
			return fmt.Errorf("assertions[%d]: slot is required for slot", index)
		}
		if !ir.ValidIndex(*a.Slot) {
			return fmt.Errorf("assertions[%d]: slot %d out of range", index, *a.Slot)
		}
		if (a.Bookmark == nil) == !a.Empty {
			return fmt.Errorf("assertions[%d]: slot needs exactly one of bookmark or empty", index)
		}
	case AssertMarkers:
		if a.Doc == "" {
			return fmt.Errorf("assertions[%d]: doc is required for markers", index)
		}
	case AssertNotification:
		if a.Message == "" {
			return fmt.Errorf("assertions[%d]: message is required for notification", index)
		}
	case AssertWrites:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for writes", index)
		}
	case AssertOpened:
		// An empty docs list asserts nothing was opened.
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
