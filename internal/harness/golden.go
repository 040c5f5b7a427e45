package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/slotmarks/internal/ir"
)

// TraceSnapshot captures the trace and final slot table of a scenario run.
// It is serialized with ir.MarshalCanonical for byte-stable comparison.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []TraceEvent
	Slots        ir.SlotTable
}

// toCanonicalMap converts the snapshot to the plain maps and slices that
// ir.MarshalCanonical accepts. Empty optional fields are omitted.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"seq":    event.Seq,
			"id":     event.ID,
			"event":  event.Event,
			"status": event.Status,
		}
		if event.Slot >= 0 {
			eventMap["slot"] = event.Slot
		}
		if event.Result != "" {
			eventMap["result"] = event.Result
		}
		if event.Message != "" {
			eventMap["message"] = event.Message
		}
		traceList[i] = eventMap
	}

	slotList := make([]any, len(s.Slots))
	for i, b := range s.Slots {
		slotList[i] = b
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"slots":         slotList,
		"trace":         traceList,
	}
}

// MarshalSnapshot renders a result as canonical JSON.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		Slots:        result.Slots,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
