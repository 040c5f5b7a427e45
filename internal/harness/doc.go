// Package harness runs scripted editor sessions against the slot engine.
//
// A scenario registers documents, then plays a list of steps: activating a
// view, moving the cursor, dispatching commands, answering the picker,
// editing or deleting documents, restarting the engine. Every step that the
// editor would report is fed to the engine as an event, and every processed
// event is recorded in the trace. Assertions are then evaluated against the
// trace, the persisted slot table and the fake host.
//
// # Scenario Format
//
//	name: toggle_and_switch
//	description: "A bookmark's marker follows its document"
//	documents:
//	  - id: file:///src/a.go
//	    lines: 50
//	steps:
//	  - activate: { doc: "file:///src/a.go", line: 10, column: 2 }
//	  - command: numberedBookmarks.toggle3
//	  - pick: 4
//	  - command: numberedBookmarks.list
//	assertions:
//	  - type: trace_contains
//	    event: numberedBookmarks.toggle3
//	    result: Added
//	  - type: markers
//	    doc: file:///src/a.go
//	    markers: { 3: 10 }
//
// # Determinism
//
// Event IDs come from testutil.SequentialIDGenerator ("event-1", "event-2",
// ...) and sequence numbers from testutil.DeterministicClock, so the same
// scenario always produces the same trace. RunWithGolden compares that trace,
// in canonical JSON, against testdata/golden/<name>.golden.
package harness
