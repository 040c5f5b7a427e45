// Package engine dispatches slotmarks commands and host notifications.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// Every command invocation, view-change and content-change notification is an
// Event. Events are processed one at a time, to completion, in the order the
// host delivered them. There is no parallel execution of Slot Store or marker
// logic, and no locking around the slot table.
//
// Event Processing Flow:
//  1. Host enqueues an event (Dispatch, ViewChanged, ContentChanged)
//  2. Run (or Drain) dequeues events one at a time
//  3. process routes to the command or notification handler
//  4. Command handlers call the Slot Store, which re-reads the persisted table
//     before every mutation
//  5. Every mutation, view change and content change of the active document
//     ends with a marker refresh of the then-active view
//
// Suspension points (opening a document, showing a picker) are host calls. A
// handler never carries a slot table across one: anything it needs afterwards
// is read again. The list command does not call goto directly; it enqueues the
// chosen goto as a new event, exactly as a keybinding would.
//
// Seq and event IDs:
// Each event is stamped with a monotonic seq from a logical clock and a
// UUIDv7 event ID for log correlation. Tests substitute deterministic
// generators for both.
package engine
