// Package host declares the editor-side collaborators slotmarks consumes.
//
// Everything about how text is rendered, how documents are opened and how a
// picker is shown belongs to the host. slotmarks only reaches the host through
// these interfaces; internal/testutil provides an in-memory implementation and
// internal/cli a terminal one.
package host

import (
	"context"
	"errors"
)

// ErrNoSelection is returned by a ChoicePicker when the user dismisses it.
// It marks an abandoned interaction, not a failure.
var ErrNoSelection = errors.New("no selection")

// Position is a zero-based line/column location.
type Position struct {
	Line   int
	Column int
}

// Document is an opened document.
type Document interface {
	// ID returns the identifier the document was opened with.
	ID() string
	// LineCount returns the number of lines currently in the document.
	LineCount() int
}

// View is an editing surface showing one document.
type View interface {
	Document() Document
	// Cursor returns the active end of the primary selection.
	Cursor() Position
	// SetCursor collapses the selection to pos.
	SetCursor(pos Position)
	// Reveal scrolls pos into the middle of the view.
	Reveal(pos Position)
}

// ActiveViewProvider exposes the view that currently has focus.
// ActiveView returns nil when no view is active.
type ActiveViewProvider interface {
	ActiveView() View
}

// DocumentOpener resolves a document identifier to an opened document.
type DocumentOpener interface {
	OpenDocument(ctx context.Context, id string) (Document, error)
}

// ViewPresenter shows an opened document and returns the view showing it.
type ViewPresenter interface {
	ShowDocument(ctx context.Context, doc Document) (View, error)
}

// MarkerStyle is an opaque handle to a marker appearance created by the host.
type MarkerStyle interface {
	// Key identifies the style for logging and tests.
	Key() string
}

// StyleFactory creates marker styles. Styles are created once and reused for
// the process lifetime.
type StyleFactory interface {
	CreateMarkerStyle(index int) MarkerStyle
}

// MarkerRenderer displays exactly the given lines for style in view,
// replacing whatever that style showed there before. An empty lines slice
// removes the style's markers from the view.
type MarkerRenderer interface {
	SetMarkers(view View, style MarkerStyle, lines []int)
}

// Severity ranks a user-facing notification.
type Severity int

const (
	SeverityInfo Severity = iota + 1
	SeverityWarning
	SeverityError
)

// String returns "info", "warning" or "error".
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Notifier shows fire-and-forget user messages.
type Notifier interface {
	Notify(severity Severity, message string)
}

// PickItem is one entry offered by a ChoicePicker.
type PickItem struct {
	Label       string
	Description string
}

// ChoicePicker asks the user to pick one item. It returns the chosen index
// into items, or ErrNoSelection if the picker was dismissed.
type ChoicePicker interface {
	Pick(ctx context.Context, placeholder string, items []PickItem) (int, error)
}

// Host bundles every collaborator the command layer needs.
type Host interface {
	ActiveViewProvider
	DocumentOpener
	ViewPresenter
	StyleFactory
	MarkerRenderer
	Notifier
	ChoicePicker
}
