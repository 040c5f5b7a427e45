package ir

import "fmt"

// SlotCount is the fixed number of bookmark slots. Slot indices run 0..SlotCount-1.
const SlotCount = 10

// Bookmark is one saved location inside a document.
//
// DocumentID must round-trip to open the same document later (scheme + path,
// e.g. "file:///src/main.go"). Line and Column are zero-based and fixed at save
// time: they are not re-anchored when the document is edited.
type Bookmark struct {
	DocumentID string `json:"documentId"`
	Line       int    `json:"line"`
	Column     int    `json:"column"`
}

// NewBookmark builds a bookmark with a normalized document identifier.
func NewBookmark(documentID string, line, column int) Bookmark {
	return Bookmark{
		DocumentID: NormalizeDocumentID(documentID),
		Line:       line,
		Column:     column,
	}
}

// SameLocation reports whether b and other identify the same bookmark.
// A bookmark is identified by document and line; the column is ignored.
func (b Bookmark) SameLocation(other Bookmark) bool {
	return b.DocumentID == other.DocumentID && b.Line == other.Line
}

// String renders the bookmark as "document:line:column" using one-based
// line and column numbers.
func (b Bookmark) String() string {
	return fmt.Sprintf("%s:%d:%d", DisplayPath(b.DocumentID), b.Line+1, b.Column+1)
}

// SlotTable maps each slot index to an optional bookmark (nil = absent).
//
// INVARIANT: the array length is SlotCount. Copying a SlotTable copies the
// pointers, so callers that mutate a slot must replace the pointer rather
// than write through it (see With and Without).
type SlotTable [SlotCount]*Bookmark

// NewSlotTable returns a table with every slot absent.
func NewSlotTable() SlotTable {
	return SlotTable{}
}

// Get returns the bookmark at index i, or nil if the slot is absent.
// Panics if i is out of range.
func (t SlotTable) Get(i int) *Bookmark {
	MustIndex(i)
	if t[i] == nil {
		return nil
	}
	b := *t[i]
	return &b
}

// With returns a copy of the table with slot i set to b.
func (t SlotTable) With(i int, b Bookmark) SlotTable {
	MustIndex(i)
	t[i] = &b
	return t
}

// Without returns a copy of the table with slot i absent.
func (t SlotTable) Without(i int) SlotTable {
	MustIndex(i)
	t[i] = nil
	return t
}

// Occupied returns the number of slots holding a bookmark.
func (t SlotTable) Occupied() int {
	n := 0
	for _, b := range t {
		if b != nil {
			n++
		}
	}
	return n
}

// Equal reports whether both tables hold the same bookmarks in the same slots.
func (t SlotTable) Equal(other SlotTable) bool {
	for i := range t {
		a, b := t[i], other[i]
		switch {
		case a == nil && b == nil:
			continue
		case a == nil || b == nil:
			return false
		case *a != *b:
			return false
		}
	}
	return true
}

// ToggleResult is the outcome of toggling a slot.
type ToggleResult int

const (
	// ToggleAdded means the slot now holds the candidate bookmark.
	ToggleAdded ToggleResult = iota + 1
	// ToggleRemoved means the slot held the candidate location and is now absent.
	ToggleRemoved
)

// String returns "Added" or "Removed".
func (r ToggleResult) String() string {
	switch r {
	case ToggleAdded:
		return "Added"
	case ToggleRemoved:
		return "Removed"
	default:
		return fmt.Sprintf("ToggleResult(%d)", int(r))
	}
}

// ValidIndex reports whether i names a slot.
func ValidIndex(i int) bool {
	return i >= 0 && i < SlotCount
}

// MustIndex panics if i does not name a slot.
// Indices come from command registration, so a bad index is a programming error.
func MustIndex(i int) {
	if !ValidIndex(i) {
		panic(fmt.Sprintf("ir: slot index %d out of range [0,%d)", i, SlotCount))
	}
}
