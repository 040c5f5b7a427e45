package ir

import (
	"encoding/json"
	"errors"
	"fmt"
)

// StorageKey is the durable key the slot table is persisted under.
const StorageKey = "numberedBookmarks"

// ErrInvalidTable is returned when a persisted value is not a SlotCount-element
// array of null or bookmark objects.
var ErrInvalidTable = errors.New("invalid slot table")

// MarshalTable serializes a table as an ordered JSON array of exactly
// SlotCount elements, each null or {"documentId","line","column"}.
func MarshalTable(t SlotTable) ([]byte, error) {
	data, err := json.Marshal([SlotCount]*Bookmark(t))
	if err != nil {
		return nil, fmt.Errorf("marshal slot table: %w", err)
	}
	return data, nil
}

// UnmarshalTable parses a persisted table.
//
// The array length must be exactly SlotCount: decoding straight into a fixed
// array would silently drop or zero-fill elements, so the value is decoded into
// a slice first and its length checked.
func UnmarshalTable(data []byte) (SlotTable, error) {
	var raw []*Bookmark
	if err := json.Unmarshal(data, &raw); err != nil {
		return SlotTable{}, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	if len(raw) != SlotCount {
		return SlotTable{}, fmt.Errorf("%w: %d elements, want %d", ErrInvalidTable, len(raw), SlotCount)
	}

	var t SlotTable
	for i, b := range raw {
		if b == nil {
			continue
		}
		if b.DocumentID == "" {
			return SlotTable{}, fmt.Errorf("%w: slot %d: empty documentId", ErrInvalidTable, i)
		}
		if b.Line < 0 || b.Column < 0 {
			return SlotTable{}, fmt.Errorf("%w: slot %d: negative position %d:%d", ErrInvalidTable, i, b.Line, b.Column)
		}
		t[i] = b
	}
	return t, nil
}
