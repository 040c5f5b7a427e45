// Package ir provides the data model shared by every slotmarks package.
//
// This package contains type definitions and their serialization only. All
// other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Exactly SlotCount slots exist; SlotTable is a fixed-size array so it can
//     never be resized, truncated or reordered
//   - A slot holds either nil (absent) or exactly one Bookmark
//   - Lines and columns are zero-based
//   - Document identifiers are NFC-normalized before they are compared or stored
package ir
