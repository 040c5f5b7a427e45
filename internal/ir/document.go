package ir

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeDocumentID returns the NFC form of a document identifier.
//
// Editors may hand the same path over in composed or decomposed Unicode form
// (macOS file systems decompose). Bookmark equality is by string, so both
// forms must collapse to one before they are compared or stored.
func NormalizeDocumentID(id string) string {
	return norm.NFC.String(id)
}

// DocumentIDFromPath builds a file:// identifier for a local path.
// Identifiers that already carry a scheme are returned normalized but otherwise
// unchanged.
func DocumentIDFromPath(p string) string {
	if hasScheme(p) {
		return NormalizeDocumentID(p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = p
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return NormalizeDocumentID(u.String())
}

// DisplayPath returns the user-facing form of a document identifier.
// file:// identifiers display as their file-system path; anything else is
// shown as-is.
func DisplayPath(id string) string {
	u, err := url.Parse(id)
	if err != nil || u.Scheme != "file" {
		return id
	}
	return filepath.FromSlash(u.Path)
}

// FilePath returns the local path for a file:// identifier or a bare path.
// ok is false for identifiers with any other scheme.
func FilePath(id string) (path string, ok bool) {
	if !hasScheme(id) {
		return id, true
	}
	u, err := url.Parse(id)
	if err != nil || u.Scheme != "file" {
		return "", false
	}
	return filepath.FromSlash(u.Path), true
}

// hasScheme reports whether s starts with "scheme:". Single-letter schemes are
// treated as Windows drive letters.
func hasScheme(s string) bool {
	i := strings.Index(s, ":")
	if i <= 1 {
		return false
	}
	for _, r := range s[:i] {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '+', r == '-', r == '.':
		default:
			return false
		}
	}
	return true
}
