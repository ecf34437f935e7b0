package core

import "strings"

// HeaderIndex is the ordered list of column names taken from the first
// non-empty line of an import. Position i names column i of every row.
// Empty names are kept so later columns stay aligned.
type HeaderIndex struct {
	names []string
}

// NewHeaderIndex tokenizes a header line and trims every name.
func NewHeaderIndex(line string) HeaderIndex {
	raw := ParseLine(line)
	names := make([]string, len(raw))
	for i, h := range raw {
		names[i] = strings.TrimSpace(h)
	}
	return HeaderIndex{names: names}
}

// Len returns the number of columns, including empty ones.
func (h HeaderIndex) Len() int { return len(h.names) }

// Name returns the trimmed header at position i.
func (h HeaderIndex) Name(i int) string { return h.names[i] }

// KeyPath returns the dot-separated segments of the header at position i,
// or nil when the header is empty and contributes no key.
func (h HeaderIndex) KeyPath(i int) []string {
	if h.names[i] == "" {
		return nil
	}
	return strings.Split(h.names[i], ".")
}
