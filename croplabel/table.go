package croplabel

import "fmt"

// Table holds the supported crop set and the localized name table. It is
// immutable after construction and safe for concurrent reads.
type Table struct {
	entries   []Entry
	names     map[string]string
	supported map[string]struct{}
}

// NewTable validates the entries and builds a lookup table. Labels are keyed
// case-insensitively; two labels that fold to the same key are rejected rather
// than letting the later one shadow the earlier.
func NewTable(entries []Entry) (*Table, error) {
	t := &Table{
		entries:   make([]Entry, 0, len(entries)),
		names:     make(map[string]string, len(entries)),
		supported: make(map[string]struct{}, len(entries)),
	}
	origin := make(map[string]string, len(entries))
	for i, e := range entries {
		label := NormalizeLabel(e.Label)
		key := FoldKey(label)
		if key == "" {
			return nil, fmt.Errorf("entry %d: %w", i, ErrEmptyLabel)
		}
		if prev, ok := origin[key]; ok {
			return nil, fmt.Errorf("entry %d %q collides with %q: %w", i, e.Label, prev, ErrDuplicateLabel)
		}
		origin[key] = e.Label
		name := NormalizeLabel(e.Name)
		if e.Supported && name == "" {
			return nil, fmt.Errorf("entry %d %q: %w", i, e.Label, ErrMissingName)
		}
		if name != "" {
			t.names[key] = name
		}
		if e.Supported {
			t.supported[key] = struct{}{}
		}
		t.entries = append(t.entries, Entry{
			Label:     label,
			Name:      name,
			Category:  NormalizeLabel(e.Category),
			Supported: e.Supported,
		})
	}
	return t, nil
}

// Supports reports whether label is in the supported crop set.
func (t *Table) Supports(label string) bool {
	_, ok := t.supported[FoldKey(label)]
	return ok
}

// Name returns the localized name for label.
func (t *Table) Name(label string) (string, bool) {
	name, ok := t.names[FoldKey(label)]
	return name, ok
}

// Entries returns a copy of the table rows in authoring order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// SupportedLabels lists the supported labels in authoring order.
func (t *Table) SupportedLabels() []string {
	out := make([]string, 0, len(t.supported))
	for _, e := range t.entries {
		if e.Supported {
			out = append(out, e.Label)
		}
	}
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.entries)
}
