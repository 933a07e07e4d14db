package croplabel

import (
	"slices"
	"sync/atomic"
)

// ColumnCandidates lists the header names that identify each table column
// when a file is loaded without explicit column options.
type ColumnCandidates struct {
	Label     []string `json:"label" yaml:"label"`
	Name      []string `json:"name" yaml:"name"`
	Category  []string `json:"category" yaml:"category"`
	Supported []string `json:"supported" yaml:"supported"`
}

var activeCandidates atomic.Pointer[ColumnCandidates]

func init() {
	SetColumnCandidates(ColumnCandidates{})
}

func builtinColumnCandidates() ColumnCandidates {
	return ColumnCandidates{
		Label:     []string{"label", "raw_label", "raw", "english", "description", "etiqueta"},
		Name:      []string{"name", "nombre", "localized", "translation", "traduccion", "traducción"},
		Category:  []string{"category", "categoria", "categoría"},
		Supported: []string{"supported", "valid", "valido", "válido", "soportado"},
	}
}

// SetColumnCandidates replaces the header names used for auto-detection. A nil
// list keeps the built-in names for that column.
func SetColumnCandidates(custom ColumnCandidates) {
	merged := builtinColumnCandidates()
	dst := merged.lists()
	for i, names := range custom.lists() {
		if *names != nil {
			*dst[i] = slices.Clone(*names)
		}
	}
	activeCandidates.Store(&merged)
}

// getColumnCandidates returns the active set. Stored sets are never mutated.
func getColumnCandidates() ColumnCandidates {
	return *activeCandidates.Load()
}

func (c *ColumnCandidates) lists() [4]*[]string {
	return [4]*[]string{&c.Label, &c.Name, &c.Category, &c.Supported}
}
