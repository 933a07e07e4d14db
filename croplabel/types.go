package croplabel

import "errors"

// Variant names a built-in crop table.
type Variant string

const (
	// VariantVision is the ten-crop table used by the photo capture flow.
	VariantVision Variant = "vision"
	// VariantExtended adds the regional crops offered by the catalogue.
	VariantExtended Variant = "extended"
)

var (
	// ErrNotFound reports that no candidate label is a supported crop.
	ErrNotFound = errors.New("no valid crop found")
	// ErrDuplicateLabel reports two table keys that differ only by case.
	ErrDuplicateLabel = errors.New("duplicate label")
	// ErrMissingName reports a supported label without a localized name.
	ErrMissingName = errors.New("supported label has no localized name")
	// ErrEmptyLabel reports a table entry with a blank label.
	ErrEmptyLabel = errors.New("empty label")
	// ErrUnknownVariant reports a variant with no built-in table.
	ErrUnknownVariant = errors.New("unknown table variant")
	// ErrNoSupportedCrops reports a table file in which no row is a supported crop.
	ErrNoSupportedCrops = errors.New("table has no supported crops")
)

// Candidate is one label emitted by an image classifier.
type Candidate struct {
	Description string  `json:"description" yaml:"description"`
	Score       float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

// ResolvedCrop is the outcome of a successful resolution.
type ResolvedCrop struct {
	Label string  `json:"label"`
	Name  string  `json:"name"`
	Score float64 `json:"score,omitempty"`
	Rank  int     `json:"rank"`
}

// Entry is a single row of a crop table. Supported entries must carry a Name.
type Entry struct {
	Label     string `json:"label" yaml:"label"`
	Name      string `json:"name" yaml:"name"`
	Category  string `json:"category,omitempty" yaml:"category,omitempty"`
	Supported bool   `json:"supported" yaml:"supported"`
}

// ResolverConfig selects the active table and the candidate policy.
type ResolverConfig struct {
	Variant   Variant `json:"variant" yaml:"variant"`
	TableFile string  `json:"tableFile,omitempty" yaml:"table_file,omitempty"`
	// MinScore skips candidates scoring below it. Zero disables the cutoff.
	MinScore float64 `json:"minScore,omitempty" yaml:"min_score,omitempty"`
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *ResolverConfig) ApplyDefaults() {
	if c.Variant == "" {
		c.Variant = VariantVision
	}
	if c.MinScore < 0 {
		c.MinScore = 0
	}
}
