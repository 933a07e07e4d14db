package croplabel

import "fmt"

// DefaultVisionEntries returns the crops the photo capture flow accepts.
func DefaultVisionEntries() []Entry {
	return []Entry{
		{Label: "corn", Name: "Maíz", Category: "Cereales", Supported: true},
		{Label: "wheat", Name: "Trigo", Category: "Cereales", Supported: true},
		{Label: "broccoli", Name: "Brócoli", Category: "Hortalizas", Supported: true},
		{Label: "lettuce", Name: "Lechuga", Category: "Hortalizas", Supported: true},
		{Label: "carrot", Name: "Zanahoria", Category: "Hortalizas", Supported: true},
		{Label: "tomato", Name: "Tomate", Category: "Hortalizas", Supported: true},
		{Label: "potato", Name: "Papa", Category: "Tubérculos", Supported: true},
		{Label: "soybean", Name: "Soja", Category: "Leguminosas", Supported: true},
		{Label: "rice", Name: "Arroz", Category: "Cereales", Supported: true},
		{Label: "barley", Name: "Cebada", Category: "Cereales", Supported: true},
	}
}

// DefaultExtendedEntries returns the vision crops plus regional crops from the
// catalogue, and a few frequent classifier labels that only get a display name.
func DefaultExtendedEntries() []Entry {
	entries := DefaultVisionEntries()
	return append(entries,
		Entry{Label: "banana", Name: "Banano", Category: "Frutales", Supported: true},
		Entry{Label: "cocoa bean", Name: "Cacao", Category: "Frutales", Supported: true},
		Entry{Label: "coffee", Name: "Café", Category: "Frutales", Supported: true},
		Entry{Label: "bean", Name: "Fréjol", Category: "Leguminosas", Supported: true},
		Entry{Label: "onion", Name: "Cebolla", Category: "Hortalizas", Supported: true},
		Entry{Label: "bell pepper", Name: "Pimiento", Category: "Hortalizas", Supported: true},
		Entry{Label: "cucumber", Name: "Pepino", Category: "Hortalizas", Supported: true},
		Entry{Label: "strawberry", Name: "Fresa", Category: "Frutales", Supported: true},
		Entry{Label: "avocado", Name: "Aguacate", Category: "Frutales", Supported: true},
		Entry{Label: "quinoa", Name: "Quinua", Category: "Cereales", Supported: true},
		Entry{Label: "sugarcane", Name: "Caña de azúcar", Category: "Industriales", Supported: true},
		Entry{Label: "cassava", Name: "Yuca", Category: "Tubérculos", Supported: true},
		Entry{Label: "plant", Name: "Planta"},
		Entry{Label: "leaf", Name: "Hoja"},
		Entry{Label: "vegetable", Name: "Vegetal"},
	)
}

// DefaultEntries returns the built-in rows for a variant.
func DefaultEntries(v Variant) ([]Entry, error) {
	switch v {
	case VariantVision, "":
		return DefaultVisionEntries(), nil
	case VariantExtended:
		return DefaultExtendedEntries(), nil
	default:
		return nil, fmt.Errorf("variant %q: %w", v, ErrUnknownVariant)
	}
}

// DefaultTable builds the built-in table for a variant.
func DefaultTable(v Variant) (*Table, error) {
	entries, err := DefaultEntries(v)
	if err != nil {
		return nil, err
	}
	return NewTable(entries)
}

// Variants lists the built-in variant names.
func Variants() []Variant {
	return []Variant{VariantVision, VariantExtended}
}
