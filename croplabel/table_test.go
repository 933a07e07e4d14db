package croplabel

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable_RejectsCaseCollision(t *testing.T) {
	_, err := NewTable([]Entry{
		{Label: "corn", Name: "Maíz", Supported: true},
		{Label: "Corn", Name: "Choclo", Supported: true},
	})
	assert.ErrorIs(t, err, ErrDuplicateLabel)
}

func TestNewTable_RejectsWhitespaceCollision(t *testing.T) {
	_, err := NewTable([]Entry{
		{Label: "bell pepper", Name: "Pimiento", Supported: true},
		{Label: " Bell  Pepper ", Name: "Ají", Supported: true},
	})
	assert.ErrorIs(t, err, ErrDuplicateLabel)
}

func TestNewTable_SupportedNeedsName(t *testing.T) {
	_, err := NewTable([]Entry{{Label: "kale", Supported: true}})
	assert.ErrorIs(t, err, ErrMissingName)

	// Unsupported rows may omit the name.
	table, err := NewTable([]Entry{{Label: "kale"}})
	require.NoError(t, err)
	assert.False(t, table.Supports("kale"))
	_, ok := table.Name("kale")
	assert.False(t, ok)
}

func TestNewTable_RejectsEmptyLabel(t *testing.T) {
	_, err := NewTable([]Entry{{Label: "  ", Name: "Nada"}})
	assert.ErrorIs(t, err, ErrEmptyLabel)
}

func TestDefaultTables_Invariants(t *testing.T) {
	for _, v := range Variants() {
		table, err := DefaultTable(v)
		require.NoError(t, err, v)
		for _, label := range table.SupportedLabels() {
			name, ok := table.Name(label)
			assert.True(t, ok, "%s/%s has no name", v, label)
			assert.NotEmpty(t, name)
		}
	}
}

func TestDefaultTables_ExtendedIsSuperset(t *testing.T) {
	vision, err := DefaultTable(VariantVision)
	require.NoError(t, err)
	extended, err := DefaultTable(VariantExtended)
	require.NoError(t, err)
	for _, label := range vision.SupportedLabels() {
		assert.True(t, extended.Supports(label), label)
	}
}

func TestTable_EntriesIsCopy(t *testing.T) {
	table, err := DefaultTable(VariantVision)
	require.NoError(t, err)
	entries := table.Entries()
	entries[0].Name = "changed"
	name, _ := table.Name("corn")
	assert.Equal(t, "Maíz", name)

	want := DefaultVisionEntries()
	if diff := cmp.Diff(want, table.Entries()); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultEntries_UnknownVariant(t *testing.T) {
	_, err := DefaultEntries("desert")
	assert.ErrorIs(t, err, ErrUnknownVariant)
}
