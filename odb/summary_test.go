package odb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionCategoryName(t *testing.T) {
	for raw, name := range map[string]string{
		"shell < composite >": "Shell composite",
		"shell < STEEL >":     "Shell",
		"solid < composite >": "Solid composite",
		"solid < ALU >":       "Solid",
		"beam < RECT >":       "Other",
		"":                    "Other",
	} {
		assert.Equal(t, name, SectionCategoryName(raw), raw)
	}
}

func TestSummarizeInstances(t *testing.T) {
	summary := SummarizeInstances(NewTestDatabase())
	require.Len(t, summary, 2)
	block := summary["BLOCK-1"]
	assert.Equal(t, []string{"C3D8"}, block.ElementTypes)
	assert.Equal(t, []string{"Solid"}, block.SectionCategories)
	assert.True(t, block.Supported)
	assert.False(t, block.Composite)
	assert.Equal(t, []string{"CPS4", "T2D2"}, summary["PLATE-1"].ElementTypes)

	skin := SummarizeInstances(NewCompositeTestDatabase())["SKIN-1"]
	assert.True(t, skin.Supported)
	assert.True(t, skin.Composite)

	mixed := NewBlockInstance("MIXED", 1, "C3D8", SteelSection)
	mixed.Elements = append(mixed.Elements, Element{
		Label: 2, Type: "S4R", SectionCategory: CompositeSection, Connectivity: []int{1, 2, 4, 3},
	})
	s := SummarizeInstance(mixed)
	assert.Equal(t, []string{"Shell composite", "Solid"}, s.SectionCategories)
	assert.False(t, s.Supported)
}

func TestSummarizeFields(t *testing.T) {
	db := NewTestDatabase()
	fs, err := SummarizeFields(db, []string{"Step-1", "Step-2", "Step-1"})
	require.NoError(t, err)
	require.Len(t, fs.Steps, 2)

	frames := fs.AvailableFrames()
	assert.Equal(t, []int{0, 1, 2}, frames["Step-1"])
	assert.Equal(t, []int{0, 1}, frames["Step-2"])

	fields := fs.AvailableFields()
	assert.Equal(t, []string{"EVOL", "S11", "S22", "NT11", "U", "S"}, fields["Step-2"][1])
	assert.Equal(t, 0.5, fs.Steps[0].Frames[1].Value)

	_, err = SummarizeFields(db, []string{"Step-3"})
	assert.ErrorIs(t, err, ErrNotFound)
}
