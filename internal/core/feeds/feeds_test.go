package feeds

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/estaciones/internal/core"
)

func TestEmbeddedLayouts(t *testing.T) {
	defs, err := Parse(defaultLayouts)
	require.NoError(t, err)
	require.Len(t, defs, 2)

	land, maritime := defs[0], defs[1]

	assert.Equal(t, "land", land.Key)
	assert.Equal(t, core.KindLand, land.Kind)
	assert.Equal(t, 3, land.SkipLines)
	assert.Equal(t, 35, land.Columns[core.FieldCompany])
	assert.Equal(t, 5, land.Columns[core.FieldMargin])
	assert.Equal(t, []core.PriceColumn{
		{FuelType: core.FuelGasolina95E5, Column: 9},
		{FuelType: core.FuelGasoleoA, Column: 14},
	}, land.Prices)
	assert.Equal(t, 36, land.Width())

	assert.Equal(t, "maritime", maritime.Key)
	assert.Equal(t, core.KindMaritime, maritime.Kind)
	assert.Equal(t, 3, maritime.Columns[core.FieldLocality])
	assert.Equal(t, 22, maritime.Columns[core.FieldCompany])
	_, hasMargin := maritime.Column(core.FieldMargin)
	assert.False(t, hasMargin)
	assert.Equal(t, []core.PriceColumn{
		{FuelType: core.FuelGasolina95E5, Column: 8},
		{FuelType: core.FuelGasoleoA, Column: 10},
	}, maritime.Prices)
}

func TestInitRegistersFeedsInOrder(t *testing.T) {
	all := core.All()
	require.Len(t, all, 2)
	assert.Equal(t, "land", all[0].Key)
	assert.Equal(t, "maritime", all[1].Key)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "feeds: [unclosed"},
		{"no feeds", "feeds: []"},
		{"unknown kind", `
feeds:
  - key: river
    kind: RIVER
`},
		{"missing company column", `
feeds:
  - key: land
    kind: LAND
    columns: {province: 0, municipality: 1, locality: 2, postal_code: 3, address: 4, longitude: 6, latitude: 7}
    prices: [{fuel_type: Gasóleo A, column: 14}]
`},
		{"unknown fuel type", `
feeds:
  - key: land
    kind: LAND
    columns: {province: 0, municipality: 1, locality: 2, postal_code: 3, address: 4, longitude: 6, latitude: 7, company: 35}
    prices: [{fuel_type: Hidrógeno, column: 14}]
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrInvalidLayout), "got %v", err)
		})
	}
}

func TestLoadFile_ReplacesRegistry(t *testing.T) {
	t.Cleanup(func() {
		defs, err := Parse(defaultLayouts)
		require.NoError(t, err)
		require.NoError(t, core.Replace(defs))
	})

	path := filepath.Join(t.TempDir(), "layouts.yaml")
	doc := `
feeds:
  - key: maritime
    label: Ports only
    kind: MARITIMA
    order: 1
    skip_lines: 2
    columns: {province: 0, municipality: 1, locality: 3, postal_code: 4, address: 5, longitude: 6, latitude: 7, company: 22}
    prices: [{fuel_type: Gasolina 95 E5, column: 8}]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	require.NoError(t, LoadFile(path))

	all := core.All()
	require.Len(t, all, 1)
	assert.Equal(t, "Ports only", all[0].Label)
	assert.Equal(t, 2, all[0].SkipLines)
}

func TestLoadFile_Missing(t *testing.T) {
	err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
