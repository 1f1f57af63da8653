package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeedValid(t *testing.T) {
	raw := []byte(`{
		"phases": [
			{"code": "CORTE", "description": "Cutting", "checklist": [
				{"description": "Blade inspected"},
				{"description": "Offcuts logged", "mandatory": false}
			]},
			{"code": "MONTAGEM", "description": "Assembly"}
		],
		"products": [
			{"code": "PRD-1", "description": "Widget", "recipe": [
				{"phase": "CORTE", "ordinal": 1, "estimated_minutes": 30},
				{"phase": "MONTAGEM", "ordinal": 2, "estimated_minutes": 45, "shelf_life_hours": 24}
			]}
		],
		"machines": [
			{"code": "MAQ-1", "description": "Saw", "sector": "cutting"}
		]
	}`)

	seed, err := ParseSeed(raw)
	require.NoError(t, err)

	require.Len(t, seed.Phases, 2)
	assert.Equal(t, "CORTE", seed.Phases[0].Code)
	require.Len(t, seed.Phases[0].Checklist, 2)
	assert.Nil(t, seed.Phases[0].Checklist[0].Mandatory)
	require.NotNil(t, seed.Phases[0].Checklist[1].Mandatory)
	assert.False(t, *seed.Phases[0].Checklist[1].Mandatory)

	require.Len(t, seed.Products, 1)
	require.Len(t, seed.Products[0].Recipe, 2)
	assert.Equal(t, 45, seed.Products[0].Recipe[1].EstimatedMinutes)
	require.NotNil(t, seed.Products[0].Recipe[1].ShelfLifeHours)
	assert.Equal(t, 24, *seed.Products[0].Recipe[1].ShelfLifeHours)

	require.Len(t, seed.Machines, 1)
}

func TestParseSeedEmptySections(t *testing.T) {
	seed, err := ParseSeed([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, seed.Phases)
	assert.Empty(t, seed.Products)
	assert.Empty(t, seed.Machines)
}

func TestParseSeedRejectsMissingFields(t *testing.T) {
	// Product without a recipe
	_, err := ParseSeed([]byte(`{"products": [{"code": "PRD-1"}]}`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid seed file")

	// Recipe step with ordinal 0
	_, err = ParseSeed([]byte(`{
		"products": [{"code": "PRD-1", "recipe": [{"phase": "CORTE", "ordinal": 0}]}]
	}`))
	assert.Error(t, err)

	// Phase without a code
	_, err = ParseSeed([]byte(`{"phases": [{"description": "Cutting"}]}`))
	assert.Error(t, err)
}

func TestParseSeedRejectsMalformedJSON(t *testing.T) {
	_, err := ParseSeed([]byte(`{"phases": [`))
	assert.Error(t, err)
}
