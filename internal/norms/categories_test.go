package norms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestMapper(t *testing.T) *Mapper {
	t.Helper()
	m, err := LoadMapper("../../data/norm_categories.json")
	require.NoError(t, err)
	return m
}

func TestLookupCategorySpecificBeatsGeneral(t *testing.T) {
	m := loadTestMapper(t)

	cat, err := m.LookupCategory("residuos peligrosos")
	require.NoError(t, err)
	assert.Equal(t, "residuos peligrosos", cat.Name)
	require.NotEmpty(t, cat.References)
	assert.Equal(t, "148/2003", cat.References[0].Code)

	cat, err = m.LookupCategory("residuos")
	require.NoError(t, err)
	assert.Equal(t, "residuos", cat.Name)
	assert.Equal(t, "20.920/2016", cat.References[0].Code)
}

func TestLookupCategoryAliases(t *testing.T) {
	m := loadTestMapper(t)

	for alias, want := range map[string]string{
		"basura":            "residuos",
		"uso del suelo":     "suelo",
		"recursos hídricos": "agua",
		"cobre":             "mineria",
		"acuicultura":       "pesca",
	} {
		cat, err := m.LookupCategory(alias)
		require.NoError(t, err, alias)
		assert.Equal(t, want, cat.Name, alias)
	}
}

func TestLookupCategoryAccentAndCaseInsensitive(t *testing.T) {
	m := loadTestMapper(t)

	cat, err := m.LookupCategory("  Minería ")
	require.NoError(t, err)
	assert.Equal(t, "mineria", cat.Name)

	cat, err = m.LookupCategory("ENERGÍA")
	require.NoError(t, err)
	assert.Equal(t, "energia", cat.Name)
}

func TestLookupCategoryFuzzyPrefersMostSpecificAlias(t *testing.T) {
	m := loadTestMapper(t)

	// Both "residuos" and "residuos peligrosos" are contained in the phrase;
	// the longer alias must win.
	cat, err := m.LookupCategory("manejo de residuos peligrosos en faena")
	require.NoError(t, err)
	assert.Equal(t, "residuos peligrosos", cat.Name)
}

func TestLookupCategoryUnknownTermSuggests(t *testing.T) {
	m := loadTestMapper(t)

	_, err := m.LookupCategory("xyz123")
	var ncErr *NoCategoryMatchError
	require.ErrorAs(t, err, &ncErr)
	assert.Equal(t, "xyz123", ncErr.Term)
	assert.NotEmpty(t, ncErr.Suggestions)
	assert.Contains(t, ncErr.Suggestions, "agua")
	assert.Contains(t, ncErr.Suggestions, "mineria")
}

func TestLookupCategoryEmptyTerm(t *testing.T) {
	m := loadTestMapper(t)

	_, err := m.LookupCategory("   ")
	var ncErr *NoCategoryMatchError
	assert.ErrorAs(t, err, &ncErr)
}

func TestLookupCategoryDeterministic(t *testing.T) {
	m := loadTestMapper(t)

	first, err := m.LookupCategory("gestión de residuos")
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := m.LookupCategory("gestión de residuos")
		require.NoError(t, err)
		assert.Equal(t, first.Name, again.Name)
	}
}

func TestReferencesSortedByRelevance(t *testing.T) {
	m := loadTestMapper(t)

	cat, err := m.LookupCategory("suelo")
	require.NoError(t, err)
	require.Len(t, cat.References, 2)
	assert.GreaterOrEqual(t, cat.References[0].Relevance, cat.References[1].Relevance)
}
