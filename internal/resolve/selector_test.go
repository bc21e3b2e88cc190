package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regcheck/internal/registry"
)

func scored(key string, score float64) Scored {
	return Scored{Record: registry.Record{NaturalKey: key, Name: "Proyecto " + key}, Score: score}
}

func TestSelectSingleConfidentMatch(t *testing.T) {
	q := mustQuery(t, "Candelaria")
	pool := []Scored{scored("A", 5.0), scored("B", 0.5)}

	res, err := Select(q, pool, DefaultRelevanceThreshold)
	require.NoError(t, err)
	require.NotNil(t, res.Resolved)
	assert.Equal(t, "A", res.Resolved.NaturalKey)
	assert.False(t, res.Disambiguation())
	assert.Len(t, res.Pool, 2, "full pool kept for diagnostics")
}

func TestSelectDisambiguationListsOnlyRelevant(t *testing.T) {
	q := mustQuery(t, "Codelco")
	pool := []Scored{scored("A", 5.0), scored("B", 3.5), scored("C", 2.0), scored("D", 0.5)}

	res, err := Select(q, pool, DefaultRelevanceThreshold)
	require.NoError(t, err)
	assert.True(t, res.Disambiguation())
	assert.Nil(t, res.Resolved)
	require.Len(t, res.Ranked, 3)
	assert.Equal(t, "A", res.Ranked[0].NaturalKey)
}

func TestSelectNothingRelevant(t *testing.T) {
	q := mustQuery(t, "Candelaria")
	pool := []Scored{scored("A", 0.5), scored("B", 0.0)}

	_, err := Select(q, pool, DefaultRelevanceThreshold)
	var nrErr *NoRelevantMatchError
	require.ErrorAs(t, err, &nrErr)
	assert.Len(t, nrErr.Candidates, 2, "scored pool travels with the error")
}

func TestSelectThresholdIsExclusive(t *testing.T) {
	q := mustQuery(t, "Candelaria")
	pool := []Scored{scored("A", DefaultRelevanceThreshold)}

	_, err := Select(q, pool, DefaultRelevanceThreshold)
	var nrErr *NoRelevantMatchError
	assert.ErrorAs(t, err, &nrErr, "a score exactly at the threshold is noise")
}
