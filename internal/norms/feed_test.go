package norms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const normsRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Normas Recientes</title>
    <item>
      <title>Ley N° 21.600 crea el Servicio de Biodiversidad y Áreas Protegidas</title>
      <link>https://example.test/norma/21600</link>
      <description>Institucionalidad ambiental</description>
    </item>
    <item>
      <title>Decreto 44 aprueba Reglamento del SEIA</title>
      <link>https://example.test/norma/44</link>
      <description>Evaluación de impacto ambiental</description>
    </item>
    <item>
      <title>Circular interpretativa sobre feriados irrenunciables</title>
      <link>https://example.test/norma/feriados</link>
    </item>
  </channel>
</rss>`

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(normsRSS))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFeedSearchFiltersByKeyword(t *testing.T) {
	srv := newFeedServer(t)
	feed := NewFeed([]string{srv.URL}, nil)

	refs, err := feed.Search(context.Background(), "reglamento SEIA", 10)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "Decreto", refs[0].Kind)
	assert.Equal(t, "44", refs[0].Code)
	assert.Equal(t, "https://example.test/norma/44", refs[0].URI)
}

func TestFeedSearchRanksByRelevance(t *testing.T) {
	srv := newFeedServer(t)
	feed := NewFeed([]string{srv.URL}, nil)

	// Both norm items mention the keyword family; the SEIA decree carries
	// more environmental markers and must rank first.
	refs, err := feed.Search(context.Background(), "ambiental biodiversidad seia", 10)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "Decreto 44 aprueba Reglamento del SEIA", refs[0].Title)
}

func TestFeedSearchSkipsDeadFeeds(t *testing.T) {
	srv := newFeedServer(t)
	feed := NewFeed([]string{"http://127.0.0.1:1/rss", srv.URL}, nil)

	refs, err := feed.Search(context.Background(), "seia", 10)
	require.NoError(t, err, "a dead feed is skipped, not fatal")
	assert.NotEmpty(t, refs)
}

func TestExtractNormCode(t *testing.T) {
	for title, want := range map[string]string{
		"Ley N° 19.300 sobre Bases Generales del Medio Ambiente": "19.300",
		"Decreto 40 Reglamento del SEIA":                         "40",
		"Resolución Exenta N° 1.518":                             "1.518",
		"Modifica el DS 148/2003":                                "148/2003",
		"Circular sin numeración":                                "",
	} {
		assert.Equal(t, want, extractNormCode(title), title)
	}
}

func TestClassifyKind(t *testing.T) {
	for title, want := range map[string]string{
		"Ley 20.920 marco de residuos":      "Ley",
		"Decreto Supremo 148":               "Decreto",
		"Reglamento sanitario":              "Reglamento",
		"Código de Aguas":                   "Código",
		"Resolución de calificación":        "Resolución",
		"Instructivo general de la materia": "Norma",
	} {
		assert.Equal(t, want, classifyKind(title), title)
	}
}

func TestLookupPrefersLiveFeed(t *testing.T) {
	srv := newFeedServer(t)
	lookup := NewLookup(NewFeed([]string{srv.URL}, nil), loadTestMapper(t), 10, nil)

	cat, err := lookup.Lookup(context.Background(), "biodiversidad")
	require.NoError(t, err)
	assert.Equal(t, "biodiversidad", cat.Name)
	require.Len(t, cat.References, 1)
	assert.Equal(t, "21.600", cat.References[0].Code)
}

func TestLookupFallsBackToStaticDataset(t *testing.T) {
	// No feed item mentions mining; the static dataset answers.
	srv := newFeedServer(t)
	lookup := NewLookup(NewFeed([]string{srv.URL}, nil), loadTestMapper(t), 10, nil)

	cat, err := lookup.Lookup(context.Background(), "minería")
	require.NoError(t, err)
	assert.Equal(t, "mineria", cat.Name)
	assert.Equal(t, "18.248/1983", cat.References[0].Code)
}

func TestLookupWithoutFeedUsesMapper(t *testing.T) {
	lookup := NewLookup(nil, loadTestMapper(t), 10, nil)

	cat, err := lookup.Lookup(context.Background(), "basura")
	require.NoError(t, err)
	assert.Equal(t, "residuos", cat.Name)

	_, err = lookup.Lookup(context.Background(), "xyz123")
	var ncErr *NoCategoryMatchError
	assert.ErrorAs(t, err, &ncErr)
}
