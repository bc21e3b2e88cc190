package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageHTML(names []string, nextHref string) string {
	rows := ""
	for i, n := range names {
		rows += fmt.Sprintf("<tr><td>%s</td><td>K-%s-%d</td></tr>", n, n, i)
	}
	next := ""
	if nextHref != "" {
		next = fmt.Sprintf(`<a href="%s">Siguiente &gt;</a>`, nextHref)
	}
	return fmt.Sprintf(`<html><body>
<table><tr><th>Nombre</th><th>Código</th></tr>%s</table>
%s</body></html>`, rows, next)
}

func newTestWalker(client *http.Client, maxPages int) *Walker {
	// High page rate keeps tests fast; production pacing comes from config.
	return NewWalker(client, maxPages, 10000, nil)
}

func walkAll(t *testing.T, w *Walker, firstPage, firstURL string) ([]Record, bool) {
	t.Helper()
	ex := NewExtractor(nil)
	doc := docFrom(t, firstPage)
	recs, truncated, err := w.Walk(context.Background(), doc, firstURL, func(d *goquery.Document, _ int) []Record {
		tbl := ex.FindResultsTable(d)
		if tbl == nil {
			return nil
		}
		return ex.Extract(tbl, firstURL)
	})
	require.NoError(t, err)
	return recs, truncated
}

func TestWalkFollowsNextLinks(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/p2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pageHTML([]string{"Proyecto Dos Grande"}, "/p3"))
	})
	mux.HandleFunc("/p3", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pageHTML([]string{"Proyecto Tres Grande"}, ""))
	})

	first := pageHTML([]string{"Proyecto Uno Grande"}, srv.URL+"/p2")
	recs, truncated := walkAll(t, newTestWalker(srv.Client(), 50), first, srv.URL+"/p1")

	require.Len(t, recs, 3)
	assert.False(t, truncated)
	assert.Equal(t, 1, recs[0].Page)
	assert.Equal(t, 2, recs[1].Page)
	assert.Equal(t, 3, recs[2].Page)
}

func TestWalkTerminatesOnCyclicPagination(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	// p1 -> p2 -> p1: the walker must notice the revisit and stop.
	mux.HandleFunc("/p1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pageHTML([]string{"Proyecto Uno Grande"}, "/p2"))
	})
	mux.HandleFunc("/p2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pageHTML([]string{"Proyecto Dos Grande"}, "/p1"))
	})

	first := pageHTML([]string{"Proyecto Uno Grande"}, srv.URL+"/p2")
	recs, _ := walkAll(t, newTestWalker(srv.Client(), 50), first, srv.URL+"/p1")
	require.Len(t, recs, 2)
}

func TestWalkStopsAtSafetyBound(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	// Endless pagination: every page links to a fresh one.
	page := 0
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		page++
		fmt.Fprint(w, pageHTML([]string{fmt.Sprintf("Proyecto Numero %d", page)},
			fmt.Sprintf("/p%d", page+1)))
	})

	first := pageHTML([]string{"Proyecto Cero Grande"}, srv.URL+"/p1")
	recs, truncated := walkAll(t, newTestWalker(srv.Client(), 5), first, srv.URL+"/p0")

	assert.True(t, truncated, "hitting the bound flags partial results")
	assert.Len(t, recs, 5)
}

func TestWalkKeepsPartialResultsOnFetchFailure(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/p2", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	first := pageHTML([]string{"Proyecto Uno Grande"}, srv.URL+"/p2")
	recs, truncated := walkAll(t, newTestWalker(srv.Client(), 50), first, srv.URL+"/p1")

	require.Len(t, recs, 1)
	assert.True(t, truncated)
}

func TestFindNextLinkIgnoresUnrelatedAnchors(t *testing.T) {
	html := `<html><body>
<a href="/help">Ayuda</a>
<a href="/next-page">Siguiente &gt;</a>
</body></html>`
	doc := docFrom(t, html)
	assert.Equal(t, "https://x.example/next-page", findNextLink(doc, "https://x.example/p1"))

	noNext := docFrom(t, `<html><body><a href="/help">Ayuda</a></body></html>`)
	assert.Equal(t, "", findNextLink(noNext, "https://x.example/p1"))
}
