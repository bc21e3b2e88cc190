package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Labels the registries use for the "next page" control. SEIA renders
// "Siguiente >" literally; the rest cover minor variations seen elsewhere.
var nextLabels = map[string]struct{}{
	"siguiente >": {},
	"siguiente":   {},
	"proxima >":   {},
	"proxima":     {},
	"próxima >":   {},
	"próxima":     {},
	"next":        {},
	">":           {},
}

// Walker follows "next page" links sequentially, extracting records from each
// page. Termination is guaranteed by a page bound and a visited-URL set, even
// against paginators that cycle back to page one.
type Walker struct {
	Client   *http.Client
	MaxPages int
	limiter  *rate.Limiter
	log      *zap.Logger
}

// NewWalker builds a walker capped at maxPages (default 50) pacing follow-up
// requests at one per delay interval.
func NewWalker(client *http.Client, maxPages int, pagesPerSec float64, log *zap.Logger) *Walker {
	if client == nil {
		client = http.DefaultClient
	}
	if maxPages <= 0 {
		maxPages = 50
	}
	if pagesPerSec <= 0 {
		pagesPerSec = 0.5
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Walker{
		Client:   client,
		MaxPages: maxPages,
		limiter:  rate.NewLimiter(rate.Limit(pagesPerSec), 1),
		log:      log,
	}
}

// Walk accumulates extract's output over the current page and every page
// reachable through "next" links. Returns the records and whether the walk
// was cut short by the page bound. Fetch failures on later pages end the walk
// with the records gathered so far.
func (w *Walker) Walk(ctx context.Context, doc *goquery.Document, pageURL string, extract func(doc *goquery.Document, page int) []Record) ([]Record, bool, error) {
	var out []Record
	visited := map[string]struct{}{pageURL: {}}

	for page := 1; ; page++ {
		recs := extract(doc, page)
		for i := range recs {
			recs[i].Page = page
		}
		out = append(out, recs...)

		if page >= w.MaxPages {
			w.log.Warn("pagination stopped at safety bound",
				zap.Int("pages", page), zap.String("url", pageURL))
			return out, true, nil
		}

		nextURL := findNextLink(doc, pageURL)
		if nextURL == "" {
			return out, false, nil
		}
		if _, seen := visited[nextURL]; seen {
			w.log.Warn("cyclic pagination detected, stopping",
				zap.String("url", nextURL))
			return out, false, nil
		}
		visited[nextURL] = struct{}{}

		if err := w.limiter.Wait(ctx); err != nil {
			return out, true, nil
		}

		nextDoc, err := w.fetchPage(ctx, nextURL)
		if err != nil {
			w.log.Warn("next page fetch failed, keeping partial results",
				zap.String("url", nextURL), zap.Error(err))
			return out, true, nil
		}
		doc = nextDoc
		pageURL = nextURL
	}
}

func (w *Walker) fetchPage(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// findNextLink returns the absolute URL of the next-page control, or "" when
// the last page is reached.
func findNextLink(doc *goquery.Document, pageURL string) string {
	base, _ := url.Parse(pageURL)
	next := ""
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		label := strings.ToLower(strings.TrimSpace(a.Text()))
		label = strings.Join(strings.Fields(label), " ")
		if _, ok := nextLabels[label]; !ok {
			return true
		}
		href, _ := a.Attr("href")
		next = resolveHref(base, href)
		return next == ""
	})
	return next
}
