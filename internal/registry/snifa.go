package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// SNIFA searches the enforcement registry for sanction proceedings against a
// company. Results come back on a single GET with the same header-labeled
// table shape as SEIA (Expediente, Nombre Infractor, Categoría, Unidad
// Fiscalizable, Estado).
type SNIFA struct {
	BaseURL    string
	SearchPath string
	Client     *http.Client
	extractor  *Extractor
	walker     *Walker
	log        *zap.Logger
}

func NewSNIFA(baseURL string, client *http.Client, walker *Walker, log *zap.Logger) *SNIFA {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SNIFA{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		SearchPath: "/Busqueda/Busqueda",
		Client:     client,
		extractor:  NewExtractor(log),
		walker:     walker,
		log:        log,
	}
}

func (s *SNIFA) Name() string { return "snifa" }

func (s *SNIFA) Search(ctx context.Context, variant string) (SearchResult, error) {
	searchURL := fmt.Sprintf("%s%s?%s", s.BaseURL, s.SearchPath,
		url.Values{"q": {variant}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return SearchResult{}, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "es-ES,es;q=0.8")

	resp, err := s.Client.Do(req)
	if err != nil {
		return SearchResult{}, fmt.Errorf("snifa search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return SearchResult{}, fmt.Errorf("snifa search: http %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return SearchResult{}, fmt.Errorf("snifa search: %w", err)
	}

	tbl := s.extractor.FindResultsTable(doc)
	if tbl == nil {
		return SearchResult{}, nil
	}

	records, truncated, err := s.walker.Walk(ctx, doc, searchURL, func(page *goquery.Document, _ int) []Record {
		t := s.extractor.FindResultsTable(page)
		if t == nil {
			return nil
		}
		recs := s.extractor.Extract(t, s.BaseURL)
		// Sanction tables name the infractor but not always a project; keep
		// the owner as the display name when the table has no name column of
		// its own.
		for i := range recs {
			if recs[i].Owner == "" {
				recs[i].Owner = recs[i].Name
			}
		}
		return recs
	})
	if err != nil {
		return SearchResult{}, err
	}

	s.log.Debug("snifa search done",
		zap.String("variant", variant),
		zap.Int("records", len(records)),
		zap.Bool("truncated", truncated))
	return SearchResult{Records: records, Truncated: truncated}, nil
}
