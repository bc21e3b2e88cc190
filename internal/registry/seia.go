package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 regcheck/0.1"

// SEIA result pages announce the hit count above the table; parsing it lets
// us skip table hunting on empty result sets.
var reFoundCount = regexp.MustCompile(`Proyectos encontrados:\s*([\d.,]+)`)

// SEIA searches the environmental assessment registry by titular name. The
// search form is POSTed; result tables paginate through "Siguiente >" links.
type SEIA struct {
	BaseURL    string
	SearchPath string
	Client     *http.Client
	extractor  *Extractor
	walker     *Walker
	log        *zap.Logger
}

func NewSEIA(baseURL string, client *http.Client, walker *Walker, log *zap.Logger) *SEIA {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SEIA{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		SearchPath: "/busqueda/buscarProyectoAction.php",
		Client:     client,
		extractor:  NewExtractor(log),
		walker:     walker,
		log:        log,
	}
}

func (s *SEIA) Name() string { return "seia" }

func (s *SEIA) Search(ctx context.Context, variant string) (SearchResult, error) {
	searchURL := s.BaseURL + s.SearchPath

	form := url.Values{
		"nombre_empresa_o_titular": {variant},
		"submit_buscar":            {"Buscar"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, searchURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return SearchResult{}, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept-Language", "es-ES,es;q=0.8")

	resp, err := s.Client.Do(req)
	if err != nil {
		return SearchResult{}, fmt.Errorf("seia search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return SearchResult{}, fmt.Errorf("seia search: http %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return SearchResult{}, fmt.Errorf("seia search: %w", err)
	}

	if n, ok := announcedCount(doc); ok && n == 0 {
		return SearchResult{}, nil
	}

	if s.extractor.FindResultsTable(doc) == nil {
		return SearchResult{}, nil
	}

	records, truncated, err := s.walker.Walk(ctx, doc, searchURL, func(page *goquery.Document, _ int) []Record {
		tbl := s.extractor.FindResultsTable(page)
		if tbl == nil {
			return nil
		}
		return s.extractor.Extract(tbl, s.BaseURL)
	})
	if err != nil {
		return SearchResult{}, err
	}

	s.log.Debug("seia search done",
		zap.String("variant", variant),
		zap.Int("records", len(records)),
		zap.Bool("truncated", truncated))
	return SearchResult{Records: records, Truncated: truncated}, nil
}

func announcedCount(doc *goquery.Document) (int, bool) {
	m := reFoundCount.FindStringSubmatch(doc.Text())
	if m == nil {
		return 0, false
	}
	digits := strings.NewReplacer(".", "", ",", "").Replace(m[1])
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}
