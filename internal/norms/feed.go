package norms

import (
	"context"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"regcheck/internal/query"
)

// DefaultFeedLimit caps how many live references a single lookup returns.
const DefaultFeedLimit = 10

// Feed pulls recently published norms from RSS feeds and filters them locally
// by keyword; the feeds themselves are not queryable.
type Feed struct {
	Client *http.Client
	Feeds  []string
	log    *zap.Logger
}

func NewFeed(feeds []string, log *zap.Logger) *Feed {
	if log == nil {
		log = zap.NewNop()
	}
	return &Feed{
		Client: &http.Client{Timeout: 15 * time.Second},
		Feeds:  feeds,
		log:    log,
	}
}

// Search scans the configured feeds for items whose title mentions the term,
// best references first. An unreachable or malformed feed is skipped, not
// fatal.
func (f *Feed) Search(ctx context.Context, term string, limit int) ([]Reference, error) {
	keywords := query.Tokens(term)
	if len(keywords) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultFeedLimit
	}

	parser := gofeed.NewParser()
	var out []Reference

	for _, feedURL := range f.Feeds {
		req, err := http.NewRequestWithContext(ctx, "GET", feedURL, nil)
		if err != nil {
			continue
		}
		resp, err := f.Client.Do(req)
		if err != nil {
			f.log.Warn("norms feed unreachable",
				zap.String("feed", feedURL), zap.Error(err))
			continue
		}
		feed, err := parser.Parse(resp.Body)
		resp.Body.Close()
		if err != nil {
			f.log.Warn("norms feed unparseable",
				zap.String("feed", feedURL), zap.Error(err))
			continue
		}

		for _, it := range feed.Items {
			title := strings.TrimSpace(it.Title)
			if !matchesAnyKeyword(query.Normalize(title), keywords) {
				continue
			}
			out = append(out, Reference{
				Title:     title,
				Code:      extractNormCode(title),
				Kind:      classifyKind(title),
				URI:       strings.TrimSpace(it.Link),
				Relevance: feedRelevance(title, it.Description),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Relevance > out[j].Relevance
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func matchesAnyKeyword(normalizedTitle string, keywords []string) bool {
	for _, k := range keywords {
		if len(k) < 3 {
			continue
		}
		if strings.Contains(normalizedTitle, k) {
			return true
		}
	}
	return false
}

var normCodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ley\s+n?°?\s*(\d+[\.\-/]?\d*)`),
	regexp.MustCompile(`(?i)decreto\s+n?°?\s*(\d+[\.\-/]?\d*)`),
	regexp.MustCompile(`(?i)n°\s*(\d+[\.\-/]?\d*)`),
	regexp.MustCompile(`(\d+[\.\-/]\d+)`),
}

// extractNormCode pulls the law or decree number out of a title, e.g.
// "Ley N° 19.300" yields "19.300".
func extractNormCode(title string) string {
	for _, p := range normCodePatterns {
		if m := p.FindStringSubmatch(title); m != nil {
			return m[1]
		}
	}
	return ""
}

var kindLabels = []struct{ token, kind string }{
	{"ley", "Ley"},
	{"decreto", "Decreto"},
	{"reglamento", "Reglamento"},
	{"codigo", "Código"},
	{"resolucion", "Resolución"},
	{"circular", "Circular"},
}

func classifyKind(title string) string {
	key := query.Normalize(title)
	for _, k := range kindLabels {
		if strings.Contains(key, k.token) {
			return k.kind
		}
	}
	return "Norma"
}

// Environmental and sector keywords that make a norm worth surfacing first.
var relevanceKeywords = []string{
	"ambiental", "medio ambiente", "evaluacion", "impacto",
	"seia", "rca", "dia", "eia", "superintendencia",
	"sma", "sea", "mineria", "forestal",
}

func feedRelevance(title, description string) float64 {
	text := query.Normalize(title + " " + description)
	score := 0.0
	for _, k := range relevanceKeywords {
		if strings.Contains(text, k) {
			score += 1.0
		}
	}
	if len(title) > 50 {
		score += 0.5
	}
	if score > 5.0 {
		score = 5.0
	}
	return score
}

// Lookup answers norm queries from the live feed first and falls back to the
// static category mapper. The mapper is mandatory; the feed is optional and
// its failures are absorbed.
type Lookup struct {
	feed   *Feed
	mapper *Mapper
	limit  int
	log    *zap.Logger
}

func NewLookup(feed *Feed, mapper *Mapper, limit int, log *zap.Logger) *Lookup {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Lookup{feed: feed, mapper: mapper, limit: limit, log: log}
}

// Lookup resolves a term to a category. Live feed references take the
// category name from the term itself; when the feed yields nothing the static
// dataset decides, and its error taxonomy passes through.
func (l *Lookup) Lookup(ctx context.Context, term string) (*Category, error) {
	if l.feed != nil {
		refs, err := l.feed.Search(ctx, term, l.limit)
		if err != nil {
			l.log.Warn("live norms search failed, using static dataset",
				zap.String("term", term), zap.Error(err))
		} else if len(refs) > 0 {
			return &Category{Name: strings.TrimSpace(term), References: refs}, nil
		}
	}
	return l.mapper.LookupCategory(term)
}
