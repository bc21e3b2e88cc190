package registry

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"regcheck/internal/query"
)

// Semantic fields recognized in result-table headers.
const (
	fieldName       = "name"
	fieldOwner      = "owner"
	fieldType       = "type"
	fieldRegion     = "region"
	fieldStatus     = "status"
	fieldDate       = "date"
	fieldInvestment = "investment"
	fieldCode       = "code"
)

// headerVocab maps normalized header substrings to semantic fields. Matching
// is order-sensitive: "tipolog" must be tried before "tipo", "infractor"
// before "nombre" (SNIFA labels the owner column "Nombre Infractor").
var headerVocab = []struct {
	match string
	field string
}{
	{"expediente", fieldCode},
	{"codigo", fieldCode},
	{"infractor", fieldOwner},
	{"titular", fieldOwner},
	{"razon social", fieldOwner},
	{"nombre", fieldName},
	{"proyecto", fieldName},
	{"unidad fiscalizable", fieldName},
	{"tipolog", fieldType},
	{"categoria", fieldType},
	{"tipo", fieldType},
	{"region", fieldRegion},
	{"estado", fieldStatus},
	{"fecha", fieldDate},
	{"inversion", fieldInvestment},
}

// minNameLen rejects navigation artifacts and stray one-word rows that the
// registries render inside the results table.
const minNameLen = 4

// Extractor turns header-labeled tabular markup into Records. Column order is
// irrelevant; unmapped columns survive in Extra under their original header.
type Extractor struct {
	log *zap.Logger
}

func NewExtractor(log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{log: log}
}

// FindResultsTable locates the table whose header row maps a name column.
// Registry pages carry layout tables around the data table, so the first
// <table> is not trustworthy.
func (e *Extractor) FindResultsTable(doc *goquery.Document) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, tbl *goquery.Selection) bool {
		cols, _ := mapHeader(tbl)
		if _, ok := cols[fieldName]; ok {
			found = tbl
			return false
		}
		return true
	})
	return found
}

// Extract emits one Record per acceptable data row of tbl. Rows missing a
// usable name, or failing any per-cell parse, are logged and skipped; a
// malformed row never aborts the pass. Natural keys are unique within one
// call.
func (e *Extractor) Extract(tbl *goquery.Selection, baseURL string) []Record {
	cols, headers := mapHeader(tbl)
	if len(cols) == 0 {
		return nil
	}

	base, _ := url.Parse(baseURL)
	seen := map[string]struct{}{}
	var out []Record

	tbl.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header
		}
		rec, ok := e.extractRow(row, cols, headers, base)
		if !ok {
			return
		}
		if _, dup := seen[rec.NaturalKey]; dup {
			e.log.Debug("duplicate natural key in table, skipping row",
				zap.String("key", rec.NaturalKey))
			return
		}
		seen[rec.NaturalKey] = struct{}{}
		out = append(out, rec)
	})
	return out
}

func (e *Extractor) extractRow(row *goquery.Selection, cols map[string]int, headers []string, base *url.URL) (Record, bool) {
	cells := row.Find("td, th")
	if cells.Length() == 0 {
		return Record{}, false
	}

	cell := func(idx int) string {
		if idx < 0 || idx >= cells.Length() {
			return ""
		}
		return strings.TrimSpace(cells.Eq(idx).Text())
	}

	nameIdx, ok := cols[fieldName]
	if !ok {
		return Record{}, false
	}

	rec := Record{Extra: map[string]string{}}
	rec.Name = cell(nameIdx)
	if len(rec.Name) < minNameLen {
		e.log.Debug("row rejected: name too short", zap.String("name", rec.Name))
		return Record{}, false
	}
	if idx, ok := cols[fieldOwner]; ok {
		rec.Owner = cell(idx)
	}
	if idx, ok := cols[fieldType]; ok {
		rec.Type = cell(idx)
	}
	if idx, ok := cols[fieldRegion]; ok {
		rec.Region = cell(idx)
	}
	if idx, ok := cols[fieldStatus]; ok {
		rec.Status = cell(idx)
	}
	if idx, ok := cols[fieldDate]; ok {
		if t, err := time.Parse("02/01/2006", cell(idx)); err == nil {
			rec.Submitted = &t
		}
	}
	if idx, ok := cols[fieldInvestment]; ok {
		if v := cell(idx); v != "" {
			rec.Extra["inversion"] = v
		}
	}

	// The detail link hangs off the name cell.
	if href, exists := cells.Eq(nameIdx).Find("a[href]").First().Attr("href"); exists {
		rec.DetailLink = resolveHref(base, href)
	}

	// Unmapped columns are preserved under their original header text.
	mapped := map[int]struct{}{}
	for _, idx := range cols {
		mapped[idx] = struct{}{}
	}
	for idx, header := range headers {
		if _, ok := mapped[idx]; ok {
			continue
		}
		if v := cell(idx); v != "" && header != "" {
			rec.Extra[header] = v
		}
	}

	code := ""
	if idx, ok := cols[fieldCode]; ok {
		code = cell(idx)
	}
	switch {
	case code != "":
		rec.NaturalKey = code
	case rec.DetailLink != "":
		rec.NaturalKey = rec.DetailLink
	default:
		rec.NaturalKey = strings.ReplaceAll(query.Normalize(rec.Name), " ", "-")
	}
	if rec.NaturalKey == "" {
		return Record{}, false
	}
	return rec, true
}

// mapHeader builds the semantic-field → column-index map from the first row.
// First matching column wins per field. The raw header texts come back too,
// for preserving unmapped columns.
func mapHeader(tbl *goquery.Selection) (map[string]int, []string) {
	cols := map[string]int{}
	var headers []string

	header := tbl.Find("tr").First()
	header.Find("th, td").Each(func(i int, cell *goquery.Selection) {
		text := strings.TrimSpace(cell.Text())
		headers = append(headers, text)
		key := query.Normalize(text)
		if key == "" {
			return
		}
		for _, v := range headerVocab {
			if strings.Contains(key, v.match) {
				if _, taken := cols[v.field]; !taken {
					cols[v.field] = i
				}
				return
			}
		}
	})
	return cols, headers
}

func resolveHref(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
