package registry

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"regcheck/internal/query"
)

var (
	reRUT   = regexp.MustCompile(`(?i)RUT[:\s]*(\d{1,2}\.?\d{3}\.?\d{3}[-.]?[\dkK])`)
	reEmail = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
)

// detailFields maps key/value labels found on expediente pages to the Extra
// keys we keep. Labels are matched by normalized substring.
var detailFields = []struct {
	match string
	key   string
}{
	{"razon social", "razon_social"},
	{"rut", "rut"},
	{"direccion", "direccion_titular"},
	{"telefono", "telefono"},
	{"email", "email"},
	{"comuna", "comuna"},
	{"provincia", "provincia"},
	{"ubicacion", "ubicacion"},
}

// DetailFetcher enriches a selected record from its expediente page, which
// lays out titular and location data as two-column key/value tables.
type DetailFetcher struct {
	Client *http.Client
	log    *zap.Logger
}

func NewDetailFetcher(client *http.Client, log *zap.Logger) *DetailFetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DetailFetcher{Client: client, log: log}
}

// Enrich returns a copy of rec with Extra populated from the detail page.
// A missing link or any fetch failure leaves the record as-is: detail data is
// best-effort.
func (d *DetailFetcher) Enrich(ctx context.Context, rec Record) (Record, error) {
	if rec.DetailLink == "" {
		return rec, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rec.DetailLink, nil)
	if err != nil {
		return rec, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.Client.Do(req)
	if err != nil {
		d.log.Warn("detail fetch failed", zap.String("url", rec.DetailLink), zap.Error(err))
		return rec, fmt.Errorf("detail fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return rec, fmt.Errorf("detail fetch: http %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return rec, fmt.Errorf("detail fetch: %w", err)
	}

	out := rec
	out.Extra = map[string]string{}
	for k, v := range rec.Extra {
		out.Extra[k] = v
	}

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return
		}
		label := query.Normalize(cells.Eq(0).Text())
		value := strings.TrimSpace(cells.Eq(1).Text())
		if label == "" || len(value) < 2 {
			return
		}
		for _, f := range detailFields {
			if strings.Contains(label, f.match) {
				if _, taken := out.Extra[f.key]; !taken {
					out.Extra[f.key] = value
				}
				return
			}
		}
	})

	// Regex sweep over the page text for fields the tables missed.
	text := doc.Text()
	if _, ok := out.Extra["rut"]; !ok {
		if m := reRUT.FindStringSubmatch(text); m != nil {
			out.Extra["rut"] = m[1]
		}
	}
	if _, ok := out.Extra["email"]; !ok {
		if m := reEmail.FindString(text); m != "" {
			out.Extra["email"] = m
		}
	}

	// Sanction rows often carry no titular; the detail page's razón social
	// fills the gap so the persisted record is complete.
	if out.Owner == "" {
		out.Owner = out.Extra["razon_social"]
	}

	return out, nil
}
