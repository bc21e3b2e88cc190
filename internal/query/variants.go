package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidQuery is returned for empty or whitespace-only input. It is never
// retried.
var ErrInvalidQuery = errors.New("empty or invalid query")

// Query is one resolution request: the raw text plus the spelled-out variants
// tried against the registries, raw text always first.
type Query struct {
	Raw      string
	Variants []string
}

// Registry search forms match titular names literally, so a query like
// "Candelaria" misses records filed under the full legal name. The synonym
// table carries the well-known corporate spellings; longest key wins when
// several match.
var synonyms = map[string][]string{
	"candelaria": {
		"Minera Candelaria",
		"Compañía Minera Candelaria",
		"Compañía Contractual Minera Candelaria",
		"Contractual Minera Candelaria",
		"Lundin Mining",
	},
	"codelco": {
		"Codelco",
		"Corporación Nacional del Cobre",
		"Codelco Chile",
	},
	"escondida": {
		"Minera Escondida",
		"Compañía Minera Escondida",
		"BHP Escondida",
		"BHP Billiton",
	},
	"pelambres": {
		"Minera Los Pelambres",
		"Compañía Minera Los Pelambres",
		"Antofagasta Minerals",
	},
	"antofagasta": {
		"Antofagasta Minerals",
		"Antofagasta PLC",
		"Minera Antofagasta",
	},
	"bhp": {
		"BHP",
		"BHP Billiton",
		"BHP Chile",
	},
}

// synonymKeys holds the table keys longest-first so that e.g. a hypothetical
// "minera candelaria" key would beat "candelaria".
var synonymKeys = func() []string {
	keys := make([]string, 0, len(synonyms))
	for k := range synonyms {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) == len(keys[j]) {
			return keys[i] < keys[j]
		}
		return len(keys[i]) > len(keys[j])
	})
	return keys
}()

// entityTokens are legal-entity-type words; when the raw query already carries
// one, the generic prefixed forms are skipped.
var entityTokens = []string{
	"minera", "compania", "empresa", "corporacion", "sociedad", "holding",
}

// New validates raw input and expands it into search variants. Deterministic
// for identical input; no network access.
func New(raw string) (Query, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Query{}, ErrInvalidQuery
	}

	variants := []string{raw}
	key := Normalize(raw)

	for _, k := range synonymKeys {
		if strings.Contains(key, k) {
			variants = append(variants, synonyms[k]...)
			break
		}
	}

	if !containsEntityToken(key) {
		variants = append(variants,
			fmt.Sprintf("Minera %s", raw),
			fmt.Sprintf("Compañía Minera %s", raw),
			fmt.Sprintf("Empresa %s", raw),
		)
	}

	return Query{Raw: raw, Variants: dedupe(variants)}, nil
}

func containsEntityToken(normalized string) bool {
	for _, tok := range Tokens(normalized) {
		for _, e := range entityTokens {
			if tok == e {
				return true
			}
		}
	}
	return false
}

// dedupe removes duplicates by normalized key, keeping first occurrence order.
func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		k := Normalize(v)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}
