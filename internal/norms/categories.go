package norms

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"regcheck/internal/query"
)

// Reference is one normative act: a law, decree or regulation a category maps
// to.
type Reference struct {
	Title     string  `json:"title"`
	Code      string  `json:"code"`
	Kind      string  `json:"kind"`
	URI       string  `json:"uri"`
	Relevance float64 `json:"relevance"`
}

// Category groups the references that regulate one subject area.
type Category struct {
	Name       string
	References []Reference
}

// NoCategoryMatchError: the term maps to no known category. Suggestions carry
// the full category vocabulary so the caller can offer alternatives.
type NoCategoryMatchError struct {
	Term        string
	Suggestions []string
}

func (e *NoCategoryMatchError) Error() string {
	return fmt.Sprintf("no normative category for %q (known: %s)",
		e.Term, strings.Join(e.Suggestions, ", "))
}

type datasetEntry struct {
	Aliases    []string    `json:"aliases"`
	References []Reference `json:"references"`
}

// Mapper answers category lookups from a static alias dataset. Read-only
// after construction, no network access; it is the terminal fallback of the
// norms lookup and must always be able to answer.
type Mapper struct {
	byAlias map[string]*Category
	names   []string
}

// LoadMapper reads the category dataset from a JSON file.
func LoadMapper(path string) (*Mapper, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("load category dataset: %w", err)
	}
	return parseMapper(data)
}

func parseMapper(data []byte) (*Mapper, error) {
	raw := map[string]datasetEntry{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse category dataset: %w", err)
	}

	m := &Mapper{byAlias: map[string]*Category{}}
	for name, e := range raw {
		cat := &Category{Name: name, References: e.References}
		sort.SliceStable(cat.References, func(i, j int) bool {
			return cat.References[i].Relevance > cat.References[j].Relevance
		})

		m.byAlias[query.Normalize(name)] = cat
		for _, a := range e.Aliases {
			key := query.Normalize(a)
			if key == "" {
				continue
			}
			m.byAlias[key] = cat
		}
		m.names = append(m.names, name)
	}
	sort.Strings(m.names)
	return m, nil
}

// Categories lists the known category names, sorted.
func (m *Mapper) Categories() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// LookupCategory maps a free-text term to its normative category. Exact alias
// match first, accent and case insensitive; otherwise the most specific alias
// fully contained in the term wins. Unknown terms get NoCategoryMatchError
// with the category vocabulary as suggestions.
func (m *Mapper) LookupCategory(term string) (*Category, error) {
	key := query.Normalize(term)
	if key == "" {
		return nil, &NoCategoryMatchError{Term: term, Suggestions: m.Categories()}
	}

	if cat, ok := m.byAlias[key]; ok {
		return cat, nil
	}

	if cat := m.fuzzyLookup(key); cat != nil {
		return cat, nil
	}
	return nil, &NoCategoryMatchError{Term: term, Suggestions: m.Categories()}
}

// fuzzyLookup finds the alias whose tokens are all present in the term,
// preferring the alias with the most tokens so that "manejo de residuos
// peligrosos" lands on the hazardous-waste category, not the general one.
// Alias order never decides: ties break on the alias string.
func (m *Mapper) fuzzyLookup(normalizedTerm string) *Category {
	termTokens := query.TokenSet(normalizedTerm)
	if len(termTokens) == 0 {
		return nil
	}

	var best *Category
	bestTokens := 0
	bestAlias := ""
	for alias, cat := range m.byAlias {
		aliasTokens := query.Tokens(alias)
		if !allPresent(aliasTokens, termTokens) {
			continue
		}
		if len(aliasTokens) > bestTokens ||
			(len(aliasTokens) == bestTokens && alias < bestAlias) {
			best = cat
			bestTokens = len(aliasTokens)
			bestAlias = alias
		}
	}
	return best
}

func allPresent(tokens []string, set map[string]struct{}) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, t := range tokens {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}
