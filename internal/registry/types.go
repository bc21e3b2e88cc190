package registry

import (
	"context"
	"time"
)

// Record is one entity extracted from a registry result table. Immutable once
// produced by the extractor; provenance fields are stamped by the walker
// (Page) and the resolution chain (Source, Variant).
type Record struct {
	NaturalKey string            `json:"natural_key"`
	Name       string            `json:"name"`
	Owner      string            `json:"owner"`
	Type       string            `json:"type"`
	Status     string            `json:"status"`
	Region     string            `json:"region"`
	Submitted  *time.Time        `json:"submitted,omitempty"`
	DetailLink string            `json:"detail_link,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`

	Source  string `json:"source"`
	Variant string `json:"variant"`
	Page    int    `json:"page"`
}

// SearchResult is one source's answer for one query variant.
type SearchResult struct {
	Records []Record
	// Truncated is set when pagination stopped at the safety bound and the
	// records are a valid but partial set.
	Truncated bool
}

// Source searches one external registry for records matching a name variant.
// Implementations must treat zero results as a valid empty SearchResult, not
// an error.
type Source interface {
	Name() string
	Search(ctx context.Context, variant string) (SearchResult, error)
}
