package resolve

import (
	"fmt"
	"strings"

	"regcheck/internal/query"
)

// ErrInvalidQuery re-exports the query package sentinel so callers can match
// the whole taxonomy against this package.
var ErrInvalidQuery = query.ErrInvalidQuery

// NoCandidatesError: the entire fallback chain came up empty. Carries the
// variants that were attempted, for caller diagnostics.
type NoCandidatesError struct {
	Variants []string
}

func (e *NoCandidatesError) Error() string {
	return fmt.Sprintf("no candidates found (variants tried: %s)",
		strings.Join(e.Variants, ", "))
}

// NoRelevantMatchError: candidates exist but none scored above the relevance
// threshold. The raw scored pool stays available for inspection.
type NoRelevantMatchError struct {
	Candidates []Scored
}

func (e *NoRelevantMatchError) Error() string {
	return fmt.Sprintf("no candidate above relevance threshold (%d scored)",
		len(e.Candidates))
}

// NotSelectableError: a follow-up selection referenced a natural key absent
// from the re-resolved candidate pool.
type NotSelectableError struct {
	NaturalKey string
}

func (e *NotSelectableError) Error() string {
	return fmt.Sprintf("no candidate with natural key %q", e.NaturalKey)
}
