package resolve

import "regcheck/internal/query"

// DefaultRelevanceThreshold separates plausible matches from noise rows that
// merely share a common word with the query.
const DefaultRelevanceThreshold = 1.0

// Result is the terminal output of a resolution run. Exactly one of the two
// shapes holds: Resolved set (single confident match) or Resolved nil with
// len(Ranked) > 1 (disambiguation for the caller to settle).
type Result struct {
	Query    query.Query
	Resolved *Scored
	Ranked   []Scored
	// Pool is the full scored candidate set, kept for diagnostics and report
	// export.
	Pool []Scored
	// Truncated marks that at least one source stopped paginating at the
	// safety bound, so the pool may be incomplete.
	Truncated bool
}

// Disambiguation reports whether the caller must pick between candidates.
func (r *Result) Disambiguation() bool {
	return r.Resolved == nil
}

// Select applies the decision rule to a pool sorted descending by score.
func Select(q query.Query, pool []Scored, threshold float64) (*Result, error) {
	if threshold <= 0 {
		threshold = DefaultRelevanceThreshold
	}

	var relevant []Scored
	for _, c := range pool {
		if c.Score > threshold {
			relevant = append(relevant, c)
		}
	}

	switch len(relevant) {
	case 0:
		return nil, &NoRelevantMatchError{Candidates: pool}
	case 1:
		return &Result{Query: q, Resolved: &relevant[0], Ranked: relevant, Pool: pool}, nil
	default:
		return &Result{Query: q, Ranked: relevant, Pool: pool}, nil
	}
}
