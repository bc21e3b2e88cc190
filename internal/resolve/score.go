package resolve

import (
	"sort"
	"strings"

	"regcheck/internal/query"
	"regcheck/internal/registry"
)

// Scoring weights. The heuristic is deliberately transparent: a reviewer must
// be able to retrace why a record ranked where it did, and repeated runs over
// the same pool must produce the same ranking.
const (
	ownerContainsWeight = 3.0
	nameContainsWeight  = 1.5
	overlapWeight       = 2.0
	statusBonus         = 0.5
)

// Scored is a candidate record with its relevance against the query.
type Scored struct {
	registry.Record
	Score          float64
	MatchedVariant string
}

// approvedLike reports whether a free-text lifecycle label counts as an
// active/approved state worth the status bonus.
func approvedLike(status string) bool {
	key := query.Normalize(status)
	for _, s := range []string{"aprobado", "vigente", "activo", "favorable"} {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

// Score computes the relevance of rec against q. Each variant is tried; the
// best-scoring one wins and is reported back. Scores are non-negative and
// comparable only within one resolution run.
func Score(rec registry.Record, q query.Query) (float64, string) {
	ownerKey := query.Normalize(rec.Owner)
	nameKey := query.Normalize(rec.Name)
	candTokens := query.TokenSet(rec.Owner + " " + rec.Name)

	best := 0.0
	matched := ""
	for _, v := range q.Variants {
		vKey := query.Normalize(v)
		if vKey == "" {
			continue
		}
		s := 0.0
		if ownerKey != "" && strings.Contains(ownerKey, vKey) {
			s += ownerContainsWeight
		}
		if nameKey != "" && strings.Contains(nameKey, vKey) {
			s += nameContainsWeight
		}
		s += query.OverlapRatio(query.TokenSet(v), candTokens) * overlapWeight

		// Earliest variant wins ties, so the raw query is preferred as the
		// reported match.
		if matched == "" || s > best {
			best = s
			matched = v
		}
	}

	if approvedLike(rec.Status) {
		best += statusBonus
	}
	return best, matched
}

// Rank scores every record and sorts descending. The sort is stable, so ties
// keep discovery order and repeated runs yield identical rankings.
func Rank(records []registry.Record, q query.Query) []Scored {
	out := make([]Scored, 0, len(records))
	for _, rec := range records {
		score, variant := Score(rec, q)
		out = append(out, Scored{Record: rec, Score: score, MatchedVariant: variant})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
