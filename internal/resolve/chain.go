package resolve

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"regcheck/internal/query"
	"regcheck/internal/registry"
)

// DefaultConcurrency bounds simultaneous variant lookups. Sources are
// external and I/O-bound; pagination inside one source stays sequential.
const DefaultConcurrency = 4

// Chain tries an ordered list of sources per query variant. For one variant
// the source loop stops at the first source yielding records; every variant
// is still tried, because different spellings surface different subsets.
// Source failures are non-fatal: logged, then the next source takes over.
type Chain struct {
	sources     []registry.Source
	concurrency int
	log         *zap.Logger
}

func NewChain(sources []registry.Source, concurrency int, log *zap.Logger) *Chain {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Chain{sources: sources, concurrency: concurrency, log: log}
}

type variantResult struct {
	records   []registry.Record
	truncated bool
}

// Run fans the variants out over a bounded worker pool and aggregates all
// non-empty results into one pool, deduplicated by natural key. Aggregation
// order is variant order then discovery order, independent of fetch timing,
// so downstream scoring is deterministic given the same raw responses.
func (c *Chain) Run(ctx context.Context, q query.Query) ([]registry.Record, bool, error) {
	results := make([]variantResult, len(q.Variants))

	var wg sync.WaitGroup
	sem := make(chan struct{}, c.concurrency)
	for i, variant := range q.Variants {
		wg.Add(1)
		go func(idx int, variant string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[idx] = c.runVariant(ctx, variant)
		}(i, variant)
	}
	wg.Wait()

	seen := map[string]struct{}{}
	var pool []registry.Record
	truncated := false
	for _, res := range results {
		truncated = truncated || res.truncated
		for _, rec := range res.records {
			if _, dup := seen[rec.NaturalKey]; dup {
				continue
			}
			seen[rec.NaturalKey] = struct{}{}
			pool = append(pool, rec)
		}
	}

	if len(pool) == 0 {
		return nil, truncated, &NoCandidatesError{Variants: q.Variants}
	}
	return pool, truncated, nil
}

// runVariant walks the source priority order for one variant, stopping at the
// first non-empty result.
func (c *Chain) runVariant(ctx context.Context, variant string) variantResult {
	for _, src := range c.sources {
		if ctx.Err() != nil {
			return variantResult{}
		}
		res, err := src.Search(ctx, variant)
		if err != nil {
			c.log.Warn("source failed, trying next",
				zap.String("source", src.Name()),
				zap.String("variant", variant),
				zap.Error(err))
			continue
		}
		if len(res.Records) == 0 {
			continue
		}
		for i := range res.Records {
			res.Records[i].Source = src.Name()
			res.Records[i].Variant = variant
		}
		c.log.Debug("source yielded candidates",
			zap.String("source", src.Name()),
			zap.String("variant", variant),
			zap.Int("count", len(res.Records)))
		return variantResult{records: res.Records, truncated: res.Truncated}
	}
	return variantResult{}
}
