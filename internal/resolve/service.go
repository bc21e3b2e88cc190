package resolve

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"regcheck/internal/query"
	"regcheck/internal/registry"
	"regcheck/internal/store"
)

// Ingestor is the persistence contract the service needs: dedup-aware batch
// writes plus lookup by natural key. Satisfied by store.Adapter and
// store.Memory.
type Ingestor interface {
	IngestBatch(ctx context.Context, records []registry.Record) (int, error)
	GetByKey(ctx context.Context, naturalKey string) (*store.PersistedRecord, error)
}

// Enricher augments a selected record from its detail page. Satisfied by
// registry.DetailFetcher.
type Enricher interface {
	Enrich(ctx context.Context, rec registry.Record) (registry.Record, error)
}

// Service ties the resolution pipeline together: variants → fallback chain →
// scoring → selection → ingestion.
type Service struct {
	chain     *Chain
	ingestor  Ingestor
	enricher  Enricher
	threshold float64
	timeout   time.Duration
	log       *zap.Logger
}

func NewService(chain *Chain, ingestor Ingestor, enricher Enricher, threshold float64, timeout time.Duration, log *zap.Logger) *Service {
	if threshold <= 0 {
		threshold = DefaultRelevanceThreshold
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		chain:     chain,
		ingestor:  ingestor,
		enricher:  enricher,
		threshold: threshold,
		timeout:   timeout,
		log:       log,
	}
}

// Resolve runs one full resolution for a free-text company name. The whole
// candidate pool of the run is ingested (dedup against prior runs happens in
// the store), then the selection rule decides between a single confident
// match and a ranked disambiguation list.
func (s *Service) Resolve(ctx context.Context, raw string) (*Result, error) {
	q, err := query.New(raw)
	if err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	pool, truncated, err := s.chain.Run(ctx, q)
	if err != nil {
		return nil, err
	}

	res, err := Select(q, Rank(pool, q), s.threshold)
	if err != nil {
		return nil, err
	}
	res.Truncated = truncated

	if s.ingestor != nil {
		if _, err := s.ingestor.IngestBatch(ctx, pool); err != nil {
			return nil, err
		}
	}

	s.log.Info("resolution complete",
		zap.String("query", q.Raw),
		zap.Int("pool", len(res.Pool)),
		zap.Int("relevant", len(res.Ranked)),
		zap.Bool("disambiguation", res.Disambiguation()),
		zap.Bool("truncated", res.Truncated))
	return res, nil
}

// SelectCandidate settles a disambiguation: re-resolves the query, picks the
// candidate with the given natural key, enriches it from its detail page and
// ingests it, returning the persisted entity.
func (s *Service) SelectCandidate(ctx context.Context, raw, naturalKey string) (*store.PersistedRecord, error) {
	if s.ingestor == nil {
		return nil, errors.New("no store configured")
	}

	q, err := query.New(raw)
	if err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	pool, _, err := s.chain.Run(ctx, q)
	if err != nil {
		return nil, err
	}

	var picked *registry.Record
	for i := range pool {
		if pool[i].NaturalKey == naturalKey {
			picked = &pool[i]
			break
		}
	}
	if picked == nil {
		return nil, &NotSelectableError{NaturalKey: naturalKey}
	}

	rec := *picked
	if s.enricher != nil {
		// Detail data is best-effort; the record stands on its own.
		if enriched, err := s.enricher.Enrich(ctx, rec); err == nil {
			rec = enriched
		} else {
			s.log.Warn("detail enrichment failed",
				zap.String("key", naturalKey), zap.Error(err))
		}
	}

	if _, err := s.ingestor.IngestBatch(ctx, []registry.Record{rec}); err != nil {
		return nil, err
	}
	return s.ingestor.GetByKey(ctx, naturalKey)
}
