package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"regcheck/internal/registry"
)

// Memory is an in-process stand-in for the PostgreSQL adapter, used when no
// store DSN is configured and throughout tests. Same dedup contract: first
// sight wins, duplicates are skipped.
type Memory struct {
	mu      sync.Mutex
	byKey   map[string]PersistedRecord
	nextID  int64
	FailAll bool // test hook: makes every batch fail
}

func NewMemory() *Memory {
	return &Memory{byKey: map[string]PersistedRecord{}, nextID: 1}
}

func (m *Memory) GetByKey(_ context.Context, naturalKey string) (*PersistedRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.byKey[naturalKey]; ok {
		out := r
		return &out, nil
	}
	return nil, nil
}

func (m *Memory) IngestBatch(_ context.Context, records []registry.Record) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailAll {
		staged := 0
		for _, rec := range records {
			if _, ok := m.byKey[rec.NaturalKey]; !ok {
				staged++
			}
		}
		return 0, &IngestionFailedError{Staged: staged, cause: errors.New("simulated write failure")}
	}

	inserted := 0
	for _, rec := range records {
		if _, ok := m.byKey[rec.NaturalKey]; ok {
			continue
		}
		m.byKey[rec.NaturalKey] = PersistedRecord{
			ID:         m.nextID,
			NaturalKey: rec.NaturalKey,
			Name:       rec.Name,
			Owner:      rec.Owner,
			Type:       rec.Type,
			Region:     rec.Region,
			Status:     rec.Status,
			DetailLink: rec.DetailLink,
			Submitted:  rec.Submitted,
			Source:     rec.Source,
			FirstSeen:  time.Now(),
		}
		m.nextID++
		inserted++
	}
	return inserted, nil
}

// Len reports how many records have been persisted.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byKey)
}
