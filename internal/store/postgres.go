package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"regcheck/internal/registry"
)

// PersistedRecord is the durable form of a candidate record, keyed by its
// natural key. Created on first sight; later ingestion runs never overwrite
// it (append-only with skip-on-duplicate).
type PersistedRecord struct {
	ID         int64
	NaturalKey string
	Name       string
	Owner      string
	Type       string
	Region     string
	Status     string
	DetailLink string
	Submitted  *time.Time
	Source     string
	FirstSeen  time.Time
}

// IngestionFailedError: the batch transaction failed and was rolled back.
// Staged counts the records that would have been written, so the caller can
// retry the same batch; ingestion is idempotent against natural keys.
type IngestionFailedError struct {
	Staged int
	cause  error
}

func (e *IngestionFailedError) Error() string {
	return fmt.Sprintf("ingestion failed, %d staged records rolled back: %v", e.Staged, e.cause)
}

func (e *IngestionFailedError) Unwrap() error { return e.cause }

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id          SERIAL PRIMARY KEY,
	natural_key TEXT UNIQUE NOT NULL,
	name        TEXT NOT NULL,
	owner       TEXT,
	type        TEXT,
	region      TEXT,
	status      TEXT,
	detail_link TEXT,
	submitted   DATE,
	source      TEXT,
	first_seen  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Adapter implements the ingestion/dedup contract over PostgreSQL. Only the
// final ingestion step of a resolution run touches it, single-threaded,
// inside one transaction per batch.
type Adapter struct {
	db  *sql.DB
	log *zap.Logger
}

func NewAdapter(db *sql.DB, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{db: db, log: log}
}

// Open connects to PostgreSQL and ensures the schema exists.
func Open(ctx context.Context, dsn string, log *zap.Logger) (*Adapter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a := NewAdapter(db, log)
	if err := a.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func (a *Adapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (a *Adapter) Close() error { return a.db.Close() }

// GetByKey returns the persisted record for a natural key, or nil when the
// key has never been ingested.
func (a *Adapter) GetByKey(ctx context.Context, naturalKey string) (*PersistedRecord, error) {
	row := a.db.QueryRowContext(ctx,
		`SELECT id, natural_key, name, owner, type, region, status, detail_link, submitted, source, first_seen
		 FROM records WHERE natural_key = $1`, naturalKey)

	var r PersistedRecord
	var owner, typ, region, status, link, source sql.NullString
	var submitted sql.NullTime
	err := row.Scan(&r.ID, &r.NaturalKey, &r.Name, &owner, &typ, &region, &status, &link, &submitted, &source, &r.FirstSeen)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get by key: %w", err)
	}
	r.Owner, r.Type, r.Region, r.Status = owner.String, typ.String, region.String, status.String
	r.DetailLink, r.Source = link.String, source.String
	if submitted.Valid {
		t := submitted.Time
		r.Submitted = &t
	}
	return &r, nil
}

// IngestBatch stages an insert for every record whose natural key is absent
// and skips the rest, all inside one transaction. Returns the number of
// records inserted. Any failure rolls the whole batch back and surfaces
// IngestionFailedError.
func (a *Adapter) IngestBatch(ctx context.Context, records []registry.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &IngestionFailedError{Staged: 0, cause: err}
	}

	staged := 0
	for _, rec := range records {
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM records WHERE natural_key = $1)`,
			rec.NaturalKey).Scan(&exists)
		if err != nil {
			tx.Rollback()
			return 0, &IngestionFailedError{Staged: staged, cause: err}
		}
		if exists {
			a.log.Debug("record already persisted, skipping",
				zap.String("key", rec.NaturalKey))
			continue
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO records (natural_key, name, owner, type, region, status, detail_link, submitted, source)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			rec.NaturalKey, rec.Name, rec.Owner, rec.Type, rec.Region,
			rec.Status, rec.DetailLink, submittedOrNil(rec), rec.Source)
		if err != nil {
			tx.Rollback()
			return 0, &IngestionFailedError{Staged: staged + 1, cause: err}
		}
		staged++
	}

	if err := tx.Commit(); err != nil {
		return 0, &IngestionFailedError{Staged: staged, cause: err}
	}
	a.log.Info("batch ingested",
		zap.Int("inserted", staged), zap.Int("batch", len(records)))
	return staged, nil
}

func submittedOrNil(rec registry.Record) interface{} {
	if rec.Submitted == nil {
		return nil
	}
	return *rec.Submitted
}
