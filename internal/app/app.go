package app

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"regcheck/internal/config"
	"regcheck/internal/norms"
	"regcheck/internal/registry"
	"regcheck/internal/resolve"
	"regcheck/internal/store"
)

// App wires the configured sources, store and services together. One App per
// process; Close releases the store connection.
type App struct {
	Config   *config.Config
	Log      *zap.Logger
	Resolver *resolve.Service
	Norms    *norms.Lookup

	closers []func() error
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	a := &App{Config: cfg, Log: log}

	pagesPerSec := 0.0
	if cfg.Pagination.PageDelay > 0 {
		pagesPerSec = 1.0 / cfg.Pagination.PageDelay.Seconds()
	}

	var sources []registry.Source
	if !cfg.Sources.SEIA.Disabled {
		client := &http.Client{Timeout: cfg.Sources.SEIA.Timeout}
		walker := registry.NewWalker(client, cfg.Pagination.MaxPages, pagesPerSec, log)
		sources = append(sources, registry.NewSEIA(cfg.Sources.SEIA.BaseURL, client, walker, log))
	}
	if !cfg.Sources.SNIFA.Disabled {
		client := &http.Client{Timeout: cfg.Sources.SNIFA.Timeout}
		walker := registry.NewWalker(client, cfg.Pagination.MaxPages, pagesPerSec, log)
		sources = append(sources, registry.NewSNIFA(cfg.Sources.SNIFA.BaseURL, client, walker, log))
	}

	var ingestor resolve.Ingestor
	if cfg.Store.DSN != "" {
		adapter, err := store.Open(ctx, cfg.Store.DSN, log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, adapter.Close)
		ingestor = adapter
	} else {
		log.Info("no store DSN configured, using in-memory store")
		ingestor = store.NewMemory()
	}

	detailClient := &http.Client{Timeout: cfg.Sources.SEIA.Timeout}
	enricher := registry.NewDetailFetcher(detailClient, log)

	chain := resolve.NewChain(sources, cfg.Resolve.Concurrency, log)
	a.Resolver = resolve.NewService(chain, ingestor, enricher,
		cfg.Resolve.RelevanceThreshold, cfg.Resolve.Timeout, log)

	mapper, err := norms.LoadMapper(cfg.Norms.DatasetPath)
	if err != nil {
		return nil, err
	}
	var feed *norms.Feed
	if len(cfg.Norms.Feeds) > 0 {
		feed = norms.NewFeed(cfg.Norms.Feeds, log)
	}
	a.Norms = norms.NewLookup(feed, mapper, cfg.Norms.FeedLimit, log)

	return a, nil
}

// Close releases held resources, last acquired first.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
