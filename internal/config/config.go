package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration. Every field has a working
// default; a missing file is not an error.
type Config struct {
	Sources    SourcesConfig    `yaml:"sources"`
	Pagination PaginationConfig `yaml:"pagination"`
	Resolve    ResolveConfig    `yaml:"resolve"`
	Store      StoreConfig      `yaml:"store"`
	Norms      NormsConfig      `yaml:"norms"`
}

// SourcesConfig lists the registry endpoints in fallback priority order.
type SourcesConfig struct {
	SEIA  SourceConfig `yaml:"seia"`
	SNIFA SourceConfig `yaml:"snifa"`
}

type SourceConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Disabled bool          `yaml:"disabled,omitempty"`
	Timeout  time.Duration `yaml:"timeout"`
}

// PaginationConfig bounds the walk over multi-page result sets.
type PaginationConfig struct {
	MaxPages  int           `yaml:"max_pages"`
	PageDelay time.Duration `yaml:"page_delay"`
}

type ResolveConfig struct {
	Concurrency        int           `yaml:"concurrency"`
	RelevanceThreshold float64       `yaml:"relevance_threshold"`
	Timeout            time.Duration `yaml:"timeout"`
}

type StoreConfig struct {
	// DSN is a PostgreSQL connection string; empty means the in-memory store.
	DSN string `yaml:"dsn,omitempty"`
}

type NormsConfig struct {
	DatasetPath string   `yaml:"dataset_path"`
	Feeds       []string `yaml:"feeds,omitempty"`
	FeedLimit   int      `yaml:"feed_limit"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Sources: SourcesConfig{
			SEIA:  SourceConfig{BaseURL: "https://seia.sea.gob.cl", Timeout: 30 * time.Second},
			SNIFA: SourceConfig{BaseURL: "https://snifa.sma.gob.cl", Timeout: 30 * time.Second},
		},
		Pagination: PaginationConfig{
			MaxPages:  50,
			PageDelay: 2 * time.Second,
		},
		Resolve: ResolveConfig{
			Concurrency:        4,
			RelevanceThreshold: 1.0,
			Timeout:            5 * time.Minute,
		},
		Norms: NormsConfig{
			DatasetPath: "data/norm_categories.json",
			FeedLimit:   10,
		},
	}
}

// Load reads a YAML config file and fills unset fields with defaults. An
// empty path yields the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults backfills zero values left by a partial file.
func (c *Config) applyDefaults() {
	def := Default()
	if c.Sources.SEIA.BaseURL == "" {
		c.Sources.SEIA.BaseURL = def.Sources.SEIA.BaseURL
	}
	if c.Sources.SEIA.Timeout <= 0 {
		c.Sources.SEIA.Timeout = def.Sources.SEIA.Timeout
	}
	if c.Sources.SNIFA.BaseURL == "" {
		c.Sources.SNIFA.BaseURL = def.Sources.SNIFA.BaseURL
	}
	if c.Sources.SNIFA.Timeout <= 0 {
		c.Sources.SNIFA.Timeout = def.Sources.SNIFA.Timeout
	}
	if c.Pagination.MaxPages <= 0 {
		c.Pagination.MaxPages = def.Pagination.MaxPages
	}
	if c.Pagination.PageDelay <= 0 {
		c.Pagination.PageDelay = def.Pagination.PageDelay
	}
	if c.Resolve.Concurrency <= 0 {
		c.Resolve.Concurrency = def.Resolve.Concurrency
	}
	if c.Resolve.RelevanceThreshold <= 0 {
		c.Resolve.RelevanceThreshold = def.Resolve.RelevanceThreshold
	}
	if c.Resolve.Timeout <= 0 {
		c.Resolve.Timeout = def.Resolve.Timeout
	}
	if c.Norms.DatasetPath == "" {
		c.Norms.DatasetPath = def.Norms.DatasetPath
	}
	if c.Norms.FeedLimit <= 0 {
		c.Norms.FeedLimit = def.Norms.FeedLimit
	}
}
