package main

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/geoatlas/poifetch/internal/area"
	"github.com/geoatlas/poifetch/internal/cache"
	"github.com/geoatlas/poifetch/internal/overpass"
	"github.com/geoatlas/poifetch/internal/pipeline"
	"github.com/geoatlas/poifetch/internal/progress"
	"github.com/geoatlas/poifetch/internal/store"
)

// env bundles the wired components a command needs.
type env struct {
	Catalog      *area.Catalog
	Cache        *cache.Store
	Client       *overpass.Client
	Orchestrator *pipeline.Orchestrator
}

// initEnv wires the fetch pipeline from config. The progress sink is
// per-command: console for interactive fetches, logger for the server.
func initEnv(sink progress.Sink) (*env, error) {
	catalog, err := area.LoadCatalog(cfg.Regions.File)
	if err != nil {
		return nil, err
	}

	cacheStore, err := cache.NewStore(cfg.Cache.Dir)
	if err != nil {
		return nil, err
	}

	client := overpass.NewClient(overpass.Options{
		Endpoint:   cfg.Overpass.Endpoint,
		UserAgent:  cfg.Overpass.UserAgent,
		Timeout:    cfg.Overpass.Timeout(),
		MaxRetries: cfg.Overpass.MaxRetries,
		RetryDelay: cfg.Overpass.RetryDelay(),
		RateLimit:  rate.Limit(cfg.Overpass.RateLimit),
		RateBurst:  cfg.Overpass.RateBurst,
		Progress:   sink,
	})

	dedupe := cfg.Fetch.Dedupe
	orch := pipeline.New(catalog, cacheStore, client, pipeline.Options{
		Concurrency:  cfg.Fetch.Concurrency,
		QueryTimeout: cfg.Overpass.QueryTimeout(),
		Dedupe:       &dedupe,
		Progress:     sink,
	})

	return &env{
		Catalog:      catalog,
		Cache:        cacheStore,
		Client:       client,
		Orchestrator: orch,
	}, nil
}

// initStore opens the run history database and applies migrations.
func initStore(ctx context.Context) (*store.Store, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}
