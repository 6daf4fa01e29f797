package main

import (
	"context"

	"github.com/rotisserie/eris"

	"dialer-insights-go/internal/logger"
	"dialer-insights-go/internal/pipeline"
	"dialer-insights-go/internal/prefix"
	"dialer-insights-go/internal/processor"
	"dialer-insights-go/internal/store"
)

const defaultSQLitePath = "dialer-insights.db"

// appEnv holds the services shared by serve, analyze and watch.
type appEnv struct {
	Store    store.Store
	Catalog  *prefix.Catalog
	Pipeline *pipeline.Pipeline
}

func (e *appEnv) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			logger.New().WithError(err).Warn("store close failed")
		}
	}
}

// initEnv wires the configured store, catalog and timezone into a pipeline.
// driver overrides cfg.Store.Driver when non-empty.
func initEnv(ctx context.Context, driver string) (*appEnv, error) {
	if driver == "" {
		driver = cfg.Store.Driver
	}
	dsn := cfg.Store.DSN
	if driver == store.DriverSQLite && dsn == "" {
		dsn = defaultSQLitePath
	}

	catalog, err := prefix.Load(cfg.Analysis.PrefixCatalog)
	if err != nil {
		return nil, eris.Wrap(err, "load prefix catalog")
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	st, err := store.New(ctx, driver, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	logger.New().WithField("store", driver).
		WithField("timezone", loc.String()).
		WithField("prefixes", catalog.Len()).
		Debug("environment ready")

	return &appEnv{
		Store:    st,
		Catalog:  catalog,
		Pipeline: pipeline.New(st, processor.Options{Location: loc, Catalog: catalog}),
	}, nil
}
