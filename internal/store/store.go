// Package store keeps analysis results retrievable by id.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"

	"dialer-insights-go/internal/types"
)

// ErrNotFound is returned when no analysis has the requested id.
var ErrNotFound = errors.New("analysis not found")

// Store persists analysis results. Implementations are safe for concurrent use.
type Store interface {
	Put(ctx context.Context, res *types.AnalysisResult) error
	Get(ctx context.Context, id string) (*types.AnalysisResult, error)
	// List returns summaries, most recent upload first.
	List(ctx context.Context) ([]types.AnalysisSummary, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Drivers accepted by New.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// New opens the store selected by driver. dsn is a file path for sqlite and
// a connection string for postgres; it is ignored for memory.
func New(ctx context.Context, driver, dsn string) (Store, error) {
	switch strings.ToLower(driver) {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return OpenSQLite(ctx, dsn)
	case DriverPostgres:
		return OpenPostgres(ctx, dsn)
	}
	return nil, eris.Errorf("store: unknown driver %q", driver)
}
