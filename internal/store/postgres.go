package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"dialer-insights-go/internal/types"
)

// Pool is the subset of pgxpool.Pool used by Postgres.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Postgres keeps analyses in a shared PostgreSQL database.
type Postgres struct {
	pool Pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id          TEXT PRIMARY KEY,
	file_name   TEXT NOT NULL,
	uploaded_at TIMESTAMPTZ NOT NULL,
	summary     JSONB NOT NULL,
	records     JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_uploaded_at ON analyses(uploaded_at);
`

// OpenPostgres connects to connString and migrates the schema.
func OpenPostgres(ctx context.Context, connString string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	s := NewPostgres(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgres wraps an existing pool without migrating.
func NewPostgres(pool Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *Postgres) Put(ctx context.Context, res *types.AnalysisResult) error {
	summary, records, err := encode(res)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO analyses (id, file_name, uploaded_at, summary, records) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET file_name = EXCLUDED.file_name, uploaded_at = EXCLUDED.uploaded_at,
		summary = EXCLUDED.summary, records = EXCLUDED.records`,
		res.ID, res.FileName, res.UploadedAt, summary, records,
	)
	return eris.Wrapf(err, "postgres: put analysis %s", res.ID)
}

func (s *Postgres) Get(ctx context.Context, id string) (*types.AnalysisResult, error) {
	var summary, records []byte
	err := s.pool.QueryRow(ctx, `SELECT summary, records FROM analyses WHERE id = $1`, id).
		Scan(&summary, &records)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "store: %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get analysis %s", id)
	}
	return decode(summary, records)
}

func (s *Postgres) List(ctx context.Context) ([]types.AnalysisSummary, error) {
	rows, err := s.pool.Query(ctx, `SELECT summary FROM analyses ORDER BY uploaded_at DESC, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list analyses")
	}
	defer rows.Close()

	out := []types.AnalysisSummary{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, eris.Wrap(err, "postgres: scan analysis")
		}
		sum, err := decodeSummary(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate analyses")
	}
	return out, nil
}

func (s *Postgres) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM analyses WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete analysis %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "store: %s", id)
	}
	return nil
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}
