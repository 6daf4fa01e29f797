package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"dialer-insights-go/internal/types"
)

// SQLite keeps analyses in a local database file.
type SQLite struct {
	db *sql.DB
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id          TEXT PRIMARY KEY,
	file_name   TEXT NOT NULL,
	uploaded_at DATETIME NOT NULL,
	summary     TEXT NOT NULL,
	records     TEXT NOT NULL
);
`

// OpenSQLite opens (or creates) the database at path and migrates it.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, eris.New("sqlite: empty path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	s := &SQLite{db: db}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLite) Put(ctx context.Context, res *types.AnalysisResult) error {
	summary, records, err := encode(res)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, file_name, uploaded_at, summary, records) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET file_name = excluded.file_name, uploaded_at = excluded.uploaded_at,
		summary = excluded.summary, records = excluded.records`,
		res.ID, res.FileName, res.UploadedAt.UTC(), string(summary), string(records),
	)
	return eris.Wrapf(err, "sqlite: put analysis %s", res.ID)
}

func (s *SQLite) Get(ctx context.Context, id string) (*types.AnalysisResult, error) {
	var summary, records string
	err := s.db.QueryRowContext(ctx, `SELECT summary, records FROM analyses WHERE id = ?`, id).
		Scan(&summary, &records)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "store: %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get analysis %s", id)
	}
	return decode([]byte(summary), []byte(records))
}

func (s *SQLite) List(ctx context.Context) ([]types.AnalysisSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT summary FROM analyses`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list analyses")
	}
	defer rows.Close()

	out := []types.AnalysisSummary{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan analysis")
		}
		sum, err := decodeSummary([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate analyses")
	}
	sortSummaries(out)
	return out, nil
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM analyses WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete analysis %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Wrapf(ErrNotFound, "store: %s", id)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
