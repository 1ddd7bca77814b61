// Package store persists comparison run history in PostgreSQL.
package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/payorsync/internal/config"
	"github.com/JonMunkholm/payorsync/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS comparison_runs (
	id              UUID PRIMARY KEY,
	old_file        TEXT NOT NULL,
	new_file        TEXT NOT NULL,
	comparison_date DATE NOT NULL,
	sheets_compared TEXT[] NOT NULL DEFAULT '{}',
	summaries       JSONB NOT NULL DEFAULT '{}'::jsonb,
	change_count    INTEGER NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS comparison_runs_created_at_idx ON comparison_runs (created_at DESC);
`

// Open creates a connection pool from cfg and verifies it with a ping.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// DatabaseName returns the database name from a connection URL, or "".
func DatabaseName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

// Postgres implements core.HistoryStore and core.HistoryPurger.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps pool and creates the comparison_runs table if missing.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("create comparison_runs: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Record implements core.HistoryStore.
func (p *Postgres) Record(ctx context.Context, s core.RunSummary) error {
	date, err := time.Parse(core.DateLayout, s.ComparisonDate)
	if err != nil {
		return fmt.Errorf("comparison date %q: %w", s.ComparisonDate, err)
	}

	sheets := s.SheetsCompared
	if sheets == nil {
		sheets = []string{}
	}
	summaries := s.Summaries
	if summaries == nil {
		summaries = map[string]core.SheetSummary{}
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO comparison_runs
			(id, old_file, new_file, comparison_date, sheets_compared, summaries, change_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.OldFile, s.NewFile, date, sheets, summaries, s.ChangeCount, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert comparison run %s: %w", s.ID, err)
	}
	return nil
}

// List implements core.HistoryStore.
func (p *Postgres) List(ctx context.Context, limit int) ([]core.RunSummary, error) {
	if limit <= 0 {
		limit = core.DefaultHistoryLimit
	}

	rows, err := p.pool.Query(ctx, `
		SELECT id::text, old_file, new_file, comparison_date, sheets_compared, summaries, change_count, created_at
		FROM comparison_runs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query comparison runs: %w", err)
	}

	out, err := pgx.CollectRows(rows, scanSummary)
	if err != nil {
		return nil, fmt.Errorf("scan comparison runs: %w", err)
	}
	return out, nil
}

// Purge implements core.HistoryPurger.
func (p *Postgres) Purge(ctx context.Context, before time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM comparison_runs WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("purge comparison runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanSummary(row pgx.CollectableRow) (core.RunSummary, error) {
	var (
		s    core.RunSummary
		date time.Time
	)
	err := row.Scan(
		&s.ID,
		&s.OldFile,
		&s.NewFile,
		&date,
		&s.SheetsCompared,
		&s.Summaries,
		&s.ChangeCount,
		&s.CreatedAt,
	)
	if err != nil {
		return core.RunSummary{}, err
	}
	s.ComparisonDate = date.Format(core.DateLayout)
	return s, nil
}
