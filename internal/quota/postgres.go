// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps the counters in PostgreSQL so several server
// replicas share one daily limit.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore connects to dsn, verifies the connection and creates
// the schema.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating quota pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging quota database: %w", err)
	}

	s := &PostgresStore{db: pool}
	if err := s.createSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating quota schema: %w", err)
	}
	return s, nil
}

// NewPostgresStoreFromPool wraps an existing pool.
func NewPostgresStoreFromPool(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

func (s *PostgresStore) createSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS daily_search_usage (
			usage_date TEXT PRIMARY KEY,
			search_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS daily_search_keywords (
			usage_date TEXT NOT NULL,
			keyword TEXT NOT NULL,
			PRIMARY KEY (usage_date, keyword)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Count returns the counter for day, zero when no row exists.
func (s *PostgresStore) Count(ctx context.Context, day string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT search_count FROM daily_search_usage WHERE usage_date = $1`, day,
	).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading usage for %s: %w", day, err)
	}
	return n, nil
}

// TryConsume increments the counter for day when it is below limit. The
// conditional UPDATE takes the row lock, so concurrent callers cannot both
// pass the check for the last remaining unit.
func (s *PostgresStore) TryConsume(ctx context.Context, day string, limit int) (bool, int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, 0, err
	}
	defer tx.Rollback(ctx)

	const seedSQL = `
		INSERT INTO daily_search_usage (usage_date, search_count)
		VALUES ($1, 0)
		ON CONFLICT (usage_date) DO NOTHING`
	if _, err := tx.Exec(ctx, seedSQL, day); err != nil {
		return false, 0, fmt.Errorf("seeding usage row: %w", err)
	}

	const consumeSQL = `
		UPDATE daily_search_usage SET search_count = search_count + 1
		WHERE usage_date = $1 AND search_count < $2`
	tag, err := tx.Exec(ctx, consumeSQL, day, limit)
	if err != nil {
		return false, 0, fmt.Errorf("incrementing usage: %w", err)
	}

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT search_count FROM daily_search_usage WHERE usage_date = $1`, day,
	).Scan(&count); err != nil {
		return false, 0, fmt.Errorf("reading usage: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, 0, fmt.Errorf("committing usage: %w", err)
	}
	return tag.RowsAffected() == 1, count, nil
}

// RecordKeyword marks keyword as admitted on day.
func (s *PostgresStore) RecordKeyword(ctx context.Context, day, keyword string) error {
	const recordSQL = `
		INSERT INTO daily_search_keywords (usage_date, keyword)
		VALUES ($1, $2)
		ON CONFLICT (usage_date, keyword) DO NOTHING`
	if _, err := s.db.Exec(ctx, recordSQL, day, keyword); err != nil {
		return fmt.Errorf("recording keyword for %s: %w", day, err)
	}
	return nil
}

// HasKeyword reports whether keyword was admitted on day.
func (s *PostgresStore) HasKeyword(ctx context.Context, day, keyword string) (bool, error) {
	var found bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM daily_search_keywords WHERE usage_date = $1 AND keyword = $2)`,
		day, keyword,
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("reading keywords for %s: %w", day, err)
	}
	return found, nil
}
