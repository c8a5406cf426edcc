// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quota

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps the counters in a local SQLite file. Write
// transactions start IMMEDIATE so concurrent processes serialize on the
// database lock instead of racing between the check and the increment.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating quota directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("opening quota database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating quota schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createSchema() error {
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
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Count returns the counter for day, zero when no row exists.
func (s *SQLiteStore) Count(ctx context.Context, day string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT search_count FROM daily_search_usage WHERE usage_date = ?`, day,
	).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading usage for %s: %w", day, err)
	}
	return n, nil
}

// TryConsume increments the counter for day when it is below limit.
func (s *SQLiteStore) TryConsume(ctx context.Context, day string, limit int) (bool, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("beginning usage transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_search_usage (usage_date, search_count) VALUES (?, 0)`, day,
	); err != nil {
		return false, 0, fmt.Errorf("seeding usage row: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE daily_search_usage SET search_count = search_count + 1
		 WHERE usage_date = ? AND search_count < ?`, day, limit,
	)
	if err != nil {
		return false, 0, fmt.Errorf("incrementing usage: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, 0, fmt.Errorf("incrementing usage: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT search_count FROM daily_search_usage WHERE usage_date = ?`, day,
	).Scan(&count); err != nil {
		return false, 0, fmt.Errorf("reading usage: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("committing usage: %w", err)
	}
	return affected == 1, count, nil
}

// RecordKeyword marks keyword as admitted on day.
func (s *SQLiteStore) RecordKeyword(ctx context.Context, day, keyword string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_search_keywords (usage_date, keyword) VALUES (?, ?)`, day, keyword,
	)
	if err != nil {
		return fmt.Errorf("recording keyword for %s: %w", day, err)
	}
	return nil
}

// HasKeyword reports whether keyword was admitted on day.
func (s *SQLiteStore) HasKeyword(ctx context.Context, day, keyword string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM daily_search_keywords WHERE usage_date = ? AND keyword = ?`, day, keyword,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("reading keywords for %s: %w", day, err)
	}
	return n > 0, nil
}
