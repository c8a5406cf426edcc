// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package quota enforces the daily cap on new keyword searches. The counter
// is keyed by calendar date and shared by every process using the same
// store, so the check and the increment happen in one transaction.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/book-metasearch/pkg/types"
)

// DefaultDailyLimit applies when no limit is configured.
const DefaultDailyLimit = 1000

// dateLayout is the ISO calendar date used as the counter key.
const dateLayout = "2006-01-02"

// ErrQuotaExceeded is returned by Admit once the day's limit is reached.
var ErrQuotaExceeded = errors.New("daily search quota exceeded")

// Store persists one counter per calendar day.
type Store interface {
	// Count returns the number of searches recorded for day.
	Count(ctx context.Context, day string) (int, error)

	// TryConsume increments day's counter only if it is below limit. ok
	// reports whether the increment happened; count is the value after
	// the attempt.
	TryConsume(ctx context.Context, day string, limit int) (ok bool, count int, err error)

	// RecordKeyword notes that keyword was admitted on day.
	RecordKeyword(ctx context.Context, day, keyword string) error

	// HasKeyword reports whether keyword was admitted on day.
	HasKeyword(ctx context.Context, day, keyword string) (bool, error)

	Close() error
}

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg types.QuotaConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite", "sqlite3":
		path := cfg.Path
		if path == "" {
			path = "book-metasearch.db"
		}
		return NewSQLiteStore(path)
	case "postgres", "postgresql", "pgx":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("quota driver %q requires a DSN", cfg.Driver)
		}
		return NewPostgresStore(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown quota driver %q", cfg.Driver)
	}
}

// Usage is a snapshot of the day's consumption.
type Usage struct {
	Date      string `json:"date" yaml:"date"`
	Count     int    `json:"count" yaml:"count"`
	Limit     int    `json:"limit" yaml:"limit"`
	Remaining int    `json:"remaining" yaml:"remaining"`
}

// Gate applies a daily limit on top of a Store. Days follow local time.
type Gate struct {
	Store Store
	Limit int

	// Now overrides the clock in tests.
	Now func() time.Time
}

func (g *Gate) limit() int {
	if g.Limit <= 0 {
		return DefaultDailyLimit
	}
	return g.Limit
}

func (g *Gate) today() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	return now().Format(dateLayout)
}

// CurrentCount returns today's count.
func (g *Gate) CurrentCount(ctx context.Context) (int, error) {
	return g.Store.Count(ctx, g.today())
}

// TryConsume atomically records one search if today's count is below the
// limit.
func (g *Gate) TryConsume(ctx context.Context) (bool, int, error) {
	return g.Store.TryConsume(ctx, g.today(), g.limit())
}

// Admit consumes one unit of today's quota or returns ErrQuotaExceeded.
func (g *Gate) Admit(ctx context.Context) error {
	ok, count, err := g.TryConsume(ctx)
	if err != nil {
		return fmt.Errorf("recording search usage: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %d of %d searches used today", ErrQuotaExceeded, count, g.limit())
	}
	return nil
}

// AdmitKeyword consumes one unit of today's quota for keyword and records
// the keyword as admitted for the rest of the day.
func (g *Gate) AdmitKeyword(ctx context.Context, keyword string) error {
	if err := g.Admit(ctx); err != nil {
		return err
	}
	if err := g.Store.RecordKeyword(ctx, g.today(), keyword); err != nil {
		return fmt.Errorf("recording admitted keyword: %w", err)
	}
	return nil
}

// Admitted reports whether keyword already passed the gate today.
func (g *Gate) Admitted(ctx context.Context, keyword string) (bool, error) {
	return g.Store.HasKeyword(ctx, g.today(), keyword)
}

// Usage returns today's consumption.
func (g *Gate) Usage(ctx context.Context) (Usage, error) {
	day := g.today()
	count, err := g.Store.Count(ctx, day)
	if err != nil {
		return Usage{}, err
	}
	limit := g.limit()
	return Usage{Date: day, Count: count, Limit: limit, Remaining: max(0, limit-count)}, nil
}
