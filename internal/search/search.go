// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search aggregates the book sources into one column per source.
// A keyword submission passes the daily quota gate, resets the session and
// queries every source concurrently; page navigation reuses the session's
// prefetched windows and only calls a source when a page lies beyond its
// current block.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/book-metasearch/internal/prefetch"
	"github.com/pdiddy/book-metasearch/internal/quota"
	"github.com/pdiddy/book-metasearch/internal/session"
	"github.com/pdiddy/book-metasearch/internal/source"
	"github.com/pdiddy/book-metasearch/pkg/types"
)

var (
	// ErrNoActiveSearch is returned when navigating before any keyword
	// was submitted.
	ErrNoActiveSearch = errors.New("no active search")

	// ErrUnknownSource is returned when navigating a source the engine
	// does not know.
	ErrUnknownSource = errors.New("unknown source")
)

// Status summarizes a column's outcome.
type Status string

const (
	StatusOK            Status = "ok"
	StatusEmpty         Status = "empty"
	StatusUnavailable   Status = "unavailable"
	StatusNotConfigured Status = "not_configured"
)

// Column is one source's slice of the results for the current page.
type Column struct {
	Source string `json:"source" yaml:"source"`
	Label  string `json:"label" yaml:"label"`

	Records []types.Record `json:"records" yaml:"records"`

	Page       int `json:"page" yaml:"page"`
	PageSize   int `json:"page_size" yaml:"page_size"`
	TotalPages int `json:"total_pages" yaml:"total_pages"`

	// DeclaredTotal is what the source claims to have; Displayed is what
	// can actually be paged through (RISS stops at 100).
	DeclaredTotal int `json:"declared_total" yaml:"declared_total"`
	Displayed     int `json:"displayed" yaml:"displayed"`

	PageWindow []int  `json:"page_window" yaml:"page_window"`
	Status     Status `json:"status" yaml:"status"`
	Warning    string `json:"warning,omitempty" yaml:"warning,omitempty"`
}

// Result is one rendered view of a session.
type Result struct {
	SessionID string       `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Keyword   string       `json:"keyword" yaml:"keyword"`
	Columns   []Column     `json:"columns" yaml:"columns"`
	Usage     *quota.Usage `json:"usage,omitempty" yaml:"usage,omitempty"`
}

// Warnings returns the per-source warnings in column order.
func (r Result) Warnings() []string {
	var out []string
	for _, c := range r.Columns {
		if c.Warning != "" {
			out = append(out, fmt.Sprintf("%s: %s", c.Source, c.Warning))
		}
	}
	return out
}

// Engine wires the sources, the quota gate and the paging settings.
type Engine struct {
	// Local is queried inline; it never touches the network.
	Local source.Adapter

	// Remote sources are queried concurrently and shown in this order
	// after Local.
	Remote []source.Adapter

	// Quota gates keyword submissions; nil disables the gate.
	Quota *quota.Gate

	Config types.SearchConfig
	Logger *slog.Logger
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Engine) adapters() []source.Adapter {
	var all []source.Adapter
	if e.Local != nil {
		all = append(all, e.Local)
	}
	return append(all, e.Remote...)
}

// Sources returns the source names in column order.
func (e *Engine) Sources() []string {
	var names []string
	for _, a := range e.adapters() {
		names = append(names, a.Name())
	}
	return names
}

// NewSession returns a session configured with the engine's paging
// settings.
func (e *Engine) NewSession() *session.Session {
	cfg := e.Config.WithDefaults()
	return session.New(cfg.PageSize, cfg.BlockPages)
}

// Submit starts a search for keyword. A blank keyword clears the session
// without consuming quota. Otherwise one unit of the daily quota is
// consumed first; when it is exhausted Submit returns
// quota.ErrQuotaExceeded, the session is left untouched and no source is
// queried.
func (e *Engine) Submit(ctx context.Context, sess *session.Session, keyword string) (Result, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		sess.Reset("", nil)
		return Result{SessionID: sess.ID, Usage: e.usage(ctx)}, nil
	}

	if e.Quota != nil {
		if err := e.Quota.AdmitKeyword(ctx, keyword); err != nil {
			return Result{SessionID: sess.ID, Keyword: keyword, Usage: e.usage(ctx)}, err
		}
	}

	e.logger().Info("search submitted", "session", sess.ID, "keyword", keyword)
	sess.Reset(keyword, e.Sources())
	return e.Render(ctx, sess), nil
}

// Navigate moves one source's column to page and re-renders. It never
// consumes quota. The source is called only when page lies beyond the
// prefetched block, and then only for the missing pages.
func (e *Engine) Navigate(ctx context.Context, sess *session.Session, sourceName string, page int) (Result, error) {
	keyword := sess.Keyword()
	if keyword == "" {
		return Result{SessionID: sess.ID}, ErrNoActiveSearch
	}
	a := e.adapter(sourceName)
	if a == nil {
		return Result{SessionID: sess.ID, Keyword: keyword}, fmt.Errorf("%w: %q", ErrUnknownSource, sourceName)
	}

	cur := sess.Cursor(sourceName)
	w, err := sess.Cache.Fetch(ctx, a, keyword, cur.PrefetchedPages)
	total := 0
	if err == nil {
		_, total = e.pages(w)
	}
	next, grow := sess.Select(sourceName, page, total)
	sess.Commit(sourceName, next)
	if grow {
		e.logger().Debug("growing prefetch block", "source", sourceName,
			"page", next.Page, "block_pages", next.PrefetchedPages)
	}
	return e.Render(ctx, sess), nil
}

// Render builds every column for the session's current cursors. The local
// column is computed inline; remote sources run one goroutine each and are
// all joined before the result is assembled. A failing source yields an
// empty column with a warning and never affects the others.
func (e *Engine) Render(ctx context.Context, sess *session.Session) Result {
	res := Result{SessionID: sess.ID, Keyword: sess.Keyword(), Usage: e.usage(ctx)}
	all := e.adapters()
	res.Columns = make([]Column, len(all))

	offset := 0
	if e.Local != nil {
		res.Columns[0] = e.column(ctx, sess, e.Local, res.Keyword)
		offset = 1
	}

	var g errgroup.Group
	g.SetLimit(max(1, len(e.Remote)))
	for i, a := range e.Remote {
		g.Go(func() error {
			res.Columns[offset+i] = e.column(ctx, sess, a, res.Keyword)
			return nil
		})
	}
	g.Wait()

	return res
}

func (e *Engine) column(ctx context.Context, sess *session.Session, a source.Adapter, keyword string) Column {
	cfg := e.Config.WithDefaults()
	col := Column{Source: a.Name(), Label: source.Label(a.Name()), PageSize: cfg.PageSize, Status: StatusEmpty}
	if keyword == "" {
		return col
	}

	cur := sess.Cursor(a.Name())
	w, err := sess.Cache.Fetch(ctx, a, keyword, cur.PrefetchedPages)
	if err != nil {
		col.Status, col.Warning = classify(err)
		e.logger().Warn("source failed", "source", a.Name(), "keyword", keyword, "error", err)
	}
	if w == nil {
		col.Page = cur.Page
		return col
	}

	col.DeclaredTotal = w.DeclaredTotal
	col.Displayed, col.TotalPages = e.pages(w)

	if col.TotalPages > 0 && cur.Page > col.TotalPages {
		cur.Page = col.TotalPages
		sess.Commit(a.Name(), cur)
	}
	col.Page = cur.Page
	col.Records = w.Page(cur.Page)
	col.PageWindow = session.PageWindow(col.Page, col.TotalPages, cfg.WindowSize)
	if err == nil && len(col.Records) > 0 {
		col.Status = StatusOK
	}
	return col
}

// pages returns how many records can be paged through and the matching
// page count. An exhausted window knows its real size; otherwise the
// source's declared total is trusted.
func (e *Engine) pages(w *prefetch.Window) (displayed, totalPages int) {
	displayed = len(w.Records)
	if !w.Exhausted && w.DeclaredTotal > displayed {
		displayed = w.DeclaredTotal
	}
	pageSize := w.PageSize
	if pageSize <= 0 {
		pageSize = e.Config.WithDefaults().PageSize
	}
	return displayed, (displayed + pageSize - 1) / pageSize
}

func (e *Engine) adapter(name string) source.Adapter {
	for _, a := range e.adapters() {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

func (e *Engine) usage(ctx context.Context) *quota.Usage {
	if e.Quota == nil {
		return nil
	}
	u, err := e.Quota.Usage(ctx)
	if err != nil {
		e.logger().Warn("reading quota usage", "error", err)
		return nil
	}
	return &u
}

// classify turns a source error into a column status and a short,
// user-facing warning.
func classify(err error) (Status, string) {
	switch {
	case errors.Is(err, source.ErrNotConfigured):
		return StatusNotConfigured, "source is not configured"
	case errors.Is(err, source.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return StatusUnavailable, "source timed out"
	case errors.Is(err, source.ErrParse):
		return StatusUnavailable, "source returned an unreadable response"
	default:
		return StatusUnavailable, "source request failed"
	}
}
