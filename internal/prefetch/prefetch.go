// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prefetch fetches blocks of consecutive result pages from a source
// and caches them so page navigation inside a block costs no upstream call.
package prefetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/book-metasearch/internal/source"
	"github.com/pdiddy/book-metasearch/pkg/types"
)

// Window is the cached result of fetching the first BlockPages pages of
// one keyword from one source.
type Window struct {
	Source  string
	Keyword string

	// Records holds at most BlockPages*PageSize records in source order.
	Records []types.Record

	// DeclaredTotal is the source's own total, which may exceed what the
	// source will actually return.
	DeclaredTotal int

	PagesFetched int
	BlockPages   int
	PageSize     int

	// Exhausted is set when the source ran out of results before the
	// block was full.
	Exhausted bool
}

// Page returns the records of 1-based page n, or nil when n lies outside
// the window.
func (w *Window) Page(n int) []types.Record {
	if w == nil || n < 1 || w.PageSize <= 0 {
		return nil
	}
	start := (n - 1) * w.PageSize
	if start >= len(w.Records) {
		return nil
	}
	return w.Records[start:min(start+w.PageSize, len(w.Records))]
}

type key struct {
	source  string
	keyword string
	block   int
}

func (k key) String() string {
	return fmt.Sprintf("%s\x00%s\x00%d", k.source, k.keyword, k.block)
}

// Manager caches windows keyed by (source, keyword, block pages). It is
// safe for concurrent use; concurrent misses on the same key share one
// upstream fetch.
type Manager struct {
	pageSize int

	mu      sync.Mutex
	windows map[key]*Window
	group   singleflight.Group
}

// NewManager returns a Manager fetching pageSize records per page.
func NewManager(pageSize int) *Manager {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Manager{pageSize: pageSize, windows: make(map[key]*Window)}
}

// PageSize returns the page size used for every fetch.
func (m *Manager) PageSize() int { return m.pageSize }

// Fetch returns the window covering the first blockPages pages of keyword
// from a. A cached window is returned as-is with no upstream call.
//
// On a miss pages are fetched in order until the block is full or the
// source returns an empty or short page. Sources implementing
// source.SingleShot are fetched with one call and a block derived from
// their row cap.
//
// Failures are never cached. An error on the first page yields an empty
// window; an error on a later page yields the partial window gathered so
// far. Both come back with the error.
func (m *Manager) Fetch(ctx context.Context, a source.Adapter, keyword string, blockPages int) (*Window, error) {
	if ss, ok := a.(source.SingleShot); ok {
		return m.fetchSingleShot(ctx, a, ss.MaxRecords(), keyword)
	}
	if blockPages < 1 {
		blockPages = 1
	}
	k := key{source: a.Name(), keyword: keyword, block: blockPages}
	if w := m.cached(k); w != nil {
		return w, nil
	}

	v, err, _ := m.group.Do(k.String(), func() (any, error) {
		if w := m.cached(k); w != nil {
			return w, nil
		}
		w, err := m.fill(ctx, a, k, m.base(k))
		if err == nil {
			m.store(k, w)
		}
		return w, err
	})
	w, _ := v.(*Window)
	return w, err
}

func (m *Manager) fetchSingleShot(ctx context.Context, a source.Adapter, maxRecords int, keyword string) (*Window, error) {
	k := key{source: a.Name(), keyword: keyword, block: ceilDiv(maxRecords, m.pageSize)}
	if maxRecords <= 0 {
		return m.emptyWindow(k, true), nil
	}
	if w := m.cached(k); w != nil {
		return w, nil
	}

	v, err, _ := m.group.Do(k.String(), func() (any, error) {
		if w := m.cached(k); w != nil {
			return w, nil
		}
		slog.Debug("prefetch miss", "source", k.source, "keyword", k.keyword, "rows", maxRecords)
		page, err := a.Search(ctx, keyword, 1, maxRecords)
		if err != nil {
			return m.emptyWindow(k, false), err
		}
		recs := page.Records
		if len(recs) > maxRecords {
			recs = recs[:maxRecords]
		}
		w := m.emptyWindow(k, true)
		w.Records = recs
		w.DeclaredTotal = page.Total
		w.PagesFetched = ceilDiv(len(recs), m.pageSize)
		m.store(k, w)
		return w, nil
	})
	w, _ := v.(*Window)
	return w, err
}

// fill fetches the pages of k's block not already covered by base.
func (m *Manager) fill(ctx context.Context, a source.Adapter, k key, base *Window) (*Window, error) {
	w := m.emptyWindow(k, false)
	start := 1
	if base != nil {
		w.Records = append([]types.Record(nil), base.Records...)
		w.DeclaredTotal = base.DeclaredTotal
		w.PagesFetched = base.PagesFetched
		w.Exhausted = base.Exhausted
		start = base.PagesFetched + 1
	}
	slog.Debug("prefetch miss", "source", k.source, "keyword", k.keyword,
		"block_pages", k.block, "from_page", start)

	for p := start; p <= k.block && !w.Exhausted; p++ {
		if err := ctx.Err(); err != nil {
			return w, err
		}
		page, err := a.Search(ctx, k.keyword, p, m.pageSize)
		if err != nil {
			return w, err
		}
		if w.DeclaredTotal == 0 {
			w.DeclaredTotal = page.Total
		}
		if len(page.Records) == 0 {
			w.Exhausted = true
			break
		}
		w.Records = append(w.Records, page.Records...)
		w.PagesFetched = p
		if len(page.Records) < m.pageSize || (w.DeclaredTotal > 0 && len(w.Records) >= w.DeclaredTotal) {
			w.Exhausted = true
		}
	}

	if limit := k.block * m.pageSize; len(w.Records) > limit {
		w.Records = w.Records[:limit]
	}
	return w, nil
}

func (m *Manager) emptyWindow(k key, exhausted bool) *Window {
	return &Window{
		Source:     k.source,
		Keyword:    k.keyword,
		BlockPages: k.block,
		PageSize:   m.pageSize,
		Exhausted:  exhausted,
	}
}

func (m *Manager) cached(k key) *Window {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.windows[k]
}

func (m *Manager) store(k key, w *Window) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windows[k] = w
}

// base returns the largest cached window for the same source and keyword
// with a smaller block, so growth only fetches the new pages.
func (m *Manager) base(k key) *Window {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *Window
	for wk, w := range m.windows {
		if wk.source != k.source || wk.keyword != k.keyword || wk.block >= k.block {
			continue
		}
		if best == nil || w.BlockPages > best.BlockPages {
			best = w
		}
	}
	return best
}

// Invalidate drops every cached window whose keyword differs from keyword.
func (m *Manager) Invalidate(keyword string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.windows {
		if k.keyword != keyword {
			delete(m.windows, k)
		}
	}
}

// Len returns the number of cached windows.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// BlockFor returns the block size, in pages, needed to display page: the
// smallest multiple of blockSize not below page, clamped to totalPages
// when totalPages is known.
func BlockFor(page, blockSize, totalPages int) int {
	if blockSize < 1 {
		blockSize = 1
	}
	if page < 1 {
		page = 1
	}
	b := ceilDiv(page, blockSize) * blockSize
	if totalPages > 0 && b > totalPages {
		b = totalPages
	}
	return b
}

func ceilDiv(a, b int) int {
	if b <= 0 || a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
