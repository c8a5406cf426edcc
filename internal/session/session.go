// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session tracks, per user session, the active keyword and a
// pagination cursor for each source, and owns that session's prefetch
// cache.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/book-metasearch/internal/prefetch"
)

// Cursor is one source's pagination state.
type Cursor struct {
	// Page is the 1-based page on display.
	Page int `json:"page" yaml:"page"`

	// PrefetchedPages is the block size the source's window was fetched
	// with. It never falls below Page.
	PrefetchedPages int `json:"prefetched_pages" yaml:"prefetched_pages"`
}

// Session is one user's search state.
type Session struct {
	ID    string
	Cache *prefetch.Manager

	blockSize int

	mu       sync.Mutex
	keyword  string
	cursors  map[string]Cursor
	lastSeen time.Time
}

// New returns an empty session with a fresh ID.
func New(pageSize, blockSize int) *Session {
	if blockSize < 1 {
		blockSize = 10
	}
	return &Session{
		ID:        uuid.NewString(),
		Cache:     prefetch.NewManager(pageSize),
		blockSize: blockSize,
		cursors:   make(map[string]Cursor),
		lastSeen:  time.Now(),
	}
}

// BlockSize returns the number of pages fetched per prefetch block.
func (s *Session) BlockSize() int { return s.blockSize }

// Keyword returns the active keyword, empty when none was submitted.
func (s *Session) Keyword() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keyword
}

// Reset makes keyword active, puts every source back on page 1 with a
// single block prefetched, and drops cached windows for other keywords.
// An empty keyword clears the state.
func (s *Session) Reset(keyword string, sources []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keyword = keyword
	s.cursors = make(map[string]Cursor, len(sources))
	if keyword != "" {
		for _, name := range sources {
			s.cursors[name] = Cursor{Page: 1, PrefetchedPages: s.blockSize}
		}
	}
	s.Cache.Invalidate(keyword)
}

// Cursor returns the cursor for source. A source without one is on page 1
// with one block.
func (s *Session) Cursor(source string) Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.cursors[source]; ok {
		return c
	}
	return Cursor{Page: 1, PrefetchedPages: s.blockSize}
}

// Select computes the cursor for showing page of source. page is clamped
// to [1, totalPages] (totalPages <= 0 means unknown). grow reports whether
// the page lies beyond the prefetched block, in which case the returned
// cursor carries the enlarged block. The session is not modified.
func (s *Session) Select(source string, page, totalPages int) (c Cursor, grow bool) {
	c = s.Cursor(source)
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	c.Page = page
	if page > c.PrefetchedPages {
		c.PrefetchedPages = prefetch.BlockFor(page, s.blockSize, totalPages)
		grow = true
	}
	return c, grow
}

// Commit stores c as the cursor for source.
func (s *Session) Commit(source string, c Cursor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[source] = c
}

// Touch records activity for idle expiry.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// PageWindow returns the contiguous page numbers to offer as links: size
// pages roughly centred on current, slid to stay inside [1, totalPages].
// Fewer than size pages are returned only when totalPages < size.
func PageWindow(current, totalPages, size int) []int {
	if totalPages < 1 || size < 1 {
		return nil
	}
	if current < 1 {
		current = 1
	}
	if current > totalPages {
		current = totalPages
	}
	start := max(1, current-size/2)
	end := start + size - 1
	if end > totalPages {
		end = totalPages
		start = max(1, end-size+1)
	}
	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}
