// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Store holds live sessions in memory and expires idle ones.
type Store struct {
	ttl      time.Duration
	pageSize int
	block    int
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore returns a store creating sessions with the given paging
// settings. A non-positive ttl disables expiry.
func NewStore(ttl time.Duration, pageSize, blockSize int) *Store {
	return &Store{
		ttl:      ttl,
		pageSize: pageSize,
		block:    blockSize,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id and marks it active. A session idle for
// longer than the TTL is removed and reported as missing, whether or not
// Sweep has run.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.expired(sess) {
		s.mu.Lock()
		if cur, still := s.sessions[id]; still && s.expired(cur) {
			delete(s.sessions, id)
		}
		s.mu.Unlock()
		return nil, false
	}
	sess.Touch(s.now())
	return sess, true
}

func (s *Store) expired(sess *Session) bool {
	return s.ttl > 0 && sess.idleSince().Before(s.now().Add(-s.ttl))
}

// Create registers and returns a new session.
func (s *Store) Create() *Session {
	sess := New(s.pageSize, s.block)
	sess.Touch(s.now())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return sess
}

// GetOrCreate returns the session for id, creating a new one when id is
// unknown or expired. created reports which happened.
func (s *Store) GetOrCreate(id string) (sess *Session, created bool) {
	if id != "" {
		if sess, ok := s.Get(id); ok {
			return sess, false
		}
	}
	return s.Create(), true
}

// Delete removes the session for id.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Store) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Debug("expired idle sessions", "count", n, "live", s.Len())
			}
		}
	}
}
