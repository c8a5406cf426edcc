// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/book-metasearch/internal/prefetch"
	"github.com/pdiddy/book-metasearch/internal/session"
	"github.com/pdiddy/book-metasearch/pkg/types"
)

// QueryFile is the on-disk snapshot of a search: the keyword, where each
// column was, and the rows on display when it was saved. The CLI has no
// long-lived session, so a query file is how a later invocation resumes
// paging without submitting the keyword again.
type QueryFile struct {
	Keyword string          `yaml:"keyword"`
	Config  QueryFileConfig `yaml:"config"`
	Cursors []CursorState   `yaml:"cursors"`
	Columns []Column        `yaml:"columns"`
	Summary QuerySummary    `yaml:"summary"`
}

// QueryFileConfig stores the paging settings that produced the snapshot.
type QueryFileConfig struct {
	PageSize   int `yaml:"page_size"`
	BlockPages int `yaml:"block_pages"`
	WindowSize int `yaml:"window_size"`
}

// CursorState is one source's saved position.
type CursorState struct {
	Source          string `yaml:"source"`
	Page            int    `yaml:"page"`
	PrefetchedPages int    `yaml:"prefetched_pages"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Shown     int       `yaml:"shown"`
	Warnings  []string  `yaml:"warnings,omitempty"`
	Timestamp time.Time `yaml:"timestamp"`
}

// NewQueryFile captures res and the cursors of sess.
func NewQueryFile(res Result, sess *session.Session, cfg types.SearchConfig) QueryFile {
	cfg = cfg.WithDefaults()
	qf := QueryFile{
		Keyword: res.Keyword,
		Config: QueryFileConfig{
			PageSize:   cfg.PageSize,
			BlockPages: cfg.BlockPages,
			WindowSize: cfg.WindowSize,
		},
		Columns: res.Columns,
		Summary: QuerySummary{
			Warnings:  res.Warnings(),
			Timestamp: time.Now(),
		},
	}
	for _, c := range res.Columns {
		cur := sess.Cursor(c.Source)
		qf.Cursors = append(qf.Cursors, CursorState{
			Source:          c.Source,
			Page:            cur.Page,
			PrefetchedPages: cur.PrefetchedPages,
		})
		qf.Summary.Shown += len(c.Records)
	}
	return qf
}

// WriteQueryFile saves qf to a YAML file.
func WriteQueryFile(path string, qf QueryFile) error {
	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}

// Resume makes the saved search active in sess, restores every known
// source's cursor and renders. A keyword already admitted today continues
// without consuming quota; any other keyword passes the quota gate like a
// new submission, and when the quota is spent Resume returns
// quota.ErrQuotaExceeded without touching sess or querying a source.
// Cursors for sources the engine does not have are ignored.
func (e *Engine) Resume(ctx context.Context, sess *session.Session, qf *QueryFile) (Result, error) {
	if qf == nil || strings.TrimSpace(qf.Keyword) == "" {
		return Result{SessionID: sess.ID}, ErrNoActiveSearch
	}
	keyword := strings.TrimSpace(qf.Keyword)

	if e.Quota != nil {
		admitted, err := e.Quota.Admitted(ctx, keyword)
		if err != nil {
			return Result{SessionID: sess.ID, Keyword: keyword}, fmt.Errorf("checking admitted keyword: %w", err)
		}
		if !admitted {
			if err := e.Quota.AdmitKeyword(ctx, keyword); err != nil {
				return Result{SessionID: sess.ID, Keyword: keyword, Usage: e.usage(ctx)}, err
			}
		}
	}

	sess.Reset(keyword, e.Sources())
	for _, cs := range qf.Cursors {
		if e.adapter(cs.Source) == nil {
			continue
		}
		c, _ := sess.Select(cs.Source, cs.Page, 0)
		if cs.PrefetchedPages > c.PrefetchedPages {
			c.PrefetchedPages = prefetch.BlockFor(cs.PrefetchedPages, sess.BlockSize(), 0)
		}
		sess.Commit(cs.Source, c)
	}
	e.logger().Info("search resumed", "session", sess.ID, "keyword", keyword)
	return e.Render(ctx, sess), nil
}
