// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/book-metasearch/internal/normalize"
)

// localTitleFields are the title column spellings seen in the curated
// dataset exports, in priority order.
var localTitleFields = []string{"서명", "서명 ", "서명(국문)", "자료명", "제목", "Title", "title", "TITLE"}

// LocalProfile maps the curated dataset's columns onto Record fields.
var LocalProfile = normalize.Profile{
	Source:         NameLocal,
	Title:          localTitleFields,
	Author:         []string{"저자", "저자명", "Author"},
	Publisher:      []string{"발행자", "출판사", "Publisher"},
	Date:           []string{"발행년도", "발행연도", "Year"},
	Identifier:     []string{"ISBN", "isbn"},
	TitleHint:      "title",
	AuthorHint:     "author",
	PublisherHint:  "publish",
	DateHint:       "date",
	IdentifierHint: "isbn",
	Link:           []string{"URL", "url", "링크"},
	Control:        []string{"등록번호"},
	Extras: map[string][]string{
		"registration_number": {"등록번호"},
		"call_number":         {"청구기호"},
	},
}

// LocalAdapter matches a keyword against the in-memory curated dataset. It
// implements SingleShot: the whole hit list is produced by one call.
type LocalAdapter struct {
	Records []normalize.Raw
}

// Name returns the source identifier.
func (a *LocalAdapter) Name() string { return NameLocal }

// MaxRecords returns the dataset size, the upper bound on hits.
func (a *LocalAdapter) MaxRecords() int { return len(a.Records) }

// Search returns one page of the records with a title field containing
// keyword, ignoring case and Unicode normalization form.
func (a *LocalAdapter) Search(_ context.Context, keyword string, page, pageSize int) (Page, error) {
	hits := a.Match(keyword)
	if len(hits) == 0 {
		return Page{}, nil
	}
	pageSize = clampPageSize(pageSize, 0)
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(hits) {
		return Page{Total: len(hits)}, nil
	}
	end := min(start+pageSize, len(hits))
	return Page{
		Records: LocalProfile.NormalizeAll(hits[start:end]),
		Total:   len(hits),
	}, nil
}

// Match returns every raw record matching keyword, in dataset order.
func (a *LocalAdapter) Match(keyword string) []normalize.Raw {
	fold := cases.Fold()
	needle := fold.String(norm.NFC.String(strings.TrimSpace(keyword)))
	if needle == "" {
		return nil
	}

	var hits []normalize.Raw
	for _, rec := range a.Records {
		if titleContains(rec, fold, needle) {
			hits = append(hits, rec)
		}
	}
	return hits
}

// titleContains reports whether any title field of rec contains needle.
func titleContains(rec normalize.Raw, fold cases.Caser, needle string) bool {
	for _, k := range localTitleFields {
		v := strings.TrimSpace(rec[k])
		if v == "" {
			continue
		}
		if strings.Contains(fold.String(norm.NFC.String(v)), needle) {
			return true
		}
	}
	return false
}
