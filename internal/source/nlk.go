// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/book-metasearch/internal/normalize"
)

// nlkAPIBase is the National Library of Korea OpenAPI search endpoint.
// Declared as a var so tests can substitute an httptest server.
var nlkAPIBase = "https://www.nl.go.kr/NL/search/openApi/search.do"

// NLKLinks are the catalog's detail-page templates.
var NLKLinks = normalize.LinkTemplates{
	Origin:       "https://www.nl.go.kr",
	ByIdentifier: "https://www.nl.go.kr/seoji/contents/S80100000000.do?schType=simple&schStr={q}",
	ByControl:    "https://www.nl.go.kr/NL/contents/search.do?viewKey={q}&viewType=AH1",
	TitleSearch:  "https://www.nl.go.kr/NL/contents/search.do?srchTarget=total&kwd={q}",
	Home:         "https://www.nl.go.kr/",
}

// NLKProfile maps catalog item fields onto Record fields.
var NLKProfile = normalize.Profile{
	Source:         NameNLK,
	Title:          []string{"title_info", "title"},
	Author:         []string{"author_info", "author"},
	Publisher:      []string{"pub_info", "publisher"},
	Date:           []string{"pub_year_info", "pub_year"},
	Identifier:     []string{"isbn"},
	TitleHint:      "title",
	AuthorHint:     "author",
	PublisherHint:  "publish",
	DateHint:       "date",
	IdentifierHint: "isbn",
	Link:           []string{"detail_link"},
	Control:        []string{"control_no", "id"},
	Extras: map[string][]string{
		"type":        {"type_name"},
		"place":       {"place_info"},
		"call_number": {"call_no"},
	},
	Links: NLKLinks,
}

// NLKAdapter queries the national library catalog, one upstream call per
// page.
type NLKAdapter struct {
	Remote
	APIKey string

	// Links overrides the default detail-page templates when non-zero.
	Links normalize.LinkTemplates
}

// Name returns the source identifier.
func (a *NLKAdapter) Name() string { return NameNLK }

// Search fetches one page of catalog records for keyword.
func (a *NLKAdapter) Search(ctx context.Context, keyword string, page, pageSize int) (Page, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return Page{}, nil
	}
	if a.APIKey == "" {
		return Page{}, fmt.Errorf("%w: %s: missing api key", ErrNotConfigured, NameNLK)
	}
	if page < 1 {
		page = 1
	}
	pageSize = clampPageSize(pageSize, 0)

	params := url.Values{
		"key":        {a.APIKey},
		"apiType":    {"xml"},
		"srchTarget": {"total"},
		"kwd":        {keyword},
		"pageNum":    {strconv.Itoa(page)},
		"pageSize":   {strconv.Itoa(pageSize)},
		"category":   {"도서"},
	}
	body, err := a.get(ctx, NameNLK, nlkAPIBase, params)
	if err != nil {
		return Page{}, err
	}

	set, err := decodeItems(NameNLK, body, "item", "total")
	if err != nil {
		return Page{}, err
	}
	if len(set.Items) > pageSize {
		set.Items = set.Items[:pageSize]
	}
	return Page{Records: a.profile().NormalizeAll(set.Items), Total: set.Total}, nil
}

func (a *NLKAdapter) profile() normalize.Profile {
	p := NLKProfile
	if a.Links != (normalize.LinkTemplates{}) {
		p.Links = a.Links
	}
	return p
}
