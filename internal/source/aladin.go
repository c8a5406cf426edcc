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

// aladinAPIBase is the Aladin TTB item search endpoint. Declared as a var
// so tests can substitute an httptest server.
var aladinAPIBase = "http://www.aladin.co.kr/ttb/api/ItemSearch.aspx"

// aladinMaxResults is the vendor's per-call page size cap.
const aladinMaxResults = 50

// AladinLinks are the bookstore's detail-page templates.
var AladinLinks = normalize.LinkTemplates{
	Origin:       "https://www.aladin.co.kr",
	ByIdentifier: "https://www.aladin.co.kr/shop/wproduct.aspx?ISBN={q}",
	ByControl:    "https://www.aladin.co.kr/shop/wproduct.aspx?ItemId={q}",
	TitleSearch:  "https://www.aladin.co.kr/search/wsearchresult.aspx?SearchTarget=Book&SearchWord={q}",
	Home:         "https://www.aladin.co.kr/",
}

// AladinProfile maps bookstore item fields onto Record fields.
var AladinProfile = normalize.Profile{
	Source:         NameAladin,
	Title:          []string{"title"},
	Author:         []string{"author"},
	Publisher:      []string{"publisher"},
	Date:           []string{"pubDate"},
	Identifier:     []string{"isbn13", "isbn"},
	TitleHint:      "title",
	AuthorHint:     "author",
	PublisherHint:  "publish",
	DateHint:       "date",
	IdentifierHint: "isbn",
	Link:           []string{"link"},
	Control:        []string{"itemId"},
	Extras: map[string][]string{
		"cover":    {"cover"},
		"rating":   {"customerReviewRank"},
		"category": {"categoryName"},
		"price":    {"priceSales"},
	},
	Links: AladinLinks,
}

// AladinAdapter queries the Aladin bookstore, one upstream call per page.
type AladinAdapter struct {
	Remote
	TTBKey string

	// QueryType selects the vendor's search field (default "Title").
	QueryType string

	// Links overrides the default detail-page templates when non-zero.
	Links normalize.LinkTemplates
}

// Name returns the source identifier.
func (a *AladinAdapter) Name() string { return NameAladin }

// Search fetches one page of bookstore items for keyword. Page sizes above
// the vendor cap of 50 are clamped.
func (a *AladinAdapter) Search(ctx context.Context, keyword string, page, pageSize int) (Page, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return Page{}, nil
	}
	if a.TTBKey == "" {
		return Page{}, fmt.Errorf("%w: %s: missing ttb key", ErrNotConfigured, NameAladin)
	}
	if page < 1 {
		page = 1
	}
	pageSize = clampPageSize(pageSize, aladinMaxResults)

	queryType := a.QueryType
	if queryType == "" {
		queryType = "Title"
	}
	params := url.Values{
		"ttbkey":       {a.TTBKey},
		"Query":        {keyword},
		"QueryType":    {queryType},
		"MaxResults":   {strconv.Itoa(pageSize)},
		"start":        {strconv.Itoa(page)},
		"SearchTarget": {"Book"},
		"output":       {"xml"},
		"Version":      {"20131101"},
		"Cover":        {"MidBig"},
	}
	body, err := a.get(ctx, NameAladin, aladinAPIBase, params)
	if err != nil {
		return Page{}, err
	}

	set, err := decodeItems(NameAladin, body, "item", "totalResults")
	if err != nil {
		return Page{}, err
	}
	if len(set.Items) > pageSize {
		set.Items = set.Items[:pageSize]
	}
	return Page{Records: a.profile().NormalizeAll(set.Items), Total: set.Total}, nil
}

func (a *AladinAdapter) profile() normalize.Profile {
	p := AladinProfile
	if a.Links != (normalize.LinkTemplates{}) {
		p.Links = a.Links
	}
	return p
}
