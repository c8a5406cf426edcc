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

// rissAPIBase is the RISS OpenAPI endpoint. Declared as a var so tests can
// substitute an httptest server.
var rissAPIBase = "http://www.riss.kr/openApi"

// RISSMaxRows is the vendor's hard row cap per query.
const RISSMaxRows = 100

// RISSLinks are the repository's detail-page templates.
var RISSLinks = normalize.LinkTemplates{
	Origin:      "https://www.riss.kr",
	ByControl:   "https://www.riss.kr/link?id={q}",
	TitleSearch: "https://www.riss.kr/search/Search.do?isDetailSearch=N&searchGubun=true&viewYn=OP&query={q}",
	Home:        "https://www.riss.kr/",
}

// RISSProfile maps repository metadata fields onto Record fields.
var RISSProfile = normalize.Profile{
	Source:         NameRISS,
	Title:          []string{"riss.title", "title"},
	Author:         []string{"riss.author", "author"},
	Publisher:      []string{"riss.publisher", "publisher"},
	Date:           []string{"riss.pubdate", "pubdate"},
	Identifier:     []string{"riss.isbn"},
	TitleHint:      "title",
	AuthorHint:     "author",
	PublisherHint:  "publish",
	DateHint:       "date",
	IdentifierHint: "isbn",
	Link:           []string{"url"},
	Control:        []string{"riss.controlno"},
	Extras: map[string][]string{
		"material_type": {"riss.mtype"},
		"holdings":      {"riss.holdings"},
	},
	Links: RISSLinks,
}

// RISSAdapter queries the RISS academic repository. The upstream returns
// at most RISSMaxRows rows per keyword and cannot page past them.
type RISSAdapter struct {
	Remote
	APIKey string

	// ProxyBase routes calls through an HTTPS proxy when set.
	ProxyBase string

	// Links overrides the default detail-page templates when non-zero.
	Links normalize.LinkTemplates
}

// Name returns the source identifier.
func (a *RISSAdapter) Name() string { return NameRISS }

// MaxRecords returns the row cap.
func (a *RISSAdapter) MaxRecords() int { return RISSMaxRows }

// Search fetches min(100, page*pageSize) rows in one call and returns the
// slice for page. Total is the vendor's declared total, which may exceed
// the rows actually retrievable.
func (a *RISSAdapter) Search(ctx context.Context, keyword string, page, pageSize int) (Page, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return Page{}, nil
	}
	if a.APIKey == "" {
		return Page{}, fmt.Errorf("%w: %s: missing api key", ErrNotConfigured, NameRISS)
	}
	if page < 1 {
		page = 1
	}
	pageSize = clampPageSize(pageSize, RISSMaxRows)
	rows := clampPageSize(page*pageSize, RISSMaxRows)

	params := url.Values{
		"key":      {a.APIKey},
		"version":  {"1.0"},
		"type":     {"U"},
		"rowcount": {strconv.Itoa(rows)},
		"stype":    {"ab"},
		"keyword":  {keyword},
	}
	body, err := a.get(ctx, NameRISS, a.endpoint(), params)
	if err != nil {
		return Page{}, err
	}

	set, err := decodeItems(NameRISS, body, "metadata", "totalcount")
	if err != nil {
		return Page{}, err
	}

	start := (page - 1) * pageSize
	if start >= len(set.Items) {
		return Page{Total: set.Total}, nil
	}
	end := min(start+pageSize, len(set.Items))
	return Page{Records: a.profile().NormalizeAll(set.Items[start:end]), Total: set.Total}, nil
}

func (a *RISSAdapter) endpoint() string {
	if base := strings.TrimSpace(a.ProxyBase); base != "" {
		return strings.TrimRight(base, "/") + "/"
	}
	return rissAPIBase
}

func (a *RISSAdapter) profile() normalize.Profile {
	p := RISSProfile
	if a.Links != (normalize.LinkTemplates{}) {
		p.Links = a.Links
	}
	return p
}
