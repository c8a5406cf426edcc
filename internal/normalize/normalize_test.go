// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/book-metasearch/pkg/types"
)

// --- Lookup ---

func TestLookupVariants(t *testing.T) {
	tests := []struct {
		name    string
		raw     Raw
		aliases []string
		want    string
	}{
		{"exact", Raw{"title": "Go"}, []string{"title"}, "Go"},
		{"uppercase key", Raw{"TITLE": "Go"}, []string{"title"}, "Go"},
		{"lowercase key", Raw{"title": "Go"}, []string{"TITLE"}, "Go"},
		{"capitalized key", Raw{"Title": "Go"}, []string{"title"}, "Go"},
		{"trailing space alias", Raw{"서명": "딥러닝"}, []string{"서명 "}, "딥러닝"},
		{"trailing space key", Raw{"서명 ": "딥러닝"}, []string{"서명 "}, "딥러닝"},
		{"first alias wins", Raw{"a": "1", "b": "2"}, []string{"b", "a"}, "2"},
		{"skips blank values", Raw{"a": "  ", "b": "2"}, []string{"a", "b"}, "2"},
		{"trims value", Raw{"a": "  x \n"}, []string{"a"}, "x"},
		{"missing", Raw{"a": "1"}, []string{"z"}, ""},
		{"no aliases", Raw{"a": "1"}, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Lookup(tt.raw, tt.aliases...))
		})
	}
}

func TestLookupContaining(t *testing.T) {
	raw := Raw{
		"ISBN(세트)": "",
		"eISBN":     "9791162243664",
		"title":     "x",
	}
	assert.Equal(t, "9791162243664", LookupContaining(raw, "isbn"))
	assert.Equal(t, "", LookupContaining(raw, "issn"))
	assert.Equal(t, "", LookupContaining(raw, ""))
}

func TestLookupContainingIsDeterministic(t *testing.T) {
	raw := Raw{"b_isbn": "2", "a_isbn": "1", "c_isbn": "3"}
	for i := 0; i < 20; i++ {
		assert.Equal(t, "1", LookupContaining(raw, "ISBN"))
	}
}

// --- ISBN extraction ---

func TestExtractISBN(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"9788966262281", "9788966262281"},
		{"8966262287 9788966262281 (93000)", "9788966262281"},
		{"9788966262281 8966262287", "9788966262281"},
		{"89-6626-228-7", "8966262287"},
		{"978-89-6626-228-1", "9788966262281"},
		{"ISBN 0-306-40615-x", "030640615X"},
		{"no code here", ""},
		{"12345", ""},
		{"", ""},
		{"979116224366", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractISBN(tt.input))
		})
	}
}

// --- Detail link chain ---

var testLinks = LinkTemplates{
	Origin:       "https://vendor.example",
	ByIdentifier: "https://vendor.example/isbn/{q}",
	ByControl:    "https://vendor.example/item/{q}",
	TitleSearch:  "https://vendor.example/search?q={q}",
	Home:         "https://vendor.example/",
}

func TestDetailLinkChain(t *testing.T) {
	tests := []struct {
		name                              string
		explicit, identifier, control, ti string
		want                              string
	}{
		{"explicit absolute", "https://other.example/x", "9788966262281", "C1", "T", "https://other.example/x"},
		{"explicit root-relative", "/detail/1", "", "", "", "https://vendor.example/detail/1"},
		{"protocol-relative", "//cdn.example/x", "", "", "", "https://cdn.example/x"},
		{"identifier only", "", "9788966262281", "", "", "https://vendor.example/isbn/9788966262281"},
		{"control number", "", "", "KMO2023", "T", "https://vendor.example/item/KMO2023"},
		{"title search", "", "", "", "딥러닝 입문", "https://vendor.example/search?q=%EB%94%A5%EB%9F%AC%EB%8B%9D+%EC%9E%85%EB%AC%B8"},
		{"home", "", "", "", "", "https://vendor.example/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetailLink(tt.explicit, tt.identifier, tt.control, tt.ti, testLinks)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetailLinkSkipsEmptyTemplates(t *testing.T) {
	links := LinkTemplates{TitleSearch: "https://v.example/s?q={q}"}
	assert.Equal(t, "https://v.example/s?q=Go", DetailLink("", "9788966262281", "C1", "Go", links))
	assert.Equal(t, "", DetailLink("", "", "", "", LinkTemplates{}))
	assert.Equal(t, "/x", DetailLink("/x", "", "", "", LinkTemplates{}))
}

// --- Profile ---

func TestProfileNormalize(t *testing.T) {
	p := Profile{
		Source:         "vendor",
		Title:          []string{"title_info", "title"},
		Author:         []string{"author_info"},
		Publisher:      []string{"pub_info"},
		Date:           []string{"pub_year_info"},
		Identifier:     []string{"isbn"},
		IdentifierHint: "isbn",
		Link:           []string{"detail_link"},
		Control:        []string{"control_no"},
		Extras:         map[string][]string{"holdings": {"place_info"}},
		Links:          testLinks,
	}

	got := p.Normalize(Raw{
		"TITLE_INFO":    "딥러닝 입문",
		"author_info":   "홍길동",
		"pub_year_info": "2023",
		"ISBN":          "8966262287 9788966262281",
		"place_info":    "서울관",
	})

	assert.Equal(t, types.Record{
		Source:          "vendor",
		Title:           "딥러닝 입문",
		Author:          "홍길동",
		Publisher:       types.UnknownValue,
		PublicationDate: "2023",
		Identifier:      "9788966262281",
		DetailURL:       "https://vendor.example/isbn/9788966262281",
		Extra:           map[string]string{"holdings": "서울관"},
	}, got)
}

func TestProfileNormalizeDefaults(t *testing.T) {
	p := Profile{Source: "vendor", Title: []string{"title"}, Links: testLinks}

	got := p.Normalize(Raw{})
	assert.Equal(t, types.UntitledPlaceholder, got.Title)
	assert.Equal(t, types.UnknownValue, got.Author)
	assert.Equal(t, types.UnknownValue, got.Publisher)
	assert.Empty(t, got.Identifier)
	assert.Nil(t, got.Extra)
	// The placeholder is never used to build a title search.
	assert.Equal(t, testLinks.Home, got.DetailURL)
}

func TestProfileIdentifierHint(t *testing.T) {
	p := Profile{Identifier: []string{"isbn13"}, IdentifierHint: "isbn"}
	got := p.Normalize(Raw{"set_isbn": "978-89-6626-228-1"})
	assert.Equal(t, "9788966262281", got.Identifier)
}

func TestProfileFieldHints(t *testing.T) {
	hinted := Profile{
		Title:         []string{"title_info", "title"},
		Author:        []string{"author_info"},
		Publisher:     []string{"pub_info"},
		Date:          []string{"pub_year_info"},
		TitleHint:     "title",
		AuthorHint:    "author",
		PublisherHint: "publish",
		DateHint:      "date",
	}
	unhinted := hinted
	unhinted.TitleHint, unhinted.AuthorHint, unhinted.PublisherHint, unhinted.DateHint = "", "", "", ""

	tests := []struct {
		name          string
		profile       Profile
		raw           Raw
		wantTitle     string
		wantAuthor    string
		wantPublisher string
		wantDate      string
	}{
		{
			name:    "renamed keys caught by hints",
			profile: hinted,
			raw: Raw{
				"main_title":     "딥러닝 입문",
				"first_author":   "홍길동",
				"publisher_name": "한빛",
				"issue_date":     "2023-01-10",
			},
			wantTitle:     "딥러닝 입문",
			wantAuthor:    "홍길동",
			wantPublisher: "한빛",
			wantDate:      "2023-01-10",
		},
		{
			name:    "aliases win over hints",
			profile: hinted,
			raw: Raw{
				"title_info":  "딥러닝 입문",
				"sub_title":   "부제",
				"author_info": "홍길동",
				"co_author":   "김철수",
			},
			wantTitle:     "딥러닝 입문",
			wantAuthor:    "홍길동",
			wantPublisher: types.UnknownValue,
		},
		{
			name:          "hint matches case-insensitively",
			profile:       hinted,
			raw:           Raw{"BookTitle": "Go 언어", "PUBLISHER_NM": "에이콘"},
			wantTitle:     "Go 언어",
			wantAuthor:    types.UnknownValue,
			wantPublisher: "에이콘",
		},
		{
			name:    "no hints leaves defaults",
			profile: unhinted,
			raw: Raw{
				"main_title":     "딥러닝 입문",
				"first_author":   "홍길동",
				"publisher_name": "한빛",
			},
			wantTitle:     types.UntitledPlaceholder,
			wantAuthor:    types.UnknownValue,
			wantPublisher: types.UnknownValue,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.profile.Normalize(tt.raw)
			assert.Equal(t, tt.wantTitle, got.Title)
			assert.Equal(t, tt.wantAuthor, got.Author)
			assert.Equal(t, tt.wantPublisher, got.Publisher)
			assert.Equal(t, tt.wantDate, got.PublicationDate)
		})
	}
}

func TestNormalizeAllKeepsOrder(t *testing.T) {
	p := Profile{Title: []string{"t"}}
	got := p.NormalizeAll([]Raw{{"t": "a"}, {"t": "b"}, {"t": "c"}})
	var titles []string
	for _, r := range got {
		titles = append(titles, r.Title)
	}
	assert.Equal(t, []string{"a", "b", "c"}, titles)
}
