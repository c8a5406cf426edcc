// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"net/url"
	"strings"
)

// templateToken is replaced with the query-escaped value in link templates.
const templateToken = "{q}"

// LinkTemplates describes how a vendor's detail pages are addressed.
// An empty template skips its step in the fallback chain.
type LinkTemplates struct {
	// Origin is prefixed to root-relative links (e.g. "https://www.nl.go.kr").
	Origin string `json:"origin" yaml:"origin"`

	// ByIdentifier builds a detail URL from an ISBN.
	ByIdentifier string `json:"by_identifier" yaml:"by_identifier"`

	// ByControl builds a detail URL from a control or accession number.
	ByControl string `json:"by_control" yaml:"by_control"`

	// TitleSearch builds a full-text search URL on the vendor's site.
	TitleSearch string `json:"title_search" yaml:"title_search"`

	// Home is the absolute fallback.
	Home string `json:"home" yaml:"home"`
}

// DetailLink resolves a record's detail URL. The first step that yields a
// value wins: explicit link, identifier template, control-number template,
// title search, home page.
func DetailLink(explicit, identifier, control, title string, t LinkTemplates) string {
	if link := absolutize(strings.TrimSpace(explicit), t.Origin); link != "" {
		return link
	}
	if v := expand(t.ByIdentifier, identifier); v != "" {
		return v
	}
	if v := expand(t.ByControl, control); v != "" {
		return v
	}
	if v := expand(t.TitleSearch, title); v != "" {
		return v
	}
	return t.Home
}

func absolutize(link, origin string) string {
	switch {
	case link == "":
		return ""
	case strings.HasPrefix(link, "//"):
		return "https:" + link
	case strings.HasPrefix(link, "/"):
		if origin == "" {
			return link
		}
		return strings.TrimRight(origin, "/") + link
	default:
		return link
	}
}

func expand(tmpl, value string) string {
	value = strings.TrimSpace(value)
	if tmpl == "" || value == "" {
		return ""
	}
	return strings.ReplaceAll(tmpl, templateToken, url.QueryEscape(value))
}
