// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"github.com/pdiddy/book-metasearch/pkg/types"
)

// Profile lists, per target field, the raw key aliases one source is known
// to use, in priority order.
type Profile struct {
	Source string

	Title      []string
	Author     []string
	Publisher  []string
	Date       []string
	Identifier []string
	Link       []string
	Control    []string

	// The hints are key substrings tried when no alias for that field
	// matches (e.g. "isbn" catches "ISBN(세트)", "title" catches
	// "main_title"). An empty hint disables the fallback.
	TitleHint      string
	AuthorHint     string
	PublisherHint  string
	DateHint       string
	IdentifierHint string

	// Extras maps a stable extra-field name to the raw aliases feeding it.
	Extras map[string][]string

	Links LinkTemplates
}

// Normalize produces one Record from one raw upstream record.
func (p Profile) Normalize(raw Raw) types.Record {
	title := lookupHinted(raw, p.Title, p.TitleHint)
	identifier := ExtractISBN(lookupHinted(raw, p.Identifier, p.IdentifierHint))
	control := Lookup(raw, p.Control...)

	r := types.Record{
		Source:          p.Source,
		Title:           orDefault(title, types.UntitledPlaceholder),
		Author:          orDefault(lookupHinted(raw, p.Author, p.AuthorHint), types.UnknownValue),
		Publisher:       orDefault(lookupHinted(raw, p.Publisher, p.PublisherHint), types.UnknownValue),
		PublicationDate: lookupHinted(raw, p.Date, p.DateHint),
		Identifier:      identifier,
		DetailURL:       DetailLink(Lookup(raw, p.Link...), identifier, control, title, p.Links),
	}

	for name, aliases := range p.Extras {
		if v := Lookup(raw, aliases...); v != "" {
			if r.Extra == nil {
				r.Extra = make(map[string]string, len(p.Extras))
			}
			r.Extra[name] = v
		}
	}
	return r
}

// NormalizeAll applies Normalize to every raw record, preserving order.
func (p Profile) NormalizeAll(raws []Raw) []types.Record {
	out := make([]types.Record, 0, len(raws))
	for _, raw := range raws {
		out = append(out, p.Normalize(raw))
	}
	return out
}

// lookupHinted tries the aliases first, then the first key containing hint.
func lookupHinted(raw Raw, aliases []string, hint string) string {
	if v := Lookup(raw, aliases...); v != "" || hint == "" {
		return v
	}
	return LookupContaining(raw, hint)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
