// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for book-metasearch:
// the normalized bibliographic record every source maps into and the
// configuration structs consumed by the search, quota, and server layers.
package types

// Placeholder values used when a source omits a field.
const (
	UntitledPlaceholder = "(untitled)"
	UnknownValue        = "unknown"
)

// Record is a bibliographic hit normalized from any source. Records are
// created fresh on every adapter call and are never mutated afterwards.
type Record struct {
	// Source identifies which adapter produced the record (e.g. "nlk", "aladin").
	Source string `json:"source" yaml:"source"`

	// Title is never empty; it falls back to UntitledPlaceholder.
	Title string `json:"title" yaml:"title"`

	// Author defaults to UnknownValue.
	Author string `json:"author" yaml:"author"`

	// Publisher defaults to UnknownValue.
	Publisher string `json:"publisher" yaml:"publisher"`

	// PublicationDate is free-form; formats differ per source and are not reconciled.
	PublicationDate string `json:"publication_date,omitempty" yaml:"publication_date,omitempty"`

	// Identifier is an ISBN-like code when one is available.
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty"`

	// DetailURL is a deep link into the source's own site.
	DetailURL string `json:"detail_url,omitempty" yaml:"detail_url,omitempty"`

	// Extra holds fields unique to one source: holdings, rating, cover,
	// material type, registration number.
	Extra map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}
