// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/book-metasearch/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names and structure follow the CSL-JSON/CSL-YAML schema
// so that output is consumable by Pandoc and reference managers.
type CSLItem struct {
	ID        string    `yaml:"id"`
	Type      string    `yaml:"type"`
	Title     string    `yaml:"title"`
	Author    []CSLName `yaml:"author,omitempty"`
	Publisher string    `yaml:"publisher,omitempty"`
	Issued    *CSLDate  `yaml:"issued,omitempty"`
	ISBN      string    `yaml:"ISBN,omitempty"`
	URL       string    `yaml:"URL,omitempty"`
	Source    string    `yaml:"source,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// datePattern pulls year, and optionally month and day, from free-form
// dates such as "2023", "2023-01-10" or "2023.1".
var datePattern = regexp.MustCompile(`(\d{4})(?:[-./](\d{1,2})(?:[-./](\d{1,2}))?)?`)

// authorRole strips trailing role words such as "지음" or "옮김".
var authorRole = regexp.MustCompile(`\s*(지음|지은이|저|옮김|역|엮음|편|외)\s*$`)

// FormatCSL writes the records on display in every column as a CSL-YAML
// list to w.
func FormatCSL(res Result, w io.Writer) error {
	var items []CSLItem
	for _, c := range res.Columns {
		base := (c.Page - 1) * c.PageSize
		for i, r := range c.Records {
			items = append(items, toCSLItem(r, fmt.Sprintf("%s-%d", c.Source, base+i+1)))
		}
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// toCSLItem converts a Record to a CSLItem. fallbackID is used when the
// record has no ISBN.
func toCSLItem(r types.Record, fallbackID string) CSLItem {
	item := CSLItem{
		ID:     fallbackID,
		Type:   "book",
		Title:  r.Title,
		ISBN:   r.Identifier,
		URL:    r.DetailURL,
		Source: r.Source,
	}
	if r.Identifier != "" {
		item.ID = r.Identifier
	}
	if r.Publisher != types.UnknownValue {
		item.Publisher = r.Publisher
	}
	if r.Extra["material_type"] == "학위논문" {
		item.Type = "thesis"
	}

	if r.Author != types.UnknownValue {
		for _, a := range splitAuthors(r.Author) {
			item.Author = append(item.Author, parseAuthorName(a))
		}
	}
	item.Issued = parseIssued(r.PublicationDate)
	return item
}

// splitAuthors splits a joined author string on the separators the
// sources use.
func splitAuthors(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == ',' || r == '|'
	})
	var out []string
	for _, f := range fields {
		f = strings.TrimSpace(authorRole.ReplaceAllString(strings.TrimSpace(f), ""))
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// parseAuthorName splits a full name string into CSL family/given parts.
// It splits on the last space: everything before is given, the last token
// is family. Single-token names, which include most Korean names, use the
// literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}

func parseIssued(s string) *CSLDate {
	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	var parts []int
	for _, g := range m[1:] {
		if g == "" {
			break
		}
		n, err := strconv.Atoi(g)
		if err != nil || n == 0 {
			break
		}
		parts = append(parts, n)
	}
	if len(parts) == 0 {
		return nil
	}
	return &CSLDate{DateParts: [][]int{parts}}
}
