// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"
	"golang.org/x/text/width"
)

// Column widths for FormatTable, in terminal cells.
const (
	titleCells     = 44
	authorCells    = 18
	publisherCells = 16
)

// FormatTable writes one block per column as a human-readable table to w.
func FormatTable(res Result, w io.Writer) {
	if res.Keyword == "" {
		fmt.Fprintln(w, "No active search.")
		return
	}

	fmt.Fprintf(w, "Search: %s\n", res.Keyword)
	if res.Usage != nil {
		fmt.Fprintf(w, "Daily usage: %d/%d\n", res.Usage.Count, res.Usage.Limit)
	}

	for _, c := range res.Columns {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "== %s (%s) ==  %s\n", c.Label, c.Source, columnSummary(c))

		if len(c.Records) == 0 {
			if c.Warning != "" {
				fmt.Fprintf(w, "warning: %s\n", c.Warning)
			} else {
				fmt.Fprintln(w, "No results found.")
			}
			continue
		}

		fmt.Fprintf(w, "%-4s  %s  %s  %s  %-10s  %s\n",
			"#", pad("Title", titleCells), pad("Author", authorCells),
			pad("Publisher", publisherCells), "Date", "Identifier")
		fmt.Fprintln(w, strings.Repeat("-", 4+2+titleCells+2+authorCells+2+publisherCells+2+10+2+13))

		base := (c.Page - 1) * c.PageSize
		for i, r := range c.Records {
			fmt.Fprintf(w, "%-4d  %s  %s  %s  %-10s  %s\n",
				base+i+1,
				pad(truncate(r.Title, titleCells), titleCells),
				pad(truncate(r.Author, authorCells), authorCells),
				pad(truncate(r.Publisher, publisherCells), publisherCells),
				truncate(r.PublicationDate, 10),
				r.Identifier)
		}
		if len(c.PageWindow) > 1 {
			fmt.Fprintf(w, "pages: %s\n", formatPageWindow(c.PageWindow, c.Page))
		}
		if c.Warning != "" {
			fmt.Fprintf(w, "warning: %s\n", c.Warning)
		}
	}
}

func columnSummary(c Column) string {
	if c.TotalPages == 0 {
		return string(c.Status)
	}
	s := fmt.Sprintf("page %d/%d, %d results", c.Page, c.TotalPages, c.DeclaredTotal)
	if c.Displayed < c.DeclaredTotal {
		s += fmt.Sprintf(" (%d shown)", c.Displayed)
	}
	return s
}

func formatPageWindow(pages []int, current int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		if p == current {
			parts[i] = "[" + strconv.Itoa(p) + "]"
		} else {
			parts[i] = strconv.Itoa(p)
		}
	}
	return strings.Join(parts, " ")
}

// FormatJSON writes the result as indented JSON to w.
func FormatJSON(res Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// FormatYAML writes the result as YAML to w.
func FormatYAML(res Result, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	enc.SetIndent(2)
	return enc.Encode(res)
}

// cells returns the terminal width of s; East Asian wide and fullwidth
// runes take two cells.
func cells(s string) int {
	n := 0
	for _, r := range s {
		n += runeCells(r)
	}
	return n
}

func runeCells(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}

// truncate shortens s to at most max cells, ending with "..." when cut.
func truncate(s string, max int) string {
	if cells(s) <= max {
		return s
	}
	var b strings.Builder
	used := 0
	for _, r := range s {
		rc := runeCells(r)
		if used+rc > max-3 {
			break
		}
		b.WriteRune(r)
		used += rc
	}
	return b.String() + "..."
}

// pad right-pads s with spaces to n cells.
func pad(s string, n int) string {
	if c := cells(s); c < n {
		return s + strings.Repeat(" ", n-c)
	}
	return s
}
