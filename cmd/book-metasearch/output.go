// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pdiddy/book-metasearch/internal/search"
)

// writeResult renders res in format. Non-table formats report per-source
// warnings on stderr; the table shows them inline.
func writeResult(w io.Writer, res search.Result, format string) error {
	switch format {
	case "", "table":
		search.FormatTable(res, w)
		return nil
	case "json":
		return search.FormatJSON(res, w)
	case "yaml":
		return search.FormatYAML(res, w)
	case "csl":
		return search.FormatCSL(res, w)
	default:
		return fmt.Errorf("unknown format %q (want table, json, yaml, or csl)", format)
	}
}

func reportWarnings(res search.Result, format string) {
	if format == "" || format == "table" {
		return
	}
	for _, w := range res.Warnings() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
}
