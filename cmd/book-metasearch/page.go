// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/book-metasearch/internal/search"
)

var pageCmd = &cobra.Command{
	Use:   "page",
	Short: "Move one source's column of a saved search to another page",
	Long: `Page resumes a search saved with "search --save", moves the chosen source to
the requested page, prints the result, and writes the new position back to the
query file. Paging never consumes quota; a source is only called again when
the page lies beyond its prefetched block.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		sourceName, _ := cmd.Flags().GetString("source")
		page, _ := cmd.Flags().GetInt("page")
		format, _ := cmd.Flags().GetString("format")

		qf, err := search.ReadQueryFile(from)
		if err != nil {
			return err
		}

		cfg := loadConfig()
		engine, closeStore, err := buildEngine(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		sess := engine.NewSession()
		res, err := engine.Resume(cmd.Context(), sess, qf)
		if err != nil {
			return err
		}
		if sourceName != "" {
			res, err = engine.Navigate(cmd.Context(), sess, sourceName, page)
			if err != nil {
				return err
			}
		}

		if err := search.WriteQueryFile(from, search.NewQueryFile(res, sess, cfg.Search)); err != nil {
			return err
		}
		reportWarnings(res, format)
		return writeResult(cmd.OutOrStdout(), res, format)
	},
}

func init() {
	pageCmd.Flags().String("from", "", "query file written by search --save")
	pageCmd.Flags().String("source", "", "source to move (local, nlk, aladin, riss)")
	pageCmd.Flags().Int("page", 1, "page to show")
	pageCmd.Flags().String("format", "table", "output format: table, json, yaml, or csl")
	pageCmd.MarkFlagRequired("from")

	rootCmd.AddCommand(pageCmd)
}
