// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/book-metasearch/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search every source for a keyword",
	Long: `Search sends the keyword to every configured source and prints one column
per source. Each call consumes one unit of the daily quota, including a repeat
of the previous keyword.

Use --save to keep the search in a query file; "page --from" then pages
through it without consuming quota.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		savePath, _ := cmd.Flags().GetString("save")

		cfg := loadConfig()
		engine, closeStore, err := buildEngine(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		sess := engine.NewSession()
		res, err := engine.Submit(cmd.Context(), sess, strings.Join(args, " "))
		if err != nil {
			return err
		}

		if savePath != "" {
			if err := search.WriteQueryFile(savePath, search.NewQueryFile(res, sess, cfg.Search)); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Saved search to %s\n", savePath)
		}

		reportWarnings(res, format)
		return writeResult(cmd.OutOrStdout(), res, format)
	},
}

func init() {
	searchCmd.Flags().String("format", "table", "output format: table, json, yaml, or csl")
	searchCmd.Flags().String("save", "", "write the search to a query file")

	rootCmd.AddCommand(searchCmd)
}
