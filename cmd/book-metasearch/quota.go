// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/book-metasearch/internal/quota"
)

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show today's search usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		store, err := quota.Open(cmd.Context(), cfg.Quota)
		if err != nil {
			return err
		}
		defer store.Close()

		gate := &quota.Gate{Store: store, Limit: cfg.Quota.DailyLimit}
		u, err := gate.Usage(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d of %d searches used, %d remaining\n",
			u.Date, u.Count, u.Limit, u.Remaining)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(quotaCmd)
}
