// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/book-metasearch/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search API over HTTP",
	Long: `Serve starts a JSON API over the same engine the CLI uses. Each client gets
a session cookie holding its keyword, per-source page cursors, and prefetch
cache.

  GET    /api/search?q=<keyword>          submit a keyword (consumes quota)
  GET    /api/page?source=<s>&page=<n>    move one column
  GET    /api/session                     re-render the current view
  DELETE /api/session                     forget the session
  GET    /api/quota                       today's usage
  GET    /healthz                         liveness`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		engine, closeStore, err := buildEngine(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		return server.New(engine, cfg.Server, slog.Default()).Run(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "address to listen on")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}
