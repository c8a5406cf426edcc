// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/viper"

	"github.com/pdiddy/book-metasearch/internal/normalize"
	"github.com/pdiddy/book-metasearch/internal/quota"
	"github.com/pdiddy/book-metasearch/internal/secrets"
	"github.com/pdiddy/book-metasearch/internal/source"
	"github.com/pdiddy/book-metasearch/pkg/types"
)

func setDefaults() {
	viper.SetDefault("search.timeout", "12s")
	viper.SetDefault("search.max_retries", 2)
	viper.SetDefault("search.page_size", 10)
	viper.SetDefault("search.block_pages", 10)
	viper.SetDefault("search.window_size", 10)

	viper.SetDefault("dataset.path", "dataset.json")

	viper.SetDefault("quota.daily_limit", quota.DefaultDailyLimit)
	viper.SetDefault("quota.driver", "sqlite3")
	viper.SetDefault("quota.path", "book-metasearch.db")

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.rate_limit", 5)
	viper.SetDefault("server.rate_burst", 10)
	viper.SetDefault("server.trust_proxy", false)
	viper.SetDefault("server.session_ttl", "30m")

	viper.SetDefault("aladin.query_type", "Title")
}

// loadConfig assembles the configuration from viper, filling credentials
// that are not set in the config file or environment from the secrets
// directory.
func loadConfig() types.Config {
	cfg := types.Config{
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:           viper.GetDuration("search.timeout"),
				UserAgent:         viper.GetString("search.user_agent"),
				MaxRetries:        viper.GetInt("search.max_retries"),
				RequestsPerSecond: viper.GetFloat64("search.requests_per_second"),
			},
			PageSize:   viper.GetInt("search.page_size"),
			BlockPages: viper.GetInt("search.block_pages"),
			WindowSize: viper.GetInt("search.window_size"),
		},
		Credentials: types.SourceCredentials{
			NLKKey:        viper.GetString("sources.nlk_key"),
			AladinKey:     viper.GetString("sources.aladin_key"),
			RISSKey:       viper.GetString("sources.riss_key"),
			RISSProxyBase: viper.GetString("sources.riss_proxy_base"),
		},
		Dataset: types.DatasetConfig{Path: viper.GetString("dataset.path")},
		Quota: types.QuotaConfig{
			DailyLimit: viper.GetInt("quota.daily_limit"),
			Driver:     viper.GetString("quota.driver"),
			Path:       viper.GetString("quota.path"),
			DSN:        viper.GetString("quota.dsn"),
		},
		Server: types.ServerConfig{
			Addr:       viper.GetString("server.addr"),
			RateLimit:  viper.GetFloat64("server.rate_limit"),
			RateBurst:  viper.GetInt("server.rate_burst"),
			TrustProxy: viper.GetBool("server.trust_proxy"),
			SessionTTL: viper.GetDuration("server.session_ttl"),
		},
	}
	cfg.Search = cfg.Search.WithDefaults()
	cfg.Credentials = secrets.Credentials(cfg.Credentials, loadedSecrets)
	if cfg.Quota.DSN == "" {
		cfg.Quota.DSN = loadedSecrets[secrets.PostgresDSN]
	}
	return cfg
}

// linkTemplates returns defaults with any "links.<source>.*" keys from the
// configuration applied on top.
func linkTemplates(name string, defaults normalize.LinkTemplates) normalize.LinkTemplates {
	t := defaults
	override := func(field *string, key string) {
		if v := viper.GetString("links." + name + "." + key); v != "" {
			*field = v
		}
	}
	override(&t.Origin, "origin")
	override(&t.ByIdentifier, "by_identifier")
	override(&t.ByControl, "by_control")
	override(&t.TitleSearch, "title_search")
	override(&t.Home, "home")
	return t
}

// sourceLinks returns the configured templates for every remote source.
func sourceLinks() map[string]normalize.LinkTemplates {
	return map[string]normalize.LinkTemplates{
		source.NameNLK:    linkTemplates(source.NameNLK, source.NLKLinks),
		source.NameAladin: linkTemplates(source.NameAladin, source.AladinLinks),
		source.NameRISS:   linkTemplates(source.NameRISS, source.RISSLinks),
	}
}
