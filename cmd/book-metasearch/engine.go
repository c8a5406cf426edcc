// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/viper"

	"github.com/pdiddy/book-metasearch/internal/dataset"
	"github.com/pdiddy/book-metasearch/internal/httputil"
	"github.com/pdiddy/book-metasearch/internal/quota"
	"github.com/pdiddy/book-metasearch/internal/search"
	"github.com/pdiddy/book-metasearch/internal/source"
	"github.com/pdiddy/book-metasearch/pkg/types"
)

// buildEngine wires the sources and the quota gate from cfg. The returned
// close function releases the quota store.
func buildEngine(ctx context.Context, cfg types.Config) (*search.Engine, func() error, error) {
	records, info, err := dataset.Load(cfg.Dataset.Path)
	if err != nil {
		slog.Warn("local dataset unavailable", "path", info.Path, "error", err)
	} else if info.Exists {
		slog.Debug("local dataset loaded", "path", info.Path, "records", info.Count)
	}

	store, err := quota.Open(ctx, cfg.Quota)
	if err != nil {
		return nil, nil, fmt.Errorf("opening quota store: %w", err)
	}

	return &search.Engine{
		Local:  &source.LocalAdapter{Records: records},
		Remote: remoteSources(cfg),
		Quota:  &quota.Gate{Store: store, Limit: cfg.Quota.DailyLimit},
		Config: cfg.Search,
		Logger: slog.Default(),
	}, store.Close, nil
}

// remoteSources returns the network-backed adapters in column order. Each
// source gets its own limiter so one slow vendor never throttles another.
func remoteSources(cfg types.Config) []source.Adapter {
	client := &http.Client{Timeout: cfg.Search.Timeout}
	remote := func() source.Remote {
		return source.Remote{
			Client:  client,
			Config:  cfg.Search.HTTPConfig,
			Limiter: httputil.NewLimiter(cfg.Search.RequestsPerSecond),
		}
	}
	links := sourceLinks()

	return []source.Adapter{
		&source.NLKAdapter{
			Remote: remote(),
			APIKey: cfg.Credentials.NLKKey,
			Links:  links[source.NameNLK],
		},
		&source.AladinAdapter{
			Remote:    remote(),
			TTBKey:    cfg.Credentials.AladinKey,
			QueryType: viper.GetString("aladin.query_type"),
			Links:     links[source.NameAladin],
		},
		&source.RISSAdapter{
			Remote:    remote(),
			APIKey:    cfg.Credentials.RISSKey,
			ProxyBase: cfg.Credentials.RISSProxyBase,
			Links:     links[source.NameRISS],
		},
	}
}
