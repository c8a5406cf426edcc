// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by every network-backed source.
type HTTPConfig struct {
	// Timeout bounds a single adapter call (default 12s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with outbound requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries is the retry budget on HTTP 429/503 (0 disables retries).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RequestsPerSecond throttles outbound calls per source (0 = unlimited).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
}

// SearchConfig holds paging and prefetch settings for the aggregation engine.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// PageSize is the number of records shown per page (default 10).
	PageSize int `json:"page_size" yaml:"page_size"`

	// BlockPages is the prefetch block size in pages (default 10).
	BlockPages int `json:"block_pages" yaml:"block_pages"`

	// WindowSize is the number of page links exposed per source (default 10).
	WindowSize int `json:"window_size" yaml:"window_size"`
}

// WithDefaults returns a copy with zero fields replaced by defaults.
func (c SearchConfig) WithDefaults() SearchConfig {
	if c.Timeout <= 0 {
		c.Timeout = 12 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (book-metasearch)"
	}
	if c.PageSize <= 0 {
		c.PageSize = 10
	}
	if c.BlockPages <= 0 {
		c.BlockPages = 10
	}
	if c.WindowSize <= 0 {
		c.WindowSize = 10
	}
	return c
}

// SourceCredentials holds the API keys for the network-backed sources.
// An empty key means the source is not configured.
type SourceCredentials struct {
	NLKKey    string `json:"-" yaml:"-"`
	AladinKey string `json:"-" yaml:"-"`
	RISSKey   string `json:"-" yaml:"-"`

	// RISSProxyBase routes RISS calls through an HTTPS proxy when set.
	RISSProxyBase string `json:"riss_proxy_base,omitempty" yaml:"riss_proxy_base,omitempty"`
}

// DatasetConfig locates the curated local dataset.
type DatasetConfig struct {
	Path string `json:"path" yaml:"path"`
}

// QuotaConfig holds settings for the daily usage gate.
type QuotaConfig struct {
	// DailyLimit is the number of new-keyword searches allowed per calendar day.
	DailyLimit int `json:"daily_limit" yaml:"daily_limit"`

	// Driver selects the backing store: "sqlite3" (default) or "postgres".
	Driver string `json:"driver" yaml:"driver"`

	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path"`

	// DSN is the PostgreSQL connection string.
	DSN string `json:"-" yaml:"-"`
}

// ServerConfig holds settings for the HTTP surface.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`

	// RateLimit is the per-client request rate on the API (requests/second).
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit"`

	// RateBurst is the per-client burst size.
	RateBurst int `json:"rate_burst" yaml:"rate_burst"`

	// TrustProxy keys rate limiting on the first X-Forwarded-For entry.
	// Enable only behind a reverse proxy that overwrites the header.
	TrustProxy bool `json:"trust_proxy" yaml:"trust_proxy"`

	// SessionTTL expires idle sessions.
	SessionTTL time.Duration `json:"session_ttl" yaml:"session_ttl"`
}

// Config groups every configuration section.
type Config struct {
	Search      SearchConfig      `json:"search" yaml:"search"`
	Credentials SourceCredentials `json:"sources" yaml:"sources"`
	Dataset     DatasetConfig     `json:"dataset" yaml:"dataset"`
	Quota       QuotaConfig       `json:"quota" yaml:"quota"`
	Server      ServerConfig      `json:"server" yaml:"server"`
}
