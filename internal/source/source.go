// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source queries the four book sources (the curated local dataset,
// the national library catalog, the Aladin bookstore and the RISS academic
// repository) and normalizes their records.
//
// Every adapter honors the same failure contract: on any missing
// credential, network, timeout or parse failure it returns an empty Page
// together with an error wrapping exactly one of the sentinels below.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/book-metasearch/internal/httputil"
	"github.com/pdiddy/book-metasearch/pkg/types"
)

// Error taxonomy.
var (
	ErrNotConfigured = errors.New("source not configured")
	ErrTimeout       = errors.New("source timed out")
	ErrTransport     = errors.New("source request failed")
	ErrParse         = errors.New("source response malformed")
)

// Source names, in the fixed column order.
const (
	NameLocal  = "local"
	NameNLK    = "nlk"
	NameAladin = "aladin"
	NameRISS   = "riss"
)

// maxBodyBytes bounds a single upstream response.
const maxBodyBytes = 8 << 20

// Adapter queries one source for one page of results.
type Adapter interface {
	Name() string
	Search(ctx context.Context, keyword string, page, pageSize int) (Page, error)
}

// SingleShot is implemented by sources whose upstream cannot paginate
// beyond a fixed row cap. Such a source is fetched once with
// Search(ctx, keyword, 1, MaxRecords()).
type SingleShot interface {
	MaxRecords() int
}

// Page is one page of normalized records plus the source's declared total.
type Page struct {
	Records []types.Record
	Total   int
}

// Label returns the human-readable column heading for a source name.
func Label(name string) string {
	switch name {
	case NameLocal:
		return "Local dataset"
	case NameNLK:
		return "National Library of Korea"
	case NameAladin:
		return "Aladin"
	case NameRISS:
		return "RISS"
	default:
		return name
	}
}

// Remote carries the HTTP plumbing shared by the network-backed adapters.
type Remote struct {
	Client  *http.Client
	Config  types.HTTPConfig
	Limiter *rate.Limiter
}

func (r Remote) client() *http.Client {
	if r.Client != nil {
		return r.Client
	}
	return &http.Client{Timeout: r.timeout()}
}

func (r Remote) timeout() time.Duration {
	if r.Config.Timeout > 0 {
		return r.Config.Timeout
	}
	return 12 * time.Second
}

// get issues one GET against endpoint and returns the response body. The
// call is bounded by the configured timeout regardless of ctx.
func (r Remote) get(ctx context.Context, name, endpoint string, params url.Values) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	u := endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: creating request: %v", ErrTransport, name, err)
	}
	if r.Config.UserAgent != "" {
		req.Header.Set("User-Agent", r.Config.UserAgent)
	}
	req.Header.Set("Accept", "application/xml, text/xml, */*")

	resp, err := httputil.Do(ctx, r.client(), req, httputil.Policy{
		MaxRetries: r.Config.MaxRetries,
		Limiter:    r.Limiter,
	})
	if err != nil {
		return nil, classify(name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned HTTP %d", ErrTransport, name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classify(name, err)
	}
	return body, nil
}

// classify maps a transport-level failure onto the taxonomy.
func classify(name string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s: %v", ErrTimeout, name, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrTransport, name, err)
}

// clampPageSize bounds the requested page size to [1, limit] (limit <= 0
// means no upper bound).
func clampPageSize(size, limit int) int {
	if size < 1 {
		size = 1
	}
	if limit > 0 && size > limit {
		size = limit
	}
	return size
}
