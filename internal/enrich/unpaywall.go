// Package enrich augments merged papers with open-access locations and
// venue-quality metadata before ranking.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arjunxplorer/Research-Paper-finder/internal/cache"
	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
	"github.com/arjunxplorer/Research-Paper-finder/internal/papersources"
)

const (
	// DefaultUnpaywallBaseURL is the default Unpaywall API base URL.
	DefaultUnpaywallBaseURL = "https://api.unpaywall.org"

	// DefaultUnpaywallRateLimit is the default rate limit (requests per second).
	DefaultUnpaywallRateLimit = 10.0

	// DefaultUnpaywallBurstSize is the default burst size for rate limiting.
	DefaultUnpaywallBurstSize = 10

	// DefaultUnpaywallTimeout is the default request timeout.
	DefaultUnpaywallTimeout = 15 * time.Second

	// DefaultResolveTTL is how long resolved open-access locations are cached.
	DefaultResolveTTL = 7 * 24 * time.Hour

	// unpaywallSourceName identifies the API in errors.
	unpaywallSourceName = "Unpaywall"
)

// UnpaywallConfig holds configuration for the Unpaywall resolver.
type UnpaywallConfig struct {
	// BaseURL is the Unpaywall API base URL.
	BaseURL string

	// Email identifies the caller; required by the Unpaywall API.
	Email string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// ResolveTTL is how long resolved locations are cached.
	ResolveTTL time.Duration

	// Enabled indicates whether open-access resolution is enabled.
	Enabled bool
}

// applyDefaults sets default values for unset configuration fields.
func (c *UnpaywallConfig) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultUnpaywallBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultUnpaywallTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultUnpaywallRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultUnpaywallBurstSize
	}
	if c.ResolveTTL == 0 {
		c.ResolveTTL = DefaultResolveTTL
	}
}

// oaLocation describes one open-access copy of a work.
type oaLocation struct {
	URL       string `json:"url"`
	URLForPDF string `json:"url_for_pdf"`
}

// unpaywallWork is the subset of the Unpaywall response we consume.
type unpaywallWork struct {
	DOI            string      `json:"doi"`
	IsOA           bool        `json:"is_oa"`
	BestOALocation *oaLocation `json:"best_oa_location"`
}

// Resolution is the outcome of an open-access lookup for one DOI.
type Resolution struct {
	IsOpenAccess bool
	OAURL        string
	PDFURL       string
}

// UnpaywallResolver looks up open-access locations by DOI.
// Lookups are memoized so repeated searches touching the same works
// do not re-query the API.
type UnpaywallResolver struct {
	config     UnpaywallConfig
	httpClient *papersources.HTTPClient
	cache      *cache.Cache[Resolution]
}

// NewUnpaywallResolver creates a resolver with the given configuration.
func NewUnpaywallResolver(cfg UnpaywallConfig) *UnpaywallResolver {
	cfg.applyDefaults()

	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
	})

	return &UnpaywallResolver{
		config:     cfg,
		httpClient: httpClient,
		cache:      cache.New[Resolution](cfg.ResolveTTL, 0),
	}
}

// NewUnpaywallResolverWithHTTPClient creates a resolver with a custom HTTP
// client. This is useful for testing with mock servers.
func NewUnpaywallResolverWithHTTPClient(cfg UnpaywallConfig, httpClient *papersources.HTTPClient) *UnpaywallResolver {
	cfg.applyDefaults()

	return &UnpaywallResolver{
		config:     cfg,
		httpClient: httpClient,
		cache:      cache.New[Resolution](cfg.ResolveTTL, 0),
	}
}

// Enabled reports whether open-access resolution is turned on.
func (r *UnpaywallResolver) Enabled() bool {
	return r.config.Enabled
}

// Close releases the resolver's cache resources.
func (r *UnpaywallResolver) Close() {
	r.cache.Close()
}

// Resolve looks up the open-access status and best location for a DOI.
// A work that is not open access resolves to a zero Resolution without error.
func (r *UnpaywallResolver) Resolve(ctx context.Context, doi string) (Resolution, error) {
	doi = strings.TrimSpace(strings.ToLower(doi))
	if doi == "" {
		return Resolution{}, fmt.Errorf("empty DOI")
	}

	res, _, err := r.cache.GetOrCompute(ctx, doi, func(ctx context.Context) (Resolution, error) {
		return r.fetch(ctx, doi)
	})
	return res, err
}

// fetch queries the Unpaywall API for a single DOI.
func (r *UnpaywallResolver) fetch(ctx context.Context, doi string) (Resolution, error) {
	baseURL, err := url.Parse(r.config.BaseURL)
	if err != nil {
		return Resolution{}, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/v2/" + doi

	query := url.Values{}
	query.Set("email", r.config.Email)
	baseURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return Resolution{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Resolution{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	// Unknown DOIs are a normal outcome, not an upstream failure.
	if resp.StatusCode == http.StatusNotFound {
		return Resolution{}, nil
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return Resolution{}, domain.NewExternalAPIError(
			unpaywallSourceName,
			resp.StatusCode,
			string(body),
			nil,
		)
	}

	var work unpaywallWork
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&work); err != nil {
		return Resolution{}, fmt.Errorf("decoding response: %w", err)
	}

	res := Resolution{IsOpenAccess: work.IsOA}
	if work.BestOALocation != nil {
		res.OAURL = work.BestOALocation.URL
		res.PDFURL = work.BestOALocation.URLForPDF
		if res.OAURL == "" {
			res.OAURL = res.PDFURL
		}
	}
	return res, nil
}
