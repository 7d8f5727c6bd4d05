package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
	"github.com/arjunxplorer/Research-Paper-finder/internal/papersources"
)

const (
	// DefaultBaseURL is the default Crossref API base URL.
	DefaultBaseURL = "https://api.crossref.org"

	// DefaultRateLimit is the default rate limit (5 requests per second,
	// within the polite-pool guidance).
	DefaultRateLimit = 5.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 5

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default maximum results per request.
	DefaultMaxResults = 25

	// MaxRows is the Crossref API cap on the rows parameter.
	MaxRows = 1000

	// sourceName is the human-readable name for this source.
	sourceName = "Crossref"
)

// jatsTagRegex strips JATS XML markup from Crossref abstracts.
var jatsTagRegex = regexp.MustCompile(`<[^>]+>`)

// Config holds configuration for the Crossref client.
type Config struct {
	// BaseURL is the Crossref API base URL.
	BaseURL string

	// Mailto identifies the caller to Crossref's polite pool.
	// Optional but strongly recommended.
	Mailto string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxResults is the maximum results to return per search request.
	MaxResults int

	// Enabled indicates whether this source is enabled for searches.
	Enabled bool

	// Observer receives per-request metrics observations.
	Observer papersources.RequestObserver
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
}

// Client implements the papersources.PaperSource interface for Crossref.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

// Ensure Client implements PaperSource interface.
var _ papersources.PaperSource = (*Client)(nil)

// New creates a new Crossref client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	userAgent := "ResearchPaperFinder/1.0"
	if cfg.Mailto != "" {
		userAgent = fmt.Sprintf("ResearchPaperFinder/1.0 (mailto:%s)", cfg.Mailto)
	}

	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
		UserAgent: userAgent,
		Source:    string(domain.SourceTypeCrossref),
		Observer:  cfg.Observer,
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new Crossref client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search queries Crossref for works matching the given parameters.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) ([]domain.RawRecord, error) {
	if !c.config.Enabled {
		return nil, fmt.Errorf("crossref source is disabled")
	}

	searchURL, err := c.buildSearchURL(params)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(
			sourceName,
			resp.StatusCode,
			string(body),
			nil,
		)
	}

	// Parse the JSON response (limit body to 10MB).
	var searchResp SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	records := make([]domain.RawRecord, 0, len(searchResp.Message.Items))
	for i := range searchResp.Message.Items {
		rec, ok := workToRecord(&searchResp.Message.Items[i])
		if ok {
			records = append(records, rec)
		}
	}

	return records, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeCrossref
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// buildSearchURL constructs the Crossref works API URL.
func (c *Client) buildSearchURL(params papersources.SearchParams) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/works"

	query := url.Values{}
	query.Set("query", params.Query)

	// Crossref has no reliable open-access filter; OA status is resolved
	// downstream, so OpenAccessOnly is not pushed into the query.
	var filters []string
	if params.YearFrom > 0 {
		filters = append(filters, fmt.Sprintf("from-pub-date:%d-01-01", params.YearFrom))
	}
	if params.YearTo > 0 {
		filters = append(filters, fmt.Sprintf("until-pub-date:%d-12-31", params.YearTo))
	}
	if len(filters) > 0 {
		query.Set("filter", strings.Join(filters, ","))
	}

	rows := params.MaxResults
	if rows <= 0 || rows > c.config.MaxResults {
		rows = c.config.MaxResults
	}
	if rows > MaxRows {
		rows = MaxRows
	}
	query.Set("rows", strconv.Itoa(rows))

	if c.config.Mailto != "" {
		query.Set("mailto", c.config.Mailto)
	}

	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

// workToRecord converts a Crossref work to a raw source record.
// Returns false when the work has no DOI; every Crossref record is keyed on it.
func workToRecord(work *Work) (domain.RawRecord, bool) {
	doi := normalizeDOI(work.DOI)
	if doi == "" {
		return domain.RawRecord{}, false
	}

	rec := domain.NewRawRecord("crossref", doi)
	rec.DOI = doi

	if len(work.Title) > 0 {
		rec.Title = strings.TrimSpace(work.Title[0])
	}

	rec.Abstract = stripJATS(work.Abstract)

	for _, a := range work.Authors {
		name := authorName(a)
		if name == "" {
			continue
		}
		author := domain.Author{Name: name}
		for _, aff := range a.Affiliations {
			if aff.Name != "" {
				author.Affiliations = append(author.Affiliations, aff.Name)
			}
		}
		rec.Authors = append(rec.Authors, author)
	}

	if len(work.ContainerTitle) > 0 {
		rec.Venue = strings.TrimSpace(work.ContainerTitle[0])
	} else if len(work.ShortContainerTitle) > 0 {
		rec.Venue = strings.TrimSpace(work.ShortContainerTitle[0])
	}

	if t, ok := publishedDate(work); ok {
		rec.PublishedAt = &t
		rec.Year = t.Year()
	} else if y := work.Issued.Year(); y > 0 {
		rec.Year = y
	}

	rec.URL = work.URL
	for _, link := range work.Links {
		if link.ContentType == "application/pdf" {
			rec.PDFURL = link.URL
			break
		}
	}

	rec.CitationCount = work.IsReferencedByCount
	rec.TypeHint = work.Type
	rec.Keywords = append(rec.Keywords, work.Subjects...)

	return rec, true
}

// publishedDate picks the most specific publication date available,
// preferring print over online over issued.
func publishedDate(work *Work) (time.Time, bool) {
	for _, d := range []*PartialDate{work.PublishedPrint, work.PublishedOnline, &work.Issued} {
		if d == nil || len(d.DateParts) == 0 || len(d.DateParts[0]) < 3 {
			continue
		}
		parts := d.DateParts[0]
		t := time.Date(parts[0], time.Month(parts[1]), parts[2], 0, 0, 0, 0, time.UTC)
		return t, true
	}
	return time.Time{}, false
}

// authorName assembles a display name from the Crossref author fields.
func authorName(a WorkAuthor) string {
	if name := strings.TrimSpace(a.Name); name != "" {
		return name
	}
	given := strings.TrimSpace(a.Given)
	family := strings.TrimSpace(a.Family)
	switch {
	case given != "" && family != "":
		return given + " " + family
	case family != "":
		return family
	default:
		return ""
	}
}

// normalizeDOI lowercases a DOI and strips URL or "doi:" prefixes.
func normalizeDOI(doi string) string {
	doi = strings.TrimSpace(strings.ToLower(doi))
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi:")
	return doi
}

// stripJATS removes JATS XML markup from a Crossref abstract and
// collapses the remaining whitespace.
func stripJATS(abstract string) string {
	if abstract == "" {
		return ""
	}
	plain := jatsTagRegex.ReplaceAllString(abstract, " ")
	return strings.Join(strings.Fields(plain), " ")
}
