package semanticscholar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
	"github.com/arjunxplorer/Research-Paper-finder/internal/papersources"
)

const (
	// DefaultBaseURL is the default base URL for the Semantic Scholar Graph API.
	DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultRateLimit is the default rate limit for unauthenticated requests.
	// With an API key, this can be increased.
	DefaultRateLimit = 1.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 2

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default maximum number of results per request.
	DefaultMaxResults = 100

	// apiKeyHeader is the header name for the Semantic Scholar API key.
	apiKeyHeader = "x-api-key"

	// relatedEdgeLimit caps how many papers each citation-graph edge returns.
	relatedEdgeLimit = 30

	// paperFields is the list of fields to request from the API.
	paperFields = "paperId,externalIds,title,abstract,year,publicationDate,venue,publicationTypes,authors,citationCount,isOpenAccess,openAccessPdf,url"

	// sourceName is the human-readable name for this source.
	sourceName = "Semantic Scholar"
)

// Config contains configuration options for the Semantic Scholar client.
type Config struct {
	// BaseURL is the base URL for the API.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// APIKey is the optional API key for authenticated requests.
	// Authenticated requests have higher rate limits.
	APIKey string

	// Timeout is the HTTP request timeout.
	// Defaults to DefaultTimeout if zero.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	// Defaults to DefaultRateLimit if zero.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	// Defaults to DefaultBurstSize if zero.
	BurstSize int

	// MaxResults is the maximum number of results to return per search.
	// Defaults to DefaultMaxResults if zero.
	MaxResults int

	// Enabled indicates whether this source is enabled.
	Enabled bool

	// Observer receives per-request metrics observations.
	Observer papersources.RequestObserver
}

// Client implements the papersources.PaperSource interface for Semantic Scholar.
type Client struct {
	httpClient *papersources.HTTPClient
	config     Config
}

// Compile-time check that Client implements papersources.RelatedSource.
var _ papersources.RelatedSource = (*Client)(nil)

// NewClient creates a new Semantic Scholar client with the given configuration.
// If httpClient is nil, a new one will be created with the configuration settings.
func NewClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = DefaultBurstSize
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = DefaultMaxResults
	}

	if httpClient == nil {
		httpClient = papersources.NewHTTPClient(papersources.HTTPClientConfig{
			Timeout:      cfg.Timeout,
			RateLimit:    cfg.RateLimit,
			BurstSize:    cfg.BurstSize,
			APIKey:       cfg.APIKey,
			APIKeyHeader: apiKeyHeader,
			Source:       string(domain.SourceTypeSemanticScholar),
			Observer:     cfg.Observer,
		})
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
	}
}

// Search queries Semantic Scholar for papers matching the given parameters.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) ([]domain.RawRecord, error) {
	searchURL, err := c.buildSearchURL(params)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if err := c.handleErrorResponse(resp); err != nil {
		return nil, err
	}

	// Limit body to 10MB to prevent resource exhaustion.
	var searchResp SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return c.convertToRecords(searchResp.Data), nil
}

// Related returns papers connected to the given paper in the citation graph,
// combining papers that cite it with papers it references. A failure on one
// edge degrades to the other; the call fails only when both edges fail.
func (c *Client) Related(ctx context.Context, sourceID string, limit int) ([]domain.RawRecord, error) {
	if limit <= 0 || limit > relatedEdgeLimit {
		limit = relatedEdgeLimit
	}

	citations, citErr := c.graphEdges(ctx, sourceID, "citations", limit)
	references, refErr := c.graphEdges(ctx, sourceID, "references", limit)
	if citErr != nil && refErr != nil {
		return nil, fmt.Errorf("fetching citation graph: %w", citErr)
	}

	return append(citations, references...), nil
}

// graphEdges fetches one edge of the citation graph for a paper. The edge
// parameter is the Graph API path segment, "citations" or "references".
func (c *Client) graphEdges(ctx context.Context, paperID, edge string, limit int) ([]domain.RawRecord, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	edgeURL := baseURL.JoinPath("paper", paperID, edge)
	q := edgeURL.Query()
	q.Set("fields", paperFields)
	q.Set("limit", strconv.Itoa(limit))
	edgeURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, edgeURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if err := c.handleErrorResponse(resp); err != nil {
		return nil, err
	}

	var edgesResp EdgesResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&edgesResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	records := make([]domain.RawRecord, 0, len(edgesResp.Data))
	for _, entry := range edgesResp.Data {
		paper := entry.CitingPaper
		if paper == nil {
			paper = entry.CitedPaper
		}
		if paper == nil || paper.PaperID == "" {
			continue
		}
		records = append(records, c.convertToRecord(*paper))
	}
	return records, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeSemanticScholar
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is currently enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// buildSearchURL constructs the search API URL with query parameters.
func (c *Client) buildSearchURL(params papersources.SearchParams) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	searchURL := baseURL.JoinPath("paper", "search")

	q := searchURL.Query()
	q.Set("query", params.Query)
	q.Set("fields", paperFields)

	limit := params.MaxResults
	if limit <= 0 || limit > c.config.MaxResults {
		limit = c.config.MaxResults
	}
	q.Set("limit", strconv.Itoa(limit))

	if params.OpenAccessOnly {
		q.Set("openAccessPdf", "")
	}

	// Semantic Scholar filters by year range, "from-to" with open ends.
	if params.YearFrom > 0 && params.YearTo > 0 {
		q.Set("year", fmt.Sprintf("%d-%d", params.YearFrom, params.YearTo))
	} else if params.YearFrom > 0 {
		q.Set("year", fmt.Sprintf("%d-", params.YearFrom))
	} else if params.YearTo > 0 {
		q.Set("year", fmt.Sprintf("-%d", params.YearTo))
	}

	searchURL.RawQuery = q.Encode()
	return searchURL.String(), nil
}

// handleErrorResponse checks for API errors and returns appropriate error types.
func (c *Client) handleErrorResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Limit error body to 1MB.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, "failed to read error response", err)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		message := errResp.Error
		if message == "" {
			message = errResp.Message
		}
		if message == "" {
			message = string(body)
		}
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, message, nil)
	}

	return domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
}

// convertToRecords converts API paper results to raw records.
func (c *Client) convertToRecords(results []PaperResult) []domain.RawRecord {
	records := make([]domain.RawRecord, 0, len(results))
	for _, result := range results {
		records = append(records, c.convertToRecord(result))
	}
	return records
}

// convertToRecord converts a single API paper result to a raw record.
func (c *Client) convertToRecord(result PaperResult) domain.RawRecord {
	rec := domain.NewRawRecord(string(domain.SourceTypeSemanticScholar), result.PaperID)
	rec.Title = result.Title
	rec.Abstract = result.Abstract
	rec.Year = result.Year
	rec.Venue = result.Venue
	rec.URL = result.URL
	rec.IsOpenAccess = result.IsOpenAccess
	rec.CitationCount = result.CitationCount

	if result.PublicationDate != "" {
		if pubDate, err := time.Parse("2006-01-02", result.PublicationDate); err == nil {
			rec.PublishedAt = &pubDate
		}
	}

	if result.Journal != nil && rec.Venue == "" {
		rec.Venue = result.Journal.Name
	}

	if result.OpenAccessPDF != nil && result.OpenAccessPDF.URL != "" {
		rec.PDFURL = result.OpenAccessPDF.URL
		rec.OAURL = result.OpenAccessPDF.URL
	}

	if len(result.PublicationTypes) > 0 {
		rec.TypeHint = result.PublicationTypes[0]
		for _, pt := range result.PublicationTypes {
			if pt == "Review" {
				rec.TypeHint = pt
				break
			}
		}
	}

	if result.ExternalIDs != nil {
		rec.DOI = result.ExternalIDs.DOI
		rec.ArXivID = result.ExternalIDs.ArXiv
		rec.PubMedID = result.ExternalIDs.PubMed
	}

	rec.Authors = convertAuthors(result.Authors)
	return rec
}

// convertAuthors converts API authors to domain authors.
func convertAuthors(apiAuthors []Author) []domain.Author {
	authors := make([]domain.Author, 0, len(apiAuthors))
	for _, a := range apiAuthors {
		authors = append(authors, domain.Author{
			Name: a.Name,
		})
	}
	return authors
}
