package openalex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
	"github.com/arjunxplorer/Research-Paper-finder/internal/papersources"
)

// newTestClient creates a client configured for testing with the given server URL.
func newTestClient(serverURL string) *Client {
	cfg := Config{
		BaseURL:    serverURL,
		Email:      "test@example.com",
		Timeout:    5 * time.Second,
		RateLimit:  100, // High rate for testing
		BurstSize:  100,
		MaxResults: 25,
		Enabled:    true,
	}

	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
		UserAgent: "TestClient/1.0",
	})

	return NewWithHTTPClient(cfg, httpClient)
}

func TestNew(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		client := New(Config{Enabled: true})

		require.NotNil(t, client)
		assert.Equal(t, DefaultBaseURL, client.config.BaseURL)
		assert.Equal(t, DefaultTimeout, client.config.Timeout)
		assert.Equal(t, DefaultRateLimit, client.config.RateLimit)
		assert.Equal(t, DefaultMaxResults, client.config.MaxResults)
	})

	t.Run("implements PaperSource interface", func(t *testing.T) {
		client := New(Config{Enabled: true})

		assert.Equal(t, domain.SourceTypeOpenAlex, client.SourceType())
		assert.Equal(t, "OpenAlex", client.Name())
		assert.True(t, client.IsEnabled())
	})

	t.Run("disabled client reports disabled", func(t *testing.T) {
		client := New(Config{Enabled: false})
		assert.False(t, client.IsEnabled())
	})
}

func TestClient_Search(t *testing.T) {
	t.Run("successful search returns records", func(t *testing.T) {
		response := SearchResponse{
			Meta: Meta{Count: 42},
			Results: []Work{
				{
					ID:              "https://openalex.org/W2741809807",
					DOI:             "https://doi.org/10.7717/PEERJ.4375",
					DisplayName:     "The state of OA",
					PublicationYear: 2018,
					PublicationDate: "2018-02-13",
					Type:            "article",
					CitedByCount:    937,
					OpenAccess: &OpenAccess{
						IsOA:  true,
						OAURL: "https://peerj.com/articles/4375.pdf",
					},
					Authorships: []Authorship{
						{
							Author: AuthorInfo{DisplayName: "Heather Piwowar"},
							Institutions: []Institution{
								{DisplayName: "Impactstory"},
							},
						},
					},
					PrimaryLocation: &Location{
						Source: &Source{DisplayName: "PeerJ"},
					},
					IDs: IDs{
						OpenAlex: "https://openalex.org/W2741809807",
						PMID:     "https://pubmed.ncbi.nlm.nih.gov/29456894",
					},
					Keywords: []Keyword{
						{DisplayName: "Open Access"},
					},
					Topics: []Topic{
						{DisplayName: "Scholarly Communication"},
					},
					AbstractInvertedIndex: map[string][]int{
						"Despite":  {0},
						"growing":  {1},
						"interest": {2},
					},
				},
			},
		}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/works", r.URL.Path)
			assert.Equal(t, "open access", r.URL.Query().Get("search"))
			assert.Equal(t, "test@example.com", r.URL.Query().Get("mailto"))

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(response)
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		records, err := client.Search(context.Background(), papersources.SearchParams{
			Query: "open access",
		})

		require.NoError(t, err)
		require.Len(t, records, 1)

		rec := records[0]
		assert.Equal(t, "openalex", rec.SourceName)
		assert.Equal(t, "W2741809807", rec.SourceID)
		assert.Equal(t, "The state of OA", rec.Title)
		assert.Equal(t, "10.7717/peerj.4375", rec.DOI)
		assert.Equal(t, "29456894", rec.PubMedID)
		assert.Equal(t, 2018, rec.Year)
		require.NotNil(t, rec.PublishedAt)
		assert.Equal(t, "2018-02-13", rec.PublishedAt.Format("2006-01-02"))
		assert.Equal(t, "PeerJ", rec.Venue)
		assert.Equal(t, 937, rec.CitationCount)
		assert.Equal(t, "article", rec.TypeHint)
		assert.True(t, rec.IsOpenAccess)
		assert.Equal(t, "https://peerj.com/articles/4375.pdf", rec.OAURL)
		assert.Equal(t, "https://openalex.org/W2741809807", rec.URL)
		assert.Equal(t, "Despite growing interest", rec.Abstract)
		assert.Equal(t, []string{"Open Access"}, rec.Keywords)
		assert.Equal(t, []string{"Scholarly Communication"}, rec.Topics)

		require.Len(t, rec.Authors, 1)
		assert.Equal(t, "Heather Piwowar", rec.Authors[0].Name)
		assert.Equal(t, []string{"Impactstory"}, rec.Authors[0].Affiliations)
	})

	t.Run("year range becomes publication date filters", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			filter := r.URL.Query().Get("filter")
			assert.Contains(t, filter, "from_publication_date:2020-01-01")
			assert.Contains(t, filter, "to_publication_date:2023-12-31")

			json.NewEncoder(w).Encode(SearchResponse{})
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.Search(context.Background(), papersources.SearchParams{
			Query:    "test",
			YearFrom: 2020,
			YearTo:   2023,
		})
		require.NoError(t, err)
	})

	t.Run("open access filter", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Query().Get("filter"), "is_oa:true")
			json.NewEncoder(w).Encode(SearchResponse{})
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.Search(context.Background(), papersources.SearchParams{
			Query:          "test",
			OpenAccessOnly: true,
		})
		require.NoError(t, err)
	})

	t.Run("caps per_page at API limit", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "200", r.URL.Query().Get("per_page"))
			json.NewEncoder(w).Encode(SearchResponse{})
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.Search(context.Background(), papersources.SearchParams{
			Query:      "test",
			MaxResults: 500,
		})
		require.NoError(t, err)
	})

	t.Run("returns external API error on failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"invalid filter"}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		records, err := client.Search(context.Background(), papersources.SearchParams{Query: "test"})

		require.Error(t, err)
		assert.Nil(t, records)

		var apiErr *domain.ExternalAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(500 * time.Millisecond)
			json.NewEncoder(w).Encode(SearchResponse{})
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := client.Search(ctx, papersources.SearchParams{Query: "test"})
		require.Error(t, err)
	})
}

func TestWorkToRecord(t *testing.T) {
	client := New(Config{Enabled: true})

	t.Run("falls back across ID and title fields", func(t *testing.T) {
		work := &Work{
			Title: "Fallback Title",
			IDs: IDs{
				OpenAlex: "https://openalex.org/W123",
				DOI:      "https://doi.org/10.1234/Example",
			},
		}

		rec := client.workToRecord(work)

		assert.Equal(t, "W123", rec.SourceID)
		assert.Equal(t, "Fallback Title", rec.Title)
		assert.Equal(t, "10.1234/example", rec.DOI)
	})

	t.Run("uses primary location pdf when no oa url", func(t *testing.T) {
		work := &Work{
			ID: "https://openalex.org/W1",
			PrimaryLocation: &Location{
				Source: &Source{DisplayName: "arXiv"},
				PDFURL: "https://arxiv.org/pdf/1234.pdf",
			},
		}

		rec := client.workToRecord(work)

		assert.Equal(t, "https://arxiv.org/pdf/1234.pdf", rec.PDFURL)
		assert.Equal(t, "arXiv", rec.Venue)
	})

	t.Run("zero citations stay zero", func(t *testing.T) {
		work := &Work{ID: "https://openalex.org/W1", CitedByCount: 0}

		rec := client.workToRecord(work)

		assert.Equal(t, 0, rec.CitationCount)
	})
}

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"plain DOI", "10.1234/example", "10.1234/example"},
		{"https prefix", "https://doi.org/10.1234/example", "10.1234/example"},
		{"http prefix", "http://doi.org/10.1234/example", "10.1234/example"},
		{"doi scheme", "doi:10.1234/example", "10.1234/example"},
		{"uppercase", "10.1234/EXAMPLE", "10.1234/example"},
		{"whitespace", "  10.1234/example  ", "10.1234/example"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeDOI(tt.input))
		})
	}
}

func TestReconstructAbstract(t *testing.T) {
	t.Run("reconstructs word order", func(t *testing.T) {
		index := map[string][]int{
			"deep":     {0},
			"learning": {1, 3},
			"for":      {2},
			"systems":  {4},
		}

		abstract := reconstructAbstract(index)

		assert.Equal(t, "deep learning for learning systems", abstract)
	})

	t.Run("empty index returns empty string", func(t *testing.T) {
		assert.Empty(t, reconstructAbstract(nil))
		assert.Empty(t, reconstructAbstract(map[string][]int{}))
	})

	t.Run("rejects oversized payloads", func(t *testing.T) {
		positions := make([]int, 100_001)
		for i := range positions {
			positions[i] = i
		}
		index := map[string][]int{"word": positions}

		assert.Empty(t, reconstructAbstract(index))
	})

	t.Run("handles repeated words", func(t *testing.T) {
		index := map[string][]int{
			"the": {0, 2},
			"end": {1, 3},
		}

		abstract := reconstructAbstract(index)

		assert.Equal(t, 4, len(strings.Fields(abstract)))
	})
}

func TestClient_Related(t *testing.T) {
	t.Run("queries the relatedness filter", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/works", r.URL.Path)
			assert.Equal(t, "related_to:W2741809807", r.URL.Query().Get("filter"))
			assert.Equal(t, "15", r.URL.Query().Get("per_page"))
			assert.Equal(t, "test@example.com", r.URL.Query().Get("mailto"))

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(SearchResponse{
				Results: []Work{
					{
						ID:              "https://openalex.org/W111",
						DisplayName:     "Neighboring Study",
						PublicationYear: 2021,
						CitedByCount:    12,
					},
					{
						ID:          "https://openalex.org/W222",
						DisplayName: "Adjacent Survey",
					},
				},
			})
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		records, err := client.Related(context.Background(), "W2741809807", 15)

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "openalex", records[0].SourceName)
		assert.Equal(t, "W111", records[0].SourceID)
		assert.Equal(t, "Neighboring Study", records[0].Title)
		assert.Equal(t, 12, records[0].CitationCount)
		assert.Equal(t, "W222", records[1].SourceID)
	})

	t.Run("caps the limit at the related default", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "30", r.URL.Query().Get("per_page"))
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(SearchResponse{})
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		records, err := client.Related(context.Background(), "W1", 500)

		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("returns API errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.Related(context.Background(), "W1", 10)

		require.Error(t, err)
		var apiErr *domain.ExternalAPIError
		assert.ErrorAs(t, err, &apiErr)
	})
}
