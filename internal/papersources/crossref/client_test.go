package crossref

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
	"github.com/arjunxplorer/Research-Paper-finder/internal/papersources"
)

const worksResponseJSON = `{
	"status": "ok",
	"message-type": "work-list",
	"message": {
		"total-results": 2,
		"items": [
			{
				"DOI": "10.1038/S41586-021-03819-2",
				"title": ["Highly accurate protein structure prediction with AlphaFold"],
				"abstract": "<jats:p>Proteins are essential to life, and understanding their\n structure can facilitate a mechanistic understanding.</jats:p>",
				"author": [
					{
						"given": "John",
						"family": "Jumper",
						"ORCID": "https://orcid.org/0000-0001-6169-6580",
						"affiliation": [{"name": "DeepMind"}]
					},
					{
						"given": "Richard",
						"family": "Evans"
					}
				],
				"container-title": ["Nature"],
				"issued": {"date-parts": [[2021]]},
				"published-online": {"date-parts": [[2021, 7, 15]]},
				"is-referenced-by-count": 18234,
				"type": "journal-article",
				"URL": "https://doi.org/10.1038/s41586-021-03819-2",
				"link": [
					{"URL": "https://www.nature.com/articles/s41586-021-03819-2", "content-type": "text/html"},
					{"URL": "https://www.nature.com/articles/s41586-021-03819-2.pdf", "content-type": "application/pdf"}
				],
				"subject": ["Multidisciplinary"]
			},
			{
				"DOI": "10.5555/year-only",
				"title": ["A work with only a year"],
				"author": [{"name": "The Example Consortium"}],
				"issued": {"date-parts": [[2019]]},
				"is-referenced-by-count": 0,
				"type": "proceedings-article",
				"URL": "https://doi.org/10.5555/year-only"
			}
		]
	}
}`

const emptyResponseJSON = `{
	"status": "ok",
	"message": {"total-results": 0, "items": []}
}`

func TestNew(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		client := New(Config{Enabled: true})

		assert.Equal(t, DefaultBaseURL, client.config.BaseURL)
		assert.Equal(t, DefaultTimeout, client.config.Timeout)
		assert.Equal(t, DefaultRateLimit, client.config.RateLimit)
		assert.Equal(t, DefaultBurstSize, client.config.BurstSize)
		assert.Equal(t, DefaultMaxResults, client.config.MaxResults)
		assert.True(t, client.IsEnabled())
	})

	t.Run("respects custom config", func(t *testing.T) {
		client := New(Config{
			BaseURL:    "https://example.com",
			Mailto:     "team@example.com",
			MaxResults: 100,
		})

		assert.Equal(t, "https://example.com", client.config.BaseURL)
		assert.Equal(t, "team@example.com", client.config.Mailto)
		assert.Equal(t, 100, client.config.MaxResults)
		assert.False(t, client.IsEnabled())
	})

	t.Run("implements PaperSource", func(t *testing.T) {
		var source papersources.PaperSource = New(Config{Enabled: true})

		assert.Equal(t, domain.SourceTypeCrossref, source.SourceType())
		assert.Equal(t, "Crossref", source.Name())
	})
}

func TestClient_Search(t *testing.T) {
	t.Run("returns records from the works response", func(t *testing.T) {
		var gotQuery string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("query")
			assert.Equal(t, "/works", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(worksResponseJSON))
		}))
		defer server.Close()

		client := createTestClient(server.URL, true)

		records, err := client.Search(context.Background(), papersources.SearchParams{
			Query:      "protein structure prediction",
			MaxResults: 10,
		})

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "protein structure prediction", gotQuery)

		rec := records[0]
		assert.Equal(t, "crossref", rec.SourceName)
		assert.Equal(t, "10.1038/s41586-021-03819-2", rec.SourceID)
		assert.Equal(t, "10.1038/s41586-021-03819-2", rec.DOI)
		assert.Equal(t, "Highly accurate protein structure prediction with AlphaFold", rec.Title)
		assert.Equal(t, "Proteins are essential to life, and understanding their structure can facilitate a mechanistic understanding.", rec.Abstract)
		require.Len(t, rec.Authors, 2)
		assert.Equal(t, "John Jumper", rec.Authors[0].Name)
		assert.Equal(t, []string{"DeepMind"}, rec.Authors[0].Affiliations)
		assert.Equal(t, "Richard Evans", rec.Authors[1].Name)
		assert.Equal(t, "Nature", rec.Venue)
		assert.Equal(t, 2021, rec.Year)
		require.NotNil(t, rec.PublishedAt)
		assert.Equal(t, "2021-07-15", rec.PublishedAt.Format("2006-01-02"))
		assert.Equal(t, 18234, rec.CitationCount)
		assert.True(t, rec.HasCitations())
		assert.Equal(t, "journal-article", rec.TypeHint)
		assert.Equal(t, "https://doi.org/10.1038/s41586-021-03819-2", rec.URL)
		assert.Equal(t, "https://www.nature.com/articles/s41586-021-03819-2.pdf", rec.PDFURL)
		assert.Equal(t, []string{"Multidisciplinary"}, rec.Keywords)

		yearOnly := records[1]
		assert.Equal(t, "The Example Consortium", yearOnly.Authors[0].Name)
		assert.Equal(t, 2019, yearOnly.Year)
		assert.Nil(t, yearOnly.PublishedAt)
		assert.Zero(t, yearOnly.CitationCount)
		assert.True(t, yearOnly.HasCitations())
	})

	t.Run("applies date filters", func(t *testing.T) {
		var gotFilter string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotFilter = r.URL.Query().Get("filter")
			w.Write([]byte(emptyResponseJSON))
		}))
		defer server.Close()

		client := createTestClient(server.URL, true)

		_, err := client.Search(context.Background(), papersources.SearchParams{
			Query:    "test",
			YearFrom: 2020,
			YearTo:   2023,
		})

		require.NoError(t, err)
		assert.Equal(t, "from-pub-date:2020-01-01,until-pub-date:2023-12-31", gotFilter)
	})

	t.Run("omits filter when no year range given", func(t *testing.T) {
		var hasFilter bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hasFilter = r.URL.Query().Has("filter")
			w.Write([]byte(emptyResponseJSON))
		}))
		defer server.Close()

		client := createTestClient(server.URL, true)

		_, err := client.Search(context.Background(), papersources.SearchParams{Query: "test"})

		require.NoError(t, err)
		assert.False(t, hasFilter)
	})

	t.Run("sends mailto for the polite pool", func(t *testing.T) {
		var gotMailto string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMailto = r.URL.Query().Get("mailto")
			w.Write([]byte(emptyResponseJSON))
		}))
		defer server.Close()

		httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
			RateLimit:  100,
			BurstSize:  10,
			MaxRetries: 0,
		})
		client := NewWithHTTPClient(Config{
			BaseURL: server.URL,
			Mailto:  "team@example.com",
			Enabled: true,
		}, httpClient)

		_, err := client.Search(context.Background(), papersources.SearchParams{Query: "test"})

		require.NoError(t, err)
		assert.Equal(t, "team@example.com", gotMailto)
	})

	t.Run("caps rows at configured limit", func(t *testing.T) {
		var gotRows string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotRows = r.URL.Query().Get("rows")
			w.Write([]byte(emptyResponseJSON))
		}))
		defer server.Close()

		client := createTestClient(server.URL, true)

		_, err := client.Search(context.Background(), papersources.SearchParams{
			Query:      "test",
			MaxResults: 9999,
		})

		require.NoError(t, err)
		assert.Equal(t, "25", gotRows)
	})

	t.Run("fails when disabled", func(t *testing.T) {
		client := createTestClient("http://localhost:9", false)

		_, err := client.Search(context.Background(), papersources.SearchParams{Query: "test"})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "disabled")
	})

	t.Run("returns external API error on non-200", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("Resource not found."))
		}))
		defer server.Close()

		client := createTestClient(server.URL, true)

		_, err := client.Search(context.Background(), papersources.SearchParams{Query: "test"})

		require.Error(t, err)
		var apiErr *domain.ExternalAPIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(time.Second)
			w.Write([]byte(emptyResponseJSON))
		}))
		defer server.Close()

		client := createTestClient(server.URL, true)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := client.Search(ctx, papersources.SearchParams{Query: "test"})

		assert.Error(t, err)
	})
}

func TestWorkToRecord(t *testing.T) {
	t.Run("rejects works without a DOI", func(t *testing.T) {
		_, ok := workToRecord(&Work{Title: []string{"No DOI"}})

		assert.False(t, ok)
	})

	t.Run("falls back to short container title", func(t *testing.T) {
		rec, ok := workToRecord(&Work{
			DOI:                 "10.1/abc",
			Title:               []string{"Test"},
			ShortContainerTitle: []string{"Proc. Natl. Acad. Sci."},
		})

		require.True(t, ok)
		assert.Equal(t, "Proc. Natl. Acad. Sci.", rec.Venue)
	})

	t.Run("prefers print date over online date", func(t *testing.T) {
		rec, ok := workToRecord(&Work{
			DOI:             "10.1/abc",
			Title:           []string{"Test"},
			PublishedPrint:  &PartialDate{DateParts: [][]int{{2022, 3, 1}}},
			PublishedOnline: &PartialDate{DateParts: [][]int{{2021, 11, 20}}},
		})

		require.True(t, ok)
		require.NotNil(t, rec.PublishedAt)
		assert.Equal(t, "2022-03-01", rec.PublishedAt.Format("2006-01-02"))
	})

	t.Run("skips partial dates missing a day", func(t *testing.T) {
		rec, ok := workToRecord(&Work{
			DOI:    "10.1/abc",
			Title:  []string{"Test"},
			Issued: PartialDate{DateParts: [][]int{{2020, 6}}},
		})

		require.True(t, ok)
		assert.Nil(t, rec.PublishedAt)
		assert.Equal(t, 2020, rec.Year)
	})

	t.Run("skips authors without any name parts", func(t *testing.T) {
		rec, ok := workToRecord(&Work{
			DOI:   "10.1/abc",
			Title: []string{"Test"},
			Authors: []WorkAuthor{
				{},
				{Family: "Curie"},
			},
		})

		require.True(t, ok)
		require.Len(t, rec.Authors, 1)
		assert.Equal(t, "Curie", rec.Authors[0].Name)
	})
}

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain doi", "10.1038/nature12373", "10.1038/nature12373"},
		{"uppercase", "10.1038/NATURE12373", "10.1038/nature12373"},
		{"https url", "https://doi.org/10.1038/nature12373", "10.1038/nature12373"},
		{"doi prefix", "doi:10.1038/nature12373", "10.1038/nature12373"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeDOI(tt.input))
		})
	}
}

func TestStripJATS(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"jats paragraph", "<jats:p>Some abstract text.</jats:p>", "Some abstract text."},
		{"nested markup", "<jats:p>Uses <jats:italic>in situ</jats:italic> methods.</jats:p>", "Uses in situ methods."},
		{"plain text", "Already plain.", "Already plain."},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripJATS(tt.input))
		})
	}
}

// createTestClient creates a test client with the given base URL.
func createTestClient(baseURL string, enabled bool) *Client {
	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		RateLimit:  100,
		BurstSize:  10,
		MaxRetries: 0,
	})

	return NewWithHTTPClient(Config{
		BaseURL: baseURL,
		Enabled: enabled,
	}, httpClient)
}
