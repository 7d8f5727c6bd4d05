package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkKey_Priority(t *testing.T) {
	tests := []struct {
		name     string
		ids      PaperIdentifiers
		expected string
	}{
		{
			name: "doi wins over everything",
			ids: PaperIdentifiers{
				DOI:               "10.1234/ABC",
				ArXivID:           "2101.00001",
				PubMedID:          "123",
				SemanticScholarID: "s2id",
			},
			expected: "doi:10.1234/abc",
		},
		{
			name:     "arxiv when no doi",
			ids:      PaperIdentifiers{ArXivID: "2101.00001", PubMedID: "123"},
			expected: "arxiv:2101.00001",
		},
		{
			name:     "pubmed when no doi or arxiv",
			ids:      PaperIdentifiers{PubMedID: "123", SemanticScholarID: "s2id"},
			expected: "pubmed:123",
		},
		{
			name:     "semantic scholar before openalex",
			ids:      PaperIdentifiers{SemanticScholarID: "abc", OpenAlexID: "W42"},
			expected: "s2:abc",
		},
		{
			name:     "openalex id lowercased",
			ids:      PaperIdentifiers{OpenAlexID: "W42"},
			expected: "openalex:w42",
		},
		{
			name:     "title hash as last resort",
			ids:      PaperIdentifiers{TitleHash: "deadbeef"},
			expected: "title:deadbeef",
		},
		{
			name:     "whitespace-only doi ignored",
			ids:      PaperIdentifiers{DOI: "   ", PubMedID: "9"},
			expected: "pubmed:9",
		},
		{
			name:     "nothing usable",
			ids:      PaperIdentifiers{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WorkKey(tt.ids))
		})
	}
}

func TestPaperIDFromWorkKey_Deterministic(t *testing.T) {
	a := PaperIDFromWorkKey("doi:10.1234/abc")
	b := PaperIDFromWorkKey("doi:10.1234/abc")
	c := PaperIDFromWorkKey("doi:10.1234/xyz")

	assert.Equal(t, a, b, "same work key must yield the same ID")
	assert.NotEqual(t, a, c, "different work keys must yield different IDs")
}

func TestAuthor_Surname(t *testing.T) {
	tests := []struct {
		name     string
		author   Author
		expected string
	}{
		{"given family", Author{Name: "Jane Doe"}, "doe"},
		{"three parts", Author{Name: "Juan Carlos García"}, "garcía"},
		{"single name", Author{Name: "Plato"}, "plato"},
		{"empty name", Author{Name: ""}, ""},
		{"whitespace only", Author{Name: "   "}, ""},
		{"case folded", Author{Name: "Alan TURING"}, "turing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.author.Surname())
		})
	}
}

func TestSearchMode_Valid(t *testing.T) {
	assert.True(t, SearchModeFoundational.Valid())
	assert.True(t, SearchModeRecent.Valid())
	assert.False(t, SearchMode("").Valid())
	assert.False(t, SearchMode("trending").Valid())
}

func TestSortOrder_Valid(t *testing.T) {
	assert.True(t, SortOrder("").Valid(), "empty means no override")
	assert.True(t, SortByRelevance.Valid())
	assert.True(t, SortByCitations.Valid())
	assert.True(t, SortByYear.Valid())
	assert.False(t, SortOrder("title").Valid())
}

func TestPaper_Age(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		year     int
		expected int
	}{
		{"current year", 2026, 0},
		{"older paper", 2016, 10},
		{"future year floors at zero", 2027, 0},
		{"unknown year", 0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paper{Year: tt.year}
			assert.Equal(t, tt.expected, p.Age(now))
		})
	}
}

func TestRawRecord_Citations(t *testing.T) {
	r := NewRawRecord("openalex", "W42")
	assert.Equal(t, "openalex", r.SourceName)
	assert.Equal(t, "W42", r.SourceID)
	assert.False(t, r.HasCitations(), "fresh record has unknown citations")

	r.CitationCount = 0
	assert.True(t, r.HasCitations(), "explicit zero is a real count")
}

func TestErrors_Unwrap(t *testing.T) {
	t.Run("validation error", func(t *testing.T) {
		err := NewValidationError("mode", "unknown mode")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Contains(t, err.Error(), "mode")
	})

	t.Run("not found error", func(t *testing.T) {
		err := NewNotFoundError("paper", "abc-123")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), "abc-123")
	})

	t.Run("rate limit error", func(t *testing.T) {
		err := NewRateLimitError("pubmed", 2*time.Second)
		assert.ErrorIs(t, err, ErrRateLimited)
	})

	t.Run("source error wraps cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := &SourceError{Source: "arxiv", Err: cause}
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "arxiv")
	})

	t.Run("external api error wraps cause", func(t *testing.T) {
		cause := errors.New("boom")
		err := NewExternalAPIError("openalex", 502, "bad gateway", cause)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("all sources error", func(t *testing.T) {
		err := &AllSourcesError{Failures: map[string]error{
			"arxiv":  errors.New("timeout"),
			"pubmed": errors.New("503"),
		}}
		assert.ErrorIs(t, err, ErrAllSourcesUnavailable)
		assert.Contains(t, err.Error(), "2 failures")
	})
}
