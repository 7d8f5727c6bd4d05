// Package domain provides domain models and business logic for the research
// paper finder service.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// SearchMode selects the scoring policy applied by the ranker.
type SearchMode string

const (
	// SearchModeFoundational favors highly cited, established work.
	SearchModeFoundational SearchMode = "foundational"
	// SearchModeRecent favors new work with citation momentum.
	SearchModeRecent SearchMode = "recent"
)

// Valid reports whether the mode is one of the known scoring policies.
func (m SearchMode) Valid() bool {
	switch m {
	case SearchModeFoundational, SearchModeRecent:
		return true
	default:
		return false
	}
}

// SortOrder overrides weighted ranking with a simple monotonic sort.
type SortOrder string

const (
	SortByRelevance SortOrder = "relevance"
	SortByCitations SortOrder = "citations"
	SortByYear      SortOrder = "year"
)

// Valid reports whether the sort order is known. The empty value means
// "no override" and is valid.
func (s SortOrder) Valid() bool {
	switch s {
	case "", SortByRelevance, SortByCitations, SortByYear:
		return true
	default:
		return false
	}
}

// SourceType names a bibliographic provider.
type SourceType string

const (
	SourceTypeSemanticScholar SourceType = "semantic_scholar"
	SourceTypeOpenAlex        SourceType = "openalex"
	SourceTypeCrossref        SourceType = "crossref"
	SourceTypePubMed          SourceType = "pubmed"
	SourceTypeArXiv           SourceType = "arxiv"
)

// AllSourceTypes lists every known provider in default priority order.
func AllSourceTypes() []SourceType {
	return []SourceType{
		SourceTypeSemanticScholar,
		SourceTypeOpenAlex,
		SourceTypeCrossref,
		SourceTypePubMed,
		SourceTypeArXiv,
	}
}

// SearchFilters carries the caller-supplied constraints for one search.
type SearchFilters struct {
	YearFrom       int       `json:"yearFrom,omitempty"`
	YearTo         int       `json:"yearTo,omitempty"`
	OpenAccessOnly bool      `json:"openAccessOnly,omitempty"`
	SurveysOnly    bool      `json:"surveysOnly,omitempty"`
	Sources        []string  `json:"sources,omitempty"`
	Limit          int       `json:"limit,omitempty"`
	Sort           SortOrder `json:"sort,omitempty"`
}

// SearchRequest is the pipeline entry point's input.
type SearchRequest struct {
	Query   string        `json:"query"`
	Mode    SearchMode    `json:"mode"`
	Filters SearchFilters `json:"filters"`
}

// SourceStat records one provider's contribution to a search.
type SourceStat struct {
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

// SearchResult is the pipeline's output: the ranked papers plus per-source
// coverage so callers can surface degraded results.
type SearchResult struct {
	Results         []Paper               `json:"results"`
	TotalCandidates int                   `json:"totalCandidates"`
	SourceStats     map[string]SourceStat `json:"sourceStats"`
	Cached          bool                  `json:"cached"`
}

// SearchEvent is the analytics payload emitted after a completed search.
// The raw query is not carried, only its hash.
type SearchEvent struct {
	QueryHash   string                `json:"queryHash"`
	Mode        SearchMode            `json:"mode"`
	ResultCount int                   `json:"resultCount"`
	Candidates  int                   `json:"candidates"`
	CacheHit    bool                  `json:"cacheHit"`
	LatencyMS   int64                 `json:"latencyMs"`
	SourceStats map[string]SourceStat `json:"sourceStats"`
	OccurredAt  time.Time             `json:"occurredAt"`
}

// Bookmark is a user's saved paper. The paper snapshot is stored alongside
// so bookmarks survive cache expiry.
type Bookmark struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"userId"`
	PaperID   uuid.UUID `json:"paperId"`
	Paper     Paper     `json:"paper"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment is a user note attached to a paper.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"userId"`
	PaperID   uuid.UUID `json:"paperId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// SearchLog is one row of the search analytics table.
type SearchLog struct {
	ID          uuid.UUID  `json:"id"`
	QueryHash   string     `json:"queryHash"`
	Mode        SearchMode `json:"mode"`
	ResultCount int        `json:"resultCount"`
	Candidates  int        `json:"candidates"`
	CacheHit    bool       `json:"cacheHit"`
	LatencyMS   int64      `json:"latencyMs"`
	CreatedAt   time.Time  `json:"createdAt"`
}
