// Package papersources provides interfaces and types for academic paper source clients.
//
// This package defines the foundational abstractions that all paper source implementations
// must follow. Each academic database (Semantic Scholar, OpenAlex, Crossref, PubMed, arXiv)
// implements the PaperSource interface, allowing the search pipeline to fan out to multiple
// sources concurrently with a unified API.
//
// Example usage:
//
//	source := semanticscholar.New(cfg, httpClient)
//	params := papersources.SearchParams{
//		Query:      "CRISPR gene editing",
//		MaxResults: 100,
//	}
//	records, err := source.Search(ctx, params)
package papersources

import (
	"context"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
)

// SearchParams defines the parameters for searching academic papers.
// All fields except Query are optional and support filtering the search results.
type SearchParams struct {
	// Query is the search query string (required).
	// The format may vary by source - some support boolean operators,
	// field-specific searches, or semantic search.
	Query string

	// YearFrom filters papers published in or after this year.
	// A value of 0 applies no lower bound.
	YearFrom int

	// YearTo filters papers published in or before this year.
	// A value of 0 applies no upper bound.
	YearTo int

	// MaxResults limits the number of records returned in a single request.
	// Sources may have their own maximum limits that override this value.
	// A value of 0 uses the source's default limit.
	MaxResults int

	// OpenAccessOnly filters results to only include open access papers
	// on sources that support it. Other sources ignore it; the pipeline
	// enforces the filter again after normalization.
	OpenAccessOnly bool
}

// PaperSource defines the interface that all paper source clients must implement.
// Each academic database or API provides its own implementation.
//
// Search returns provider-shaped RawRecords; translating them into the
// canonical Paper shape is the normalizer's job, so provider-specific fields
// never leak past this boundary.
type PaperSource interface {
	// Search queries the paper source for records matching the given parameters.
	// The context should be used for cancellation and deadline propagation.
	//
	// Implementations should:
	//   - Respect context cancellation
	//   - Apply rate limiting as needed
	//   - Fill domain.RawRecord with whatever fields the provider exposes
	//   - Include appropriate error wrapping with source context
	Search(ctx context.Context, params SearchParams) ([]domain.RawRecord, error)

	// SourceType returns the type identifier for this paper source.
	// Used for attribution, deduplication, and routing.
	SourceType() domain.SourceType

	// Name returns a human-readable name for this paper source.
	// Used for logging, metrics, and display purposes.
	Name() string

	// IsEnabled returns whether this paper source is currently enabled
	// and available for searches. A source may be disabled due to
	// configuration or missing API keys.
	IsEnabled() bool
}

// RelatedSource is implemented by sources that can walk the citation
// graph around one of their own records. sourceID is the source's
// native identifier for the seed paper, never the pipeline's UUID.
type RelatedSource interface {
	PaperSource

	// Related returns records connected to the identified paper:
	// citations, references, or the source's own related-work signal.
	Related(ctx context.Context, sourceID string, limit int) ([]domain.RawRecord, error)
}
