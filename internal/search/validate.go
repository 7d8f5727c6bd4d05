package search

import (
	"strings"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
)

// Query length bounds.
const (
	minQueryLength = 3
	maxQueryLength = 500
)

// validate normalizes and checks a search request, returning the cleaned
// copy used for fingerprinting and pipeline execution.
func (s *Service) validate(req domain.SearchRequest) (domain.SearchRequest, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return req, domain.NewValidationError("query", "is required")
	}
	if len(req.Query) < minQueryLength {
		return req, domain.NewValidationError("query", "must be at least 3 characters")
	}
	if len(req.Query) > maxQueryLength {
		return req, domain.NewValidationError("query", "must be at most 500 characters")
	}

	if req.Mode == "" {
		req.Mode = domain.SearchModeFoundational
	}
	if !req.Mode.Valid() {
		return req, domain.NewValidationError("mode", "must be foundational or recent")
	}

	if !req.Filters.Sort.Valid() {
		return req, domain.NewValidationError("sort", "must be relevance, citations, or year")
	}

	if req.Filters.YearFrom < 0 || req.Filters.YearTo < 0 {
		return req, domain.NewValidationError("year range", "years must be non-negative")
	}
	if req.Filters.YearFrom > 0 && req.Filters.YearTo > 0 && req.Filters.YearFrom > req.Filters.YearTo {
		return req, domain.NewValidationError("year range", "year_from must not exceed year_to")
	}

	if req.Filters.Limit < 0 {
		return req, domain.NewValidationError("limit", "must be non-negative")
	}
	if req.Filters.Limit > s.config.MaxLimit {
		req.Filters.Limit = s.config.MaxLimit
	}

	known := make(map[string]bool)
	for _, st := range domain.AllSourceTypes() {
		known[string(st)] = true
	}
	for _, name := range req.Filters.Sources {
		if !known[name] {
			return req, domain.NewValidationError("sources", "unknown source: "+name)
		}
	}

	return req, nil
}
