package repository

import (
	"context"
	"time"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
)

// SearchLogRepository records completed searches for later analytics queries.
type SearchLogRepository interface {
	// Record persists one search log row. An ID and creation timestamp are
	// assigned if not already set.
	Record(ctx context.Context, log *domain.SearchLog) error

	// List retrieves search log rows matching the filter criteria.
	// Returns the matching rows and total count for pagination.
	List(ctx context.Context, filter SearchLogFilter) ([]*domain.SearchLog, int64, error)
}

// SearchLogFilter specifies criteria for listing search log rows.
type SearchLogFilter struct {
	// QueryHash filters to searches of a specific query fingerprint (optional).
	QueryHash string

	// Mode filters to searches run in a specific mode (optional).
	Mode *domain.SearchMode

	// CacheHit filters to cache hits or misses (optional).
	CacheHit *bool

	// Since filters to searches performed after this timestamp (optional).
	Since *time.Time

	// Until filters to searches performed before this timestamp (optional).
	Until *time.Time

	// Limit specifies maximum number of results (default: 100, max: 1000).
	Limit int

	// Offset specifies the starting position for pagination.
	Offset int
}

// Validate checks if the filter has valid values and sets defaults.
func (f *SearchLogFilter) Validate() error {
	if f.Mode != nil && !f.Mode.Valid() {
		return domain.NewValidationError("mode", "unknown search mode")
	}
	applyPaginationDefaults(&f.Limit, &f.Offset)
	return nil
}
