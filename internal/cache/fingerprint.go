package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
)

// Fingerprint derives the deterministic search-cache key from a request.
// It covers the query, mode and every pool-shaping filter, but excludes
// Limit and Sort: those are applied on retrieval, so one cached candidate
// list serves every page size and sort order.
func Fingerprint(query string, mode domain.SearchMode, filters domain.SearchFilters) string {
	sources := make([]string, len(filters.Sources))
	copy(sources, filters.Sources)
	sort.Strings(sources)

	parts := []string{
		"q=" + strings.ToLower(strings.TrimSpace(query)),
		"mode=" + string(mode),
		fmt.Sprintf("year_from=%d", filters.YearFrom),
		fmt.Sprintf("year_to=%d", filters.YearTo),
		fmt.Sprintf("open_access=%t", filters.OpenAccessOnly),
		fmt.Sprintf("surveys_only=%t", filters.SurveysOnly),
		"sources=" + strings.Join(sources, ","),
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "&")))
	return hex.EncodeToString(sum[:])
}

// QueryHash is the analytics-safe digest of a raw query string.
func QueryHash(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return hex.EncodeToString(sum[:8])
}
