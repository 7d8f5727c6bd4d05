package enrich

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
)

// VenueIndex resolves venue-quality metadata by venue name or ISSN.
// Lookups are case and whitespace insensitive.
type VenueIndex struct {
	byName map[string]*domain.Publication
	byISSN map[string]*domain.Publication
}

// NewVenueIndex builds an index over the given publications.
func NewVenueIndex(pubs []domain.Publication) *VenueIndex {
	idx := &VenueIndex{
		byName: make(map[string]*domain.Publication, len(pubs)),
		byISSN: make(map[string]*domain.Publication),
	}

	for i := range pubs {
		pub := &pubs[i]
		if key := normalizeVenueName(pub.Name); key != "" {
			idx.byName[key] = pub
		}
		if key := normalizeISSN(pub.ISSN); key != "" {
			idx.byISSN[key] = pub
		}
		if key := normalizeISSN(pub.EISSN); key != "" {
			idx.byISSN[key] = pub
		}
	}

	return idx
}

// LoadVenueIndex reads a JSON array of publications from disk and indexes it.
func LoadVenueIndex(path string) (*VenueIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading venue table: %w", err)
	}

	var pubs []domain.Publication
	if err := json.Unmarshal(data, &pubs); err != nil {
		return nil, fmt.Errorf("parsing venue table: %w", err)
	}

	return NewVenueIndex(pubs), nil
}

// Lookup returns the publication entry matching the given venue name or
// ISSN, or nil when neither is known. ISSN wins when both match.
func (idx *VenueIndex) Lookup(venue, issn string) *domain.Publication {
	if pub, ok := idx.byISSN[normalizeISSN(issn)]; ok {
		return pub
	}
	if pub, ok := idx.byName[normalizeVenueName(venue)]; ok {
		return pub
	}
	return nil
}

// Len returns the number of distinct venue names indexed.
func (idx *VenueIndex) Len() int {
	return len(idx.byName)
}

// normalizeVenueName lowercases a venue name and collapses whitespace.
func normalizeVenueName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// normalizeISSN strips hyphens and uppercases the check digit.
func normalizeISSN(issn string) string {
	issn = strings.ToUpper(strings.TrimSpace(issn))
	return strings.ReplaceAll(issn, "-", "")
}
