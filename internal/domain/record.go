package domain

import "time"

// RawRecord is one provider's unprocessed view of a paper, as produced by a
// source adapter. Records are ephemeral: they exist only between adapter
// fan-out and normalization, after which the canonical Paper takes over.
//
// Adapters fill what they have and leave the rest zero. CitationCount uses
// -1 to mean "provider does not report citations", so a real zero count
// survives merging.
type RawRecord struct {
	SourceName string
	SourceID   string

	Title       string
	Abstract    string
	DOI         string
	ArXivID     string
	PubMedID    string
	Year        int
	PublishedAt *time.Time
	Venue       string
	Authors     []Author
	Keywords    []string
	Topics      []string

	URL          string
	PDFURL       string
	OAURL        string
	IsOpenAccess bool

	CitationCount int
	// TypeHint carries the provider's own work-type label, when it has
	// one ("journal-article", "review", "preprint", ...).
	TypeHint string
}

// NewRawRecord returns a record with CitationCount marked unknown.
func NewRawRecord(sourceName, sourceID string) RawRecord {
	return RawRecord{
		SourceName:    sourceName,
		SourceID:      sourceID,
		CitationCount: -1,
	}
}

// HasCitations reports whether the provider supplied a citation count.
func (r *RawRecord) HasCitations() bool {
	return r.CitationCount >= 0
}
