package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// paperNamespace is the UUID namespace used to derive deterministic paper
// IDs from work keys. Fixed so the same merged identity always produces the
// same ID across requests.
var paperNamespace = uuid.MustParse("8a6e1f60-2f1b-4c55-9d3a-6f0c4b7e9a21")

// WorkKey identifies one research work across providers. Priority order:
// DOI > arXiv > PubMed > Semantic Scholar > OpenAlex > title hash.
// Returns empty string if nothing usable is present.
func WorkKey(ids PaperIdentifiers) string {
	if doi := strings.TrimSpace(ids.DOI); doi != "" {
		return "doi:" + strings.ToLower(doi)
	}
	if arxiv := strings.TrimSpace(ids.ArXivID); arxiv != "" {
		return "arxiv:" + strings.ToLower(arxiv)
	}
	if pmid := strings.TrimSpace(ids.PubMedID); pmid != "" {
		return "pubmed:" + pmid
	}
	if s2 := strings.TrimSpace(ids.SemanticScholarID); s2 != "" {
		return "s2:" + s2
	}
	if oa := strings.TrimSpace(ids.OpenAlexID); oa != "" {
		return "openalex:" + strings.ToLower(oa)
	}
	if h := strings.TrimSpace(ids.TitleHash); h != "" {
		return "title:" + h
	}
	return ""
}

// PaperIDFromWorkKey derives the stable synthetic paper ID for a work key.
func PaperIDFromWorkKey(key string) uuid.UUID {
	return uuid.NewSHA1(paperNamespace, []byte(key))
}

// PaperIdentifiers holds all possible identifiers for an academic paper.
type PaperIdentifiers struct {
	DOI               string
	ArXivID           string
	PubMedID          string
	SemanticScholarID string
	OpenAlexID        string
	TitleHash         string
}

// Author represents a paper author with optional affiliations.
type Author struct {
	Name         string   `json:"name"`
	Affiliations []string `json:"affiliations,omitempty"`
}

// Surname returns the author's family name, assuming "Given Family" order.
func (a Author) Surname() string {
	fields := strings.Fields(a.Name)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[len(fields)-1])
}

// WorkType classifies what kind of work a paper is.
type WorkType string

const (
	WorkTypeArticle  WorkType = "article"
	WorkTypeSurvey   WorkType = "survey"
	WorkTypePreprint WorkType = "preprint"
	WorkTypeBook     WorkType = "book"
	WorkTypeOther    WorkType = "other"
)

// Publication holds venue-quality metadata attached to a paper by venue
// matching. All metric fields are optional; zero means unknown.
type Publication struct {
	Name      string  `json:"name"`
	ISSN      string  `json:"issn,omitempty"`
	EISSN     string  `json:"eissn,omitempty"`
	ISBN      string  `json:"isbn,omitempty"`
	Publisher string  `json:"publisher,omitempty"`
	Category  string  `json:"category,omitempty"`
	CiteScore float64 `json:"citeScore,omitempty"`
	SJR       float64 `json:"sjr,omitempty"`
	SNIP      float64 `json:"snip,omitempty"`
	Predatory bool    `json:"predatory,omitempty"`
}

// Paper is the canonical merged representation of one research work.
type Paper struct {
	ID            uuid.UUID  `json:"id"`
	DOI           string     `json:"doi,omitempty"`
	Title         string     `json:"title"`
	Abstract      string     `json:"abstract,omitempty"`
	Year          int        `json:"year,omitempty"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
	Venue         string     `json:"venue,omitempty"`
	Authors       []Author   `json:"authors,omitempty"`
	Keywords      []string   `json:"keywords,omitempty"`
	Topics        []string   `json:"topics,omitempty"`
	WorkType      WorkType   `json:"workType"`
	URL           string     `json:"url,omitempty"`
	PDFURL        string     `json:"pdfUrl,omitempty"`
	OAURL         string     `json:"oaUrl,omitempty"`
	IsOpenAccess  bool       `json:"isOpenAccess"`
	CitationCount int        `json:"citationCount"`
	// CitationSource names the provider whose citation count was chosen
	// during merge.
	CitationSource string `json:"citationSource,omitempty"`

	// Relevance is the prefilter's query-match score in [0,1].
	Relevance float64 `json:"relevance"`
	// Score is the composite ranking score in [0,1].
	Score          float64  `json:"score"`
	WhyRecommended []string `json:"whyRecommended,omitempty"`

	// SourceIDs maps provider name to that provider's native ID for this
	// work. Databases is the set of providers that contributed evidence.
	SourceIDs map[string]string `json:"sourceIds,omitempty"`
	Databases []string          `json:"databases,omitempty"`

	Publication *Publication `json:"publication,omitempty"`

	// User state, owned by the persistence layer. Display only; never
	// affects scoring.
	Selected bool     `json:"selected,omitempty"`
	Comments []string `json:"comments,omitempty"`
}

// FirstAuthorSurname returns the surname of the first listed author, or
// empty string when the author list is empty.
func (p *Paper) FirstAuthorSurname() string {
	if len(p.Authors) == 0 {
		return ""
	}
	return p.Authors[0].Surname()
}

// IsSurvey reports whether the paper is classified as a survey or review.
func (p *Paper) IsSurvey() bool {
	return p.WorkType == WorkTypeSurvey
}

// Age returns the paper's age in years relative to now, with a floor of
// zero. Papers with unknown year report -1.
func (p *Paper) Age(now time.Time) int {
	if p.Year <= 0 {
		return -1
	}
	age := now.Year() - p.Year
	if age < 0 {
		age = 0
	}
	return age
}
