package dedup

import (
	"sort"
	"strings"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
)

// DefaultSourcePriority is the default provider precedence used when
// merging. Earlier sources win field conflicts.
var DefaultSourcePriority = []string{
	"semantic_scholar", "openalex", "crossref", "pubmed", "arxiv",
}

// Merger merges clusters of records describing the same work into
// canonical papers.
type Merger struct {
	rank map[string]int
}

// NewMerger creates a Merger with the given source priority order. Sources
// not listed rank after all listed ones, in record order.
func NewMerger(priority []string) *Merger {
	if len(priority) == 0 {
		priority = DefaultSourcePriority
	}
	rank := make(map[string]int, len(priority))
	for i, name := range priority {
		rank[name] = i
	}
	return &Merger{rank: rank}
}

// Deduplicate clusters the normalized pool and merges each cluster into
// one Paper. The output order follows the pool order of each cluster's
// first record, so identical inputs always produce identical output.
// No record is ever dropped; worst case is one Paper per record.
func (m *Merger) Deduplicate(records []domain.RawRecord) []*domain.Paper {
	clusters := Cluster(records)
	papers := make([]*domain.Paper, 0, len(clusters))
	for _, members := range clusters {
		papers = append(papers, m.mergeCluster(records, members))
	}
	return papers
}

// mergeCluster folds a cluster into one Paper under source priority:
// first non-null scalar wins, list fields union in first-appearance order,
// the citation count comes from the highest-priority source that reports
// one.
func (m *Merger) mergeCluster(records []domain.RawRecord, members []int) *domain.Paper {
	ordered := make([]int, len(members))
	copy(ordered, members)
	sort.SliceStable(ordered, func(a, b int) bool {
		ra, rb := m.sourceRank(records[ordered[a]].SourceName), m.sourceRank(records[ordered[b]].SourceName)
		if ra != rb {
			return ra < rb
		}
		return ordered[a] < ordered[b]
	})

	paper := &domain.Paper{
		CitationCount: 0,
		SourceIDs:     make(map[string]string, len(ordered)),
	}

	citationChosen := false
	var typeHint string
	seenKeywords := make(map[string]struct{})
	seenTopics := make(map[string]struct{})

	for _, idx := range ordered {
		rec := &records[idx]

		if paper.Title == "" {
			paper.Title = rec.Title
		}
		if paper.Abstract == "" {
			paper.Abstract = rec.Abstract
		}
		if paper.DOI == "" {
			paper.DOI = rec.DOI
		}
		if paper.Year == 0 {
			paper.Year = rec.Year
		}
		if paper.PublishedAt == nil {
			paper.PublishedAt = rec.PublishedAt
		}
		if paper.Venue == "" {
			paper.Venue = rec.Venue
		}
		if len(paper.Authors) == 0 {
			paper.Authors = rec.Authors
		}
		if paper.URL == "" {
			paper.URL = rec.URL
		}
		if paper.PDFURL == "" {
			paper.PDFURL = rec.PDFURL
		}
		if paper.OAURL == "" {
			paper.OAURL = rec.OAURL
		}
		if rec.IsOpenAccess {
			paper.IsOpenAccess = true
		}
		if typeHint == "" {
			typeHint = rec.TypeHint
		}

		if !citationChosen && rec.HasCitations() {
			paper.CitationCount = rec.CitationCount
			paper.CitationSource = rec.SourceName
			citationChosen = true
		}

		for _, kw := range rec.Keywords {
			low := strings.ToLower(kw)
			if _, seen := seenKeywords[low]; seen {
				continue
			}
			seenKeywords[low] = struct{}{}
			paper.Keywords = append(paper.Keywords, kw)
		}
		for _, topic := range rec.Topics {
			low := strings.ToLower(topic)
			if _, seen := seenTopics[low]; seen {
				continue
			}
			seenTopics[low] = struct{}{}
			paper.Topics = append(paper.Topics, topic)
		}

		if _, seen := paper.SourceIDs[rec.SourceName]; !seen {
			paper.SourceIDs[rec.SourceName] = rec.SourceID
			paper.Databases = append(paper.Databases, rec.SourceName)
		}
	}

	paper.WorkType = ClassifyWorkType(typeHint, paper.Title, paper.Keywords)

	ids := domain.PaperIdentifiers{
		DOI:               paper.DOI,
		SemanticScholarID: paper.SourceIDs["semantic_scholar"],
		OpenAlexID:        paper.SourceIDs["openalex"],
	}
	for _, idx := range ordered {
		rec := &records[idx]
		if ids.ArXivID == "" {
			ids.ArXivID = rec.ArXivID
		}
		if ids.PubMedID == "" {
			ids.PubMedID = rec.PubMedID
		}
	}
	if ids.DOI == "" && ids.ArXivID == "" && ids.PubMedID == "" &&
		ids.SemanticScholarID == "" && ids.OpenAlexID == "" {
		ids.TitleHash = TitleHash(paper.Title, paper.FirstAuthorSurname(), paper.Year)
	}
	paper.ID = domain.PaperIDFromWorkKey(domain.WorkKey(ids))

	return paper
}

// sourceRank returns the priority rank of a source, with unknown sources
// ranked last.
func (m *Merger) sourceRank(source string) int {
	if rank, ok := m.rank[source]; ok {
		return rank
	}
	return len(m.rank)
}
