// Package ranking turns the deduplicated candidate pool into the final
// ordered result list: lexical prefiltering, mode-weighted scoring with
// explanations, and diversity capping.
package ranking

import (
	"sort"
	"strings"

	"github.com/arjunxplorer/Research-Paper-finder/internal/dedup"
	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
)

const (
	// DefaultPoolSize bounds how many candidates survive the prefilter and
	// reach the ranker.
	DefaultPoolSize = 200

	// Token-hit weights. Title matches count most, keywords next,
	// abstract matches least.
	titleHitWeight    = 3.0
	keywordHitWeight  = 2.0
	abstractHitWeight = 1.0

	// phraseBonus rewards candidates whose title or abstract contains the
	// whole query as a phrase.
	phraseBonus = 0.15
)

// Prefilter truncates the candidate pool to the top K papers by a
// deterministic lexical relevance score, after applying hard filters.
type Prefilter struct {
	k int
}

// NewPrefilter creates a Prefilter keeping the top k candidates. Zero or
// negative k falls back to DefaultPoolSize.
func NewPrefilter(k int) *Prefilter {
	if k <= 0 {
		k = DefaultPoolSize
	}
	return &Prefilter{k: k}
}

// Apply filters the pool, scores each survivor's relevance in [0,1] and
// returns the top K. The score is monotonic in term overlap; ties break by
// citation count descending, then by pool order, so identical inputs always
// yield identical output.
func (p *Prefilter) Apply(query string, papers []*domain.Paper, filters domain.SearchFilters) []*domain.Paper {
	kept := make([]*domain.Paper, 0, len(papers))
	for _, paper := range papers {
		if !passesFilters(paper, filters) {
			continue
		}
		kept = append(kept, paper)
	}

	normQuery := dedup.NormalizeTitle(query)
	terms := dedup.TitleTokens(normQuery)
	for _, paper := range kept {
		paper.Relevance = relevanceScore(normQuery, terms, paper)
	}

	order := make(map[*domain.Paper]int, len(kept))
	for i, paper := range kept {
		order[paper] = i
	}
	sort.SliceStable(kept, func(a, b int) bool {
		pa, pb := kept[a], kept[b]
		if pa.Relevance != pb.Relevance {
			return pa.Relevance > pb.Relevance
		}
		if pa.CitationCount != pb.CitationCount {
			return pa.CitationCount > pb.CitationCount
		}
		return order[pa] < order[pb]
	})

	if len(kept) > p.k {
		kept = kept[:p.k]
	}
	return kept
}

// passesFilters applies the hard request constraints. Papers with unknown
// year fail an explicit year range.
func passesFilters(paper *domain.Paper, filters domain.SearchFilters) bool {
	if filters.YearFrom > 0 && (paper.Year == 0 || paper.Year < filters.YearFrom) {
		return false
	}
	if filters.YearTo > 0 && (paper.Year == 0 || paper.Year > filters.YearTo) {
		return false
	}
	if filters.OpenAccessOnly && !paper.IsOpenAccess && paper.OAURL == "" {
		return false
	}
	if filters.SurveysOnly && !paper.IsSurvey() {
		return false
	}
	return true
}

// relevanceScore computes the weighted lexical overlap between the query
// terms and the paper's title, keywords and abstract.
func relevanceScore(normQuery string, terms map[string]struct{}, paper *domain.Paper) float64 {
	if len(terms) == 0 {
		return 0
	}

	normTitle := dedup.NormalizeTitle(paper.Title)
	titleTokens := dedup.TitleTokens(normTitle)
	abstractTokens := dedup.TitleTokens(dedup.NormalizeTitle(paper.Abstract))
	keywordTokens := make(map[string]struct{})
	for _, kw := range paper.Keywords {
		for tok := range dedup.TitleTokens(dedup.NormalizeTitle(kw)) {
			keywordTokens[tok] = struct{}{}
		}
	}

	hits := 0.0
	for term := range terms {
		if _, ok := titleTokens[term]; ok {
			hits += titleHitWeight
		}
		if _, ok := keywordTokens[term]; ok {
			hits += keywordHitWeight
		}
		if _, ok := abstractTokens[term]; ok {
			hits += abstractHitWeight
		}
	}

	maxHits := float64(len(terms)) * (titleHitWeight + keywordHitWeight + abstractHitWeight)
	score := hits / maxHits

	if normQuery != "" &&
		(strings.Contains(normTitle, normQuery) ||
			strings.Contains(dedup.NormalizeTitle(paper.Abstract), normQuery)) {
		score += phraseBonus
	}

	if score > 1 {
		score = 1
	}
	return score
}
