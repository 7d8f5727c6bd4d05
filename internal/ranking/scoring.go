package ranking

import (
	"math"
	"sort"
	"time"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
)

const (
	// citationCeiling is the count at which the citation sub-score
	// saturates.
	citationCeiling = 10000

	// velocityCeiling is the citations-per-year rate at which the velocity
	// sub-score saturates.
	velocityCeiling = 200.0

	// recencyHorizonYears is the age at which the recency sub-score
	// reaches zero.
	recencyHorizonYears = 15

	// venueCiteScoreCeiling and venueSJRCeiling normalize the Publication
	// quality metrics into [0,1].
	venueCiteScoreCeiling = 50.0
	venueSJRCeiling       = 20.0
)

// factor identifies one scoring component.
type factor int

const (
	factorRelevance factor = iota
	factorCitations
	factorVelocity
	factorRecency
	factorVenue
	factorSurvey
	factorOpenAccess
	factorCount
)

// weightTable assigns a weight per factor. Weights of one mode sum to 1 so
// the composite stays in [0,1].
type weightTable [factorCount]float64

// modeWeights holds the scoring policy per search mode as data: adding a
// mode means adding a row, not a branch.
var modeWeights = map[domain.SearchMode]weightTable{
	domain.SearchModeFoundational: {
		factorRelevance:  0.45,
		factorCitations:  0.35,
		factorVenue:      0.10,
		factorSurvey:     0.05,
		factorOpenAccess: 0.05,
	},
	domain.SearchModeRecent: {
		factorRelevance:  0.55,
		factorVelocity:   0.25,
		factorRecency:    0.15,
		factorVenue:      0.03,
		factorOpenAccess: 0.02,
	},
}

// Ranker computes composite scores and explanations. It is state-free
// between calls; the clock is injectable for tests.
type Ranker struct {
	now func() time.Time
}

// NewRanker creates a Ranker using the wall clock.
func NewRanker() *Ranker {
	return &Ranker{now: time.Now}
}

// NewRankerAt creates a Ranker with a fixed clock.
func NewRankerAt(now time.Time) *Ranker {
	return &Ranker{now: func() time.Time { return now }}
}

// Rank scores every paper for the given mode, fills WhyRecommended, and
// returns the papers ordered by score descending. Ties break by citation
// count descending, then input order. Identical inputs always produce
// identical output.
func (r *Ranker) Rank(papers []*domain.Paper, mode domain.SearchMode) []*domain.Paper {
	weights, ok := modeWeights[mode]
	if !ok {
		weights = modeWeights[domain.SearchModeFoundational]
	}
	now := r.now()

	for _, paper := range papers {
		subs := subScores(paper, now)
		score := 0.0
		var contributions [factorCount]float64
		for f := factor(0); f < factorCount; f++ {
			contributions[f] = weights[f] * subs[f]
			score += contributions[f]
		}
		paper.Score = clamp01(score)
		paper.WhyRecommended = explain(contributions)
	}

	order := make(map[*domain.Paper]int, len(papers))
	for i, paper := range papers {
		order[paper] = i
	}
	sort.SliceStable(papers, func(a, b int) bool {
		pa, pb := papers[a], papers[b]
		if pa.Score != pb.Score {
			return pa.Score > pb.Score
		}
		if pa.CitationCount != pb.CitationCount {
			return pa.CitationCount > pb.CitationCount
		}
		return order[pa] < order[pb]
	})

	return papers
}

// subScores computes the per-factor sub-scores, each in [0,1].
func subScores(paper *domain.Paper, now time.Time) [factorCount]float64 {
	var subs [factorCount]float64

	subs[factorRelevance] = clamp01(paper.Relevance)
	subs[factorCitations] = citationScore(paper.CitationCount)

	age := paper.Age(now)
	subs[factorVelocity] = velocityScore(paper.CitationCount, age)
	subs[factorRecency] = recencyScore(age)
	subs[factorVenue] = venueScore(paper.Publication)

	if paper.IsSurvey() {
		subs[factorSurvey] = 1
	}
	if paper.IsOpenAccess || paper.OAURL != "" {
		subs[factorOpenAccess] = 1
	}
	return subs
}

// citationScore is log(1+c)/log(1+ceiling), clamped to 1.
func citationScore(citations int) float64 {
	if citations <= 0 {
		return 0
	}
	return clamp01(math.Log1p(float64(citations)) / math.Log1p(citationCeiling))
}

// velocityScore normalizes citations per year of age against a rolling
// ceiling. Unknown age yields zero.
func velocityScore(citations, age int) float64 {
	if citations <= 0 || age < 0 {
		return 0
	}
	years := float64(age)
	if years < 1 {
		years = 1
	}
	return clamp01(float64(citations) / years / velocityCeiling)
}

// recencyScore decays linearly from 1 (current year) to 0 at the horizon.
// Unknown age yields zero.
func recencyScore(age int) float64 {
	if age < 0 {
		return 0
	}
	return clamp01(1 - float64(age)/recencyHorizonYears)
}

// venueScore derives a quality score from Publication metadata. Absent
// metadata scores zero; missing venue data is never a penalty beyond the
// omitted bonus. Predatory venues get no bonus at all.
func venueScore(pub *domain.Publication) float64 {
	if pub == nil || pub.Predatory {
		return 0
	}
	byCiteScore := clamp01(pub.CiteScore / venueCiteScoreCeiling)
	bySJR := clamp01(pub.SJR / venueSJRCeiling)
	if bySJR > byCiteScore {
		return bySJR
	}
	return byCiteScore
}

// SortOverride re-sorts ranked papers by a simple monotonic key, bypassing
// the weighted order. The empty order leaves the slice untouched.
func SortOverride(papers []*domain.Paper, order domain.SortOrder) {
	switch order {
	case domain.SortByRelevance:
		sort.SliceStable(papers, func(a, b int) bool {
			return papers[a].Relevance > papers[b].Relevance
		})
	case domain.SortByCitations:
		sort.SliceStable(papers, func(a, b int) bool {
			return papers[a].CitationCount > papers[b].CitationCount
		})
	case domain.SortByYear:
		sort.SliceStable(papers, func(a, b int) bool {
			return papers[a].Year > papers[b].Year
		})
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
