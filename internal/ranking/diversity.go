package ranking

import (
	"sort"
	"strings"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
)

const (
	// maxPerAuthor caps results sharing a first-author surname.
	maxPerAuthor = 2
	// maxPerVenue caps results from one venue.
	maxPerVenue = 3
	// maxSurveys caps survey papers, unless the request is surveys-only.
	maxSurveys = 6
)

// ApplyDiversity selects up to limit papers from the score-descending list
// under the diversity caps. One strict greedy pass admits papers that
// violate no cap; if that pass cannot fill the limit, a relaxed pass fills
// the remaining slots ignoring caps, still in score order. The result is
// always exactly min(limit, len(papers)) papers.
func ApplyDiversity(papers []*domain.Paper, limit int, surveysOnly bool) []*domain.Paper {
	if limit <= 0 || len(papers) == 0 {
		return []*domain.Paper{}
	}
	if limit > len(papers) {
		limit = len(papers)
	}

	authorCounts := make(map[string]int)
	venueCounts := make(map[string]int)
	surveys := 0

	selected := make([]*domain.Paper, 0, limit)
	taken := make(map[*domain.Paper]struct{}, limit)

	// Strict pass.
	for _, paper := range papers {
		if len(selected) == limit {
			break
		}

		author := strings.ToLower(paper.FirstAuthorSurname())
		venue := strings.ToLower(paper.Venue)

		if author != "" && authorCounts[author] >= maxPerAuthor {
			continue
		}
		if venue != "" && venueCounts[venue] >= maxPerVenue {
			continue
		}
		if paper.IsSurvey() && !surveysOnly && surveys >= maxSurveys {
			continue
		}

		selected = append(selected, paper)
		taken[paper] = struct{}{}
		if author != "" {
			authorCounts[author]++
		}
		if venue != "" {
			venueCounts[venue]++
		}
		if paper.IsSurvey() {
			surveys++
		}
	}

	// Relaxed pass: fill remaining slots ignoring caps. The final list is
	// re-ordered by ranked position so backfilled papers slot back into
	// score order.
	if len(selected) < limit {
		for _, paper := range papers {
			if len(selected) == limit {
				break
			}
			if _, ok := taken[paper]; ok {
				continue
			}
			selected = append(selected, paper)
			taken[paper] = struct{}{}
		}

		position := make(map[*domain.Paper]int, len(papers))
		for i, paper := range papers {
			position[paper] = i
		}
		sort.SliceStable(selected, func(a, b int) bool {
			return position[selected[a]] < position[selected[b]]
		})
	}

	return selected
}
