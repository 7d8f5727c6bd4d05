package ranking

import "sort"

// displayThreshold is the minimum weighted contribution a factor needs to
// earn a place in WhyRecommended.
const displayThreshold = 0.05

// factorPhrases renders each factor as a short human-readable reason.
var factorPhrases = [factorCount]string{
	factorRelevance:  "strong topical match",
	factorCitations:  "highly cited",
	factorVelocity:   "rapidly gaining citations",
	factorRecency:    "recently published",
	factorVenue:      "reputable venue",
	factorSurvey:     "survey of the field",
	factorOpenAccess: "open access",
}

// explain builds the WhyRecommended list: every factor whose weighted
// contribution reaches the display threshold, ordered by contribution
// descending. Ties keep the fixed factor order, so the output is
// deterministic.
func explain(contributions [factorCount]float64) []string {
	type reason struct {
		phrase       string
		contribution float64
		order        int
	}

	var reasons []reason
	for f := factor(0); f < factorCount; f++ {
		if contributions[f] >= displayThreshold {
			reasons = append(reasons, reason{
				phrase:       factorPhrases[f],
				contribution: contributions[f],
				order:        int(f),
			})
		}
	}

	sort.Slice(reasons, func(a, b int) bool {
		if reasons[a].contribution != reasons[b].contribution {
			return reasons[a].contribution > reasons[b].contribution
		}
		return reasons[a].order < reasons[b].order
	})

	phrases := make([]string, len(reasons))
	for i, r := range reasons {
		phrases[i] = r.phrase
	}
	return phrases
}
