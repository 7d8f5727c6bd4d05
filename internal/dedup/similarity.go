package dedup

import (
	"github.com/agnivade/levenshtein"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
)

const (
	// jaccardThreshold is the token-set Jaccard similarity above which two
	// normalized titles are considered matching.
	jaccardThreshold = 0.85

	// editRatioThreshold is the Levenshtein similarity ratio above which
	// two normalized titles are considered matching.
	editRatioThreshold = 0.90

	// maxYearGap is the largest publication-year difference tolerated
	// between records of the same work.
	maxYearGap = 1

	// relaxedJaccard and relaxedEditRatio are the centroid re-validation
	// thresholds. Looser than the pairwise test: a member only needs to
	// stay in the neighborhood of the cluster centroid.
	relaxedJaccard   = 0.70
	relaxedEditRatio = 0.80

	// revalidateAuthorOverlap keeps a drifting member in its cluster when
	// its author list still strongly agrees with the centroid's.
	revalidateAuthorOverlap = 0.5
)

// TitleSimilar reports whether two normalized titles pass the strict
// pairwise similarity test: token-set Jaccard or edit-distance ratio.
func TitleSimilar(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return jaccard(TitleTokens(a), TitleTokens(b)) >= jaccardThreshold ||
		editRatio(a, b) >= editRatioThreshold
}

// titleNear is the relaxed variant used for centroid re-validation.
func titleNear(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return jaccard(TitleTokens(a), TitleTokens(b)) >= relaxedJaccard ||
		editRatio(a, b) >= relaxedEditRatio
}

// SameWork applies the conjunctive identity test to two normalized records:
// matching titles AND compatible years AND compatible first authors. All
// three must hold; a weighted blend would false-merge distinct papers that
// share a generic title.
func SameWork(a, b *domain.RawRecord) bool {
	if !TitleSimilar(NormalizeTitle(a.Title), NormalizeTitle(b.Title)) {
		return false
	}
	if !yearsCompatible(a.Year, b.Year) {
		return false
	}
	return firstAuthorsCompatible(a.Authors, b.Authors)
}

// yearsCompatible allows a gap of at most maxYearGap, or either year
// unknown.
func yearsCompatible(a, b int) bool {
	if a == 0 || b == 0 {
		return true
	}
	gap := a - b
	if gap < 0 {
		gap = -gap
	}
	return gap <= maxYearGap
}

// firstAuthorsCompatible requires equal first-author surnames, or treats an
// empty author list as unknown.
func firstAuthorsCompatible(a, b []domain.Author) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	sa := surname(NormalizeName(a[0].Name))
	sb := surname(NormalizeName(b[0].Name))
	if sa == "" || sb == "" {
		return true
	}
	return sa == sb
}

// surname returns the last token of a normalized name.
func surname(normalized string) string {
	idx := len(normalized)
	for i := len(normalized) - 1; i >= 0; i-- {
		if normalized[i] == ' ' {
			return normalized[i+1 : idx]
		}
	}
	return normalized
}

// jaccard computes token-set Jaccard similarity.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// editRatio converts Levenshtein distance into a similarity ratio in [0,1].
func editRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if lb := len([]rune(b)); lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
