// Package dedup canonicalizes raw source records and merges records that
// describe the same research work into single papers with multi-source
// provenance.
package dedup

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
)

const (
	// minYear is the oldest publication year accepted as plausible.
	minYear = 1800
)

// titleStopWords are removed from titles before similarity comparison.
// Short function words only; domain terms always survive.
var titleStopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "as": {}, "at": {}, "by": {}, "for": {},
	"from": {}, "in": {}, "into": {}, "is": {}, "of": {}, "on": {}, "or": {},
	"the": {}, "to": {}, "with": {},
}

// surveyVocabulary marks titles and keywords that indicate a survey or
// review work.
var surveyVocabulary = []string{
	"survey", "review", "overview", "systematic review", "meta-analysis",
	"state of the art", "state-of-the-art",
}

// NormalizePool canonicalizes every record in place and drops records that
// cannot produce a usable title. Returns the surviving records and the
// number dropped.
func NormalizePool(records []domain.RawRecord) ([]domain.RawRecord, int) {
	out := make([]domain.RawRecord, 0, len(records))
	lost := 0
	for i := range records {
		rec := NormalizeRecord(records[i])
		if strings.TrimSpace(rec.Title) == "" {
			lost++
			continue
		}
		out = append(out, rec)
	}
	return out, lost
}

// NormalizeRecord canonicalizes one record: DOI lowercased with prefixes
// stripped, year validated, author names and venue whitespace-collapsed.
// Missing optional fields stay zero.
func NormalizeRecord(rec domain.RawRecord) domain.RawRecord {
	rec.DOI = CanonicalDOI(rec.DOI)
	rec.ArXivID = strings.ToLower(strings.TrimSpace(rec.ArXivID))
	rec.PubMedID = strings.TrimSpace(rec.PubMedID)
	rec.Title = collapseWhitespace(rec.Title)
	rec.Abstract = strings.TrimSpace(rec.Abstract)
	rec.Venue = collapseWhitespace(rec.Venue)

	rec.Year = validYear(rec.Year)
	if rec.Year == 0 && rec.PublishedAt != nil {
		rec.Year = validYear(rec.PublishedAt.Year())
	}

	authors := rec.Authors[:0]
	for _, a := range rec.Authors {
		a.Name = collapseWhitespace(a.Name)
		if a.Name == "" {
			continue
		}
		authors = append(authors, a)
	}
	rec.Authors = authors

	return rec
}

// CanonicalDOI lowercases a DOI and strips URL or "doi:" prefixes.
// Returns empty string for anything that does not look like a DOI.
func CanonicalDOI(doi string) string {
	doi = strings.TrimSpace(strings.ToLower(doi))
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "https://dx.doi.org/")
	doi = strings.TrimPrefix(doi, "http://dx.doi.org/")
	doi = strings.TrimPrefix(doi, "doi:")
	if !strings.HasPrefix(doi, "10.") {
		return ""
	}
	return doi
}

// validYear returns the year if plausible, zero otherwise.
func validYear(year int) int {
	if year < minYear || year > time.Now().Year()+1 {
		return 0
	}
	return year
}

// NormalizeTitle prepares a title for similarity comparison: lowercase,
// punctuation stripped, stop words removed, whitespace collapsed.
func NormalizeTitle(title string) string {
	title = strings.ToLower(title)

	var sb strings.Builder
	sb.Grow(len(title))
	for _, r := range title {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		default:
			sb.WriteRune(' ')
		}
	}

	words := strings.Fields(sb.String())
	kept := words[:0]
	for _, w := range words {
		if _, stop := titleStopWords[w]; stop {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// TitleTokens returns the deduplicated token set of a normalized title.
func TitleTokens(normalizedTitle string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, w := range strings.Fields(normalizedTitle) {
		tokens[w] = struct{}{}
	}
	return tokens
}

// TitleHash produces the fallback identity hash for records with no usable
// external identifier: sha1 of normalized title, first-author surname and
// year.
func TitleHash(title, firstAuthorSurname string, year int) string {
	basis := fmt.Sprintf("%s|%s|%d", NormalizeTitle(title), strings.ToLower(firstAuthorSurname), year)
	sum := sha1.Sum([]byte(basis))
	return hex.EncodeToString(sum[:])
}

// ClassifyWorkType maps a provider type hint plus title/keyword vocabulary
// onto the canonical work type. Survey detection wins over the hint.
func ClassifyWorkType(typeHint, title string, keywords []string) domain.WorkType {
	if IsSurveyText(title, keywords) {
		return domain.WorkTypeSurvey
	}

	hint := strings.ToLower(strings.TrimSpace(typeHint))
	switch {
	case hint == "":
		return domain.WorkTypeArticle
	case strings.Contains(hint, "review") || strings.Contains(hint, "survey"):
		return domain.WorkTypeSurvey
	case strings.Contains(hint, "preprint") || strings.Contains(hint, "posted-content"):
		return domain.WorkTypePreprint
	case strings.Contains(hint, "book") || strings.Contains(hint, "monograph") || strings.Contains(hint, "chapter"):
		return domain.WorkTypeBook
	case strings.Contains(hint, "article") || strings.Contains(hint, "journal") ||
		strings.Contains(hint, "proceedings") || strings.Contains(hint, "conference"):
		return domain.WorkTypeArticle
	default:
		return domain.WorkTypeOther
	}
}

// IsSurveyText reports whether a title or any keyword matches the
// survey/review vocabulary.
func IsSurveyText(title string, keywords []string) bool {
	lowTitle := strings.ToLower(title)
	for _, term := range surveyVocabulary {
		if strings.Contains(lowTitle, term) {
			return true
		}
	}
	for _, kw := range keywords {
		low := strings.ToLower(kw)
		for _, term := range surveyVocabulary {
			if strings.Contains(low, term) {
				return true
			}
		}
	}
	return false
}

// collapseWhitespace trims and collapses runs of whitespace into single
// spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
