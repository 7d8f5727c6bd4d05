package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
)

// Pagination and validation constants.
const (
	defaultPageSize    = 50
	maxPageSize        = 100
	maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies
)

// searchPapers handles GET /search.
//
// Query parameters:
//
//	q            search query (required)
//	mode         foundational | recent (default foundational)
//	limit        maximum results to return
//	sort         relevance | citations | year
//	year_from    earliest publication year
//	year_to      latest publication year
//	open_access  true to keep only open-access papers
//	surveys_only true to keep only surveys and reviews
//	sources      comma-separated provider names
func (s *Server) searchPapers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	req := domain.SearchRequest{
		Query: q.Get("q"),
		Mode:  domain.SearchMode(q.Get("mode")),
	}

	var ok bool
	if req.Filters.Limit, ok = parseIntParam(w, q.Get("limit"), "limit"); !ok {
		return
	}
	if req.Filters.YearFrom, ok = parseIntParam(w, q.Get("year_from"), "year_from"); !ok {
		return
	}
	if req.Filters.YearTo, ok = parseIntParam(w, q.Get("year_to"), "year_to"); !ok {
		return
	}
	if req.Filters.OpenAccessOnly, ok = parseBoolParam(w, q.Get("open_access"), "open_access"); !ok {
		return
	}
	if req.Filters.SurveysOnly, ok = parseBoolParam(w, q.Get("surveys_only"), "surveys_only"); !ok {
		return
	}
	req.Filters.Sort = domain.SortOrder(q.Get("sort"))

	if sources := q.Get("sources"); sources != "" {
		for _, name := range strings.Split(sources, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				req.Filters.Sources = append(req.Filters.Sources, name)
			}
		}
	}

	result, err := s.search.Search(ctx, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// getPaper handles GET /papers/{paperID}.
func (s *Server) getPaper(w http.ResponseWriter, r *http.Request) {
	paperID, ok := parseUUID(w, chi.URLParam(r, "paperID"), "paper_id")
	if !ok {
		return
	}

	paper, err := s.search.GetPaper(r.Context(), paperID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.decoratePaper(r, &paper)
	writeJSON(w, http.StatusOK, paper)
}

// decoratePaper overlays per-user state onto a ranked paper: whether the
// caller has bookmarked it, and the comments left on it. Decoration is
// best effort; with persistence disabled or failing the paper is served
// as ranked.
func (s *Server) decoratePaper(r *http.Request, paper *domain.Paper) {
	ctx := r.Context()

	if s.comments != nil {
		comments, _, err := s.comments.ListByPaper(ctx, paper.ID, maxPageSize, 0)
		if err != nil {
			s.logger.Warn().Err(err).Str("paper_id", paper.ID.String()).Msg("listing comments for paper failed")
		}
		for _, comment := range comments {
			paper.Comments = append(paper.Comments, comment.Body)
		}
	}

	userID := userIDFromRequest(r)
	if s.bookmarks == nil || userID == "" {
		return
	}
	if _, err := s.bookmarks.GetByUserAndPaper(ctx, userID, paper.ID); err == nil {
		paper.Selected = true
	}
}

// getRelatedPapers handles GET /papers/{paperID}/related.
//
// Query parameters:
//
//	limit  maximum related papers to return
func (s *Server) getRelatedPapers(w http.ResponseWriter, r *http.Request) {
	paperID, ok := parseUUID(w, chi.URLParam(r, "paperID"), "paper_id")
	if !ok {
		return
	}
	limit, ok := parseIntParam(w, r.URL.Query().Get("limit"), "limit")
	if !ok {
		return
	}

	related, err := s.search.GetRelated(r.Context(), paperID, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, relatedPapersResponse{
		PaperID: paperID,
		Related: related,
		Count:   len(related),
	})
}

// parseUUID parses a UUID from a string, writing a 400 error response if invalid.
// Returns the parsed UUID and true on success, or uuid.Nil and false on failure.
// The parse error details are not included to avoid echoing potentially malicious input.
func parseUUID(w http.ResponseWriter, s, fieldName string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a valid UUID", fieldName))
		return uuid.Nil, false
	}
	return id, true
}

// parseIntParam parses an optional integer query parameter.
// An empty value yields zero without error.
func parseIntParam(w http.ResponseWriter, value, fieldName string) (int, bool) {
	if value == "" {
		return 0, true
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be an integer", fieldName))
		return 0, false
	}
	return parsed, true
}

// parseBoolParam parses an optional boolean query parameter.
// An empty value yields false without error.
func parseBoolParam(w http.ResponseWriter, value, fieldName string) (bool, bool) {
	if value == "" {
		return false, true
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a boolean", fieldName))
		return false, false
	}
	return parsed, true
}

// parsePaginationParams extracts limit and offset from query parameters.
// It applies default and maximum bounds to the page size.
func parsePaginationParams(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if pageSizeStr := r.URL.Query().Get("page_size"); pageSizeStr != "" {
		if parsed, err := strconv.Atoi(pageSizeStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed > 0 {
			offset = parsed
		}
	}

	return limit, offset
}
