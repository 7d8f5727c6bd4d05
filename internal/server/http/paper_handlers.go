package httpserver

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
)

// createCommentRequest is the JSON request body for posting a comment.
type createCommentRequest struct {
	Body string `json:"body"`
}

// createBookmark handles POST /papers/{paperID}/bookmark.
// The paper's current state is snapshotted into the bookmark so it remains
// retrievable after its cache entry expires.
func (s *Server) createBookmark(w http.ResponseWriter, r *http.Request) {
	if s.bookmarks == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence is not enabled")
		return
	}
	userID := userIDFromRequest(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "X-User-ID header is required")
		return
	}

	paperID, ok := parseUUID(w, chi.URLParam(r, "paperID"), "paper_id")
	if !ok {
		return
	}

	paper, err := s.search.GetPaper(r.Context(), paperID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	bookmark := &domain.Bookmark{
		UserID:  userID,
		PaperID: paperID,
		Paper:   paper,
	}
	if err := s.bookmarks.Create(r.Context(), bookmark); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, bookmarkResponse{Bookmark: bookmark})
}

// deleteBookmark handles DELETE /papers/{paperID}/bookmark.
func (s *Server) deleteBookmark(w http.ResponseWriter, r *http.Request) {
	if s.bookmarks == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence is not enabled")
		return
	}
	userID := userIDFromRequest(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "X-User-ID header is required")
		return
	}

	paperID, ok := parseUUID(w, chi.URLParam(r, "paperID"), "paper_id")
	if !ok {
		return
	}

	if err := s.bookmarks.Delete(r.Context(), userID, paperID); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listBookmarks handles GET /bookmarks.
func (s *Server) listBookmarks(w http.ResponseWriter, r *http.Request) {
	if s.bookmarks == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence is not enabled")
		return
	}
	userID := userIDFromRequest(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "X-User-ID header is required")
		return
	}

	limit, offset := parsePaginationParams(r)

	bookmarks, total, err := s.bookmarks.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listBookmarksResponse{
		Bookmarks:  bookmarks,
		TotalCount: total,
	})
}

// createComment handles POST /papers/{paperID}/comments.
func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	if s.comments == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence is not enabled")
		return
	}
	userID := userIDFromRequest(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "X-User-ID header is required")
		return
	}

	paperID, ok := parseUUID(w, chi.URLParam(r, "paperID"), "paper_id")
	if !ok {
		return
	}

	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req createCommentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	comment := &domain.Comment{
		UserID:  userID,
		PaperID: paperID,
		Body:    req.Body,
	}
	if err := s.comments.Create(r.Context(), comment); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, commentResponse{Comment: comment})
}

// listComments handles GET /papers/{paperID}/comments.
func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	if s.comments == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence is not enabled")
		return
	}

	paperID, ok := parseUUID(w, chi.URLParam(r, "paperID"), "paper_id")
	if !ok {
		return
	}

	limit, offset := parsePaginationParams(r)

	comments, total, err := s.comments.ListByPaper(r.Context(), paperID, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listCommentsResponse{
		Comments:   comments,
		TotalCount: total,
	})
}

// deleteComment handles DELETE /comments/{commentID}.
func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	if s.comments == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence is not enabled")
		return
	}
	userID := userIDFromRequest(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "X-User-ID header is required")
		return
	}

	commentID, ok := parseUUID(w, chi.URLParam(r, "commentID"), "comment_id")
	if !ok {
		return
	}

	if err := s.comments.Delete(r.Context(), commentID, userID); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
