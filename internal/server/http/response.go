package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
)

// Response envelope types for JSON serialization. Domain types carry their
// own JSON tags and are embedded directly.

type bookmarkResponse struct {
	Bookmark *domain.Bookmark `json:"bookmark"`
}

type listBookmarksResponse struct {
	Bookmarks  []*domain.Bookmark `json:"bookmarks"`
	TotalCount int64              `json:"totalCount"`
}

type commentResponse struct {
	Comment *domain.Comment `json:"comment"`
}

type listCommentsResponse struct {
	Comments   []*domain.Comment `json:"comments"`
	TotalCount int64             `json:"totalCount"`
}

type relatedPapersResponse struct {
	PaperID uuid.UUID      `json:"paperId"`
	Related []domain.Paper `json:"related"`
	Count   int            `json:"count"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort log; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// writeDomainError maps domain errors to appropriate HTTP status codes and
// writes a JSON error response. Internal error details are not leaked to clients.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
		} else {
			writeError(w, http.StatusBadRequest, "invalid input")
		}
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "resource already exists")
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limited")
	case errors.Is(err, domain.ErrAllSourcesUnavailable):
		writeError(w, http.StatusServiceUnavailable, "all paper sources are unavailable")
	case errors.Is(err, domain.ErrCancelled):
		writeError(w, http.StatusConflict, "operation cancelled")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
