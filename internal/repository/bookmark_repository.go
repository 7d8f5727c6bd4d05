package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
)

// BookmarkRepository handles persistence of user bookmarks.
// Each bookmark stores a full paper snapshot so the paper remains
// retrievable after its cache entry expires.
type BookmarkRepository interface {
	// Create saves a new bookmark. The bookmark's Paper snapshot is stored
	// as JSON alongside the row. Returns domain.ErrAlreadyExists if the user
	// has already bookmarked the paper.
	Create(ctx context.Context, bookmark *domain.Bookmark) error

	// Delete removes a user's bookmark for a paper.
	// Returns domain.ErrNotFound if no matching bookmark exists.
	Delete(ctx context.Context, userID string, paperID uuid.UUID) error

	// GetByUserAndPaper retrieves a specific bookmark.
	// Returns domain.ErrNotFound if no matching bookmark exists.
	GetByUserAndPaper(ctx context.Context, userID string, paperID uuid.UUID) (*domain.Bookmark, error)

	// ListByUser retrieves a user's bookmarks, most recent first.
	// Returns the matching bookmarks and total count for pagination.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Bookmark, int64, error)

	// FindPaper retrieves the most recently bookmarked snapshot of a paper,
	// regardless of which user saved it. This backs paper lookup for papers
	// whose cache entries have expired.
	// Returns domain.ErrNotFound if no bookmark references the paper.
	FindPaper(ctx context.Context, paperID uuid.UUID) (domain.Paper, error)
}
