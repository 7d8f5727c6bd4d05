package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
)

// CommentRepository handles persistence of user comments on papers.
type CommentRepository interface {
	// Create saves a new comment. An ID and creation timestamp are assigned
	// if not already set.
	Create(ctx context.Context, comment *domain.Comment) error

	// GetByID retrieves a comment by its UUID.
	// Returns domain.ErrNotFound if no matching comment exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)

	// ListByPaper retrieves comments on a paper, most recent first.
	// Returns the matching comments and total count for pagination.
	ListByPaper(ctx context.Context, paperID uuid.UUID, limit, offset int) ([]*domain.Comment, int64, error)

	// Delete removes a comment owned by the given user.
	// Returns domain.ErrNotFound if the comment does not exist or belongs
	// to a different user.
	Delete(ctx context.Context, id uuid.UUID, userID string) error
}
