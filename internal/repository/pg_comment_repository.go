package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
)

// maxCommentLength bounds the comment body to keep rows reasonably sized.
const maxCommentLength = 4000

// Compile-time interface verification.
var _ CommentRepository = (*PgCommentRepository)(nil)

// PgCommentRepository is a PostgreSQL implementation of CommentRepository.
type PgCommentRepository struct {
	db DBTX
}

// NewPgCommentRepository creates a new PostgreSQL comment repository.
func NewPgCommentRepository(db DBTX) *PgCommentRepository {
	return &PgCommentRepository{db: db}
}

// Create saves a new comment.
func (r *PgCommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	if comment == nil {
		return domain.NewValidationError("comment", "comment cannot be nil")
	}
	if comment.UserID == "" {
		return domain.NewValidationError("userId", "user ID is required")
	}
	if comment.PaperID == uuid.Nil {
		return domain.NewValidationError("paperId", "paper ID is required")
	}
	body := strings.TrimSpace(comment.Body)
	if body == "" {
		return domain.NewValidationError("body", "comment body is required")
	}
	if len(body) > maxCommentLength {
		return domain.NewValidationError("body", fmt.Sprintf("comment body exceeds %d characters", maxCommentLength))
	}
	comment.Body = body

	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO comments (id, user_id, paper_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		comment.ID,
		comment.UserID,
		comment.PaperID,
		comment.Body,
		comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

// GetByID retrieves a comment by its UUID.
func (r *PgCommentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	query := `
		SELECT id, user_id, paper_id, body, created_at
		FROM comments
		WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	comment, err := scanComment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("comment", id.String())
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return comment, nil
}

// ListByPaper retrieves comments on a paper, most recent first.
func (r *PgCommentRepository) ListByPaper(ctx context.Context, paperID uuid.UUID, limit, offset int) ([]*domain.Comment, int64, error) {
	applyPaginationDefaults(&limit, &offset)

	countQuery := `SELECT COUNT(*) FROM comments WHERE paper_id = $1`
	var totalCount int64
	if err := r.db.QueryRow(ctx, countQuery, paperID).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}

	selectQuery := `
		SELECT id, user_id, paper_id, body, created_at
		FROM comments
		WHERE paper_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, selectQuery, paperID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]*domain.Comment, 0, limit)
	for rows.Next() {
		comment, err := scanCommentFromRows(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating comments: %w", err)
	}

	return comments, totalCount, nil
}

// Delete removes a comment owned by the given user.
func (r *PgCommentRepository) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	if userID == "" {
		return domain.NewValidationError("userId", "user ID is required")
	}

	query := `DELETE FROM comments WHERE id = $1 AND user_id = $2`

	result, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("comment", id.String())
	}

	return nil
}

// commentScanDest holds the destination pointers for scanning a Comment row.
type commentScanDest struct {
	comment domain.Comment
}

// destinations returns the slice of pointers for Scan operations.
func (d *commentScanDest) destinations() []interface{} {
	return []interface{}{
		&d.comment.ID, &d.comment.UserID, &d.comment.PaperID, &d.comment.Body, &d.comment.CreatedAt,
	}
}

// finalize performs post-scan processing (no-op for comments as there's no JSON).
func (d *commentScanDest) finalize() (*domain.Comment, error) {
	return &d.comment, nil
}

// scanComment scans a single row into a Comment.
func scanComment(row pgx.Row) (*domain.Comment, error) {
	var dest commentScanDest
	if err := row.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize()
}

// scanCommentFromRows scans the current row from pgx.Rows into a Comment.
func scanCommentFromRows(rows pgx.Rows) (*domain.Comment, error) {
	var dest commentScanDest
	if err := rows.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize()
}
