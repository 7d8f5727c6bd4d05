package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
)

// PostgreSQL error codes checked by the repositories.
const (
	pgUniqueViolation = "23505" // unique_violation
)

// Compile-time interface verification.
var _ BookmarkRepository = (*PgBookmarkRepository)(nil)

// PgBookmarkRepository is a PostgreSQL implementation of BookmarkRepository.
type PgBookmarkRepository struct {
	db DBTX
}

// NewPgBookmarkRepository creates a new PostgreSQL bookmark repository.
func NewPgBookmarkRepository(db DBTX) *PgBookmarkRepository {
	return &PgBookmarkRepository{db: db}
}

// Create saves a new bookmark with its paper snapshot.
func (r *PgBookmarkRepository) Create(ctx context.Context, bookmark *domain.Bookmark) error {
	if bookmark == nil {
		return domain.NewValidationError("bookmark", "bookmark cannot be nil")
	}
	if bookmark.UserID == "" {
		return domain.NewValidationError("userId", "user ID is required")
	}
	if bookmark.PaperID == uuid.Nil {
		return domain.NewValidationError("paperId", "paper ID is required")
	}

	if bookmark.ID == uuid.Nil {
		bookmark.ID = uuid.New()
	}
	if bookmark.CreatedAt.IsZero() {
		bookmark.CreatedAt = time.Now().UTC()
	}

	paperJSON, err := json.Marshal(bookmark.Paper)
	if err != nil {
		return fmt.Errorf("failed to marshal paper snapshot: %w", err)
	}

	query := `
		INSERT INTO bookmarks (id, user_id, paper_id, paper, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = r.db.Exec(ctx, query,
		bookmark.ID,
		bookmark.UserID,
		bookmark.PaperID,
		paperJSON,
		bookmark.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("bookmark for paper %s: %w", bookmark.PaperID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create bookmark: %w", err)
	}

	return nil
}

// Delete removes a user's bookmark for a paper.
func (r *PgBookmarkRepository) Delete(ctx context.Context, userID string, paperID uuid.UUID) error {
	if userID == "" {
		return domain.NewValidationError("userId", "user ID is required")
	}

	query := `DELETE FROM bookmarks WHERE user_id = $1 AND paper_id = $2`

	result, err := r.db.Exec(ctx, query, userID, paperID)
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("bookmark", paperID.String())
	}

	return nil
}

// GetByUserAndPaper retrieves a specific bookmark.
func (r *PgBookmarkRepository) GetByUserAndPaper(ctx context.Context, userID string, paperID uuid.UUID) (*domain.Bookmark, error) {
	if userID == "" {
		return nil, domain.NewValidationError("userId", "user ID is required")
	}

	query := `
		SELECT id, user_id, paper_id, paper, created_at
		FROM bookmarks
		WHERE user_id = $1 AND paper_id = $2`

	row := r.db.QueryRow(ctx, query, userID, paperID)
	bookmark, err := scanBookmark(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("bookmark", paperID.String())
		}
		return nil, fmt.Errorf("failed to get bookmark: %w", err)
	}

	return bookmark, nil
}

// ListByUser retrieves a user's bookmarks, most recent first.
func (r *PgBookmarkRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Bookmark, int64, error) {
	if userID == "" {
		return nil, 0, domain.NewValidationError("userId", "user ID is required")
	}
	applyPaginationDefaults(&limit, &offset)

	countQuery := `SELECT COUNT(*) FROM bookmarks WHERE user_id = $1`
	var totalCount int64
	if err := r.db.QueryRow(ctx, countQuery, userID).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count bookmarks: %w", err)
	}

	selectQuery := `
		SELECT id, user_id, paper_id, paper, created_at
		FROM bookmarks
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, selectQuery, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := make([]*domain.Bookmark, 0, limit)
	for rows.Next() {
		bookmark, err := scanBookmarkFromRows(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		bookmarks = append(bookmarks, bookmark)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating bookmarks: %w", err)
	}

	return bookmarks, totalCount, nil
}

// FindPaper retrieves the most recently bookmarked snapshot of a paper.
func (r *PgBookmarkRepository) FindPaper(ctx context.Context, paperID uuid.UUID) (domain.Paper, error) {
	query := `
		SELECT paper
		FROM bookmarks
		WHERE paper_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var paperJSON []byte
	if err := r.db.QueryRow(ctx, query, paperID).Scan(&paperJSON); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Paper{}, domain.NewNotFoundError("paper", paperID.String())
		}
		return domain.Paper{}, fmt.Errorf("failed to find paper snapshot: %w", err)
	}

	var paper domain.Paper
	if err := json.Unmarshal(paperJSON, &paper); err != nil {
		return domain.Paper{}, fmt.Errorf("failed to unmarshal paper snapshot: %w", err)
	}

	return paper, nil
}

// bookmarkScanDest holds the destination pointers for scanning a Bookmark row.
type bookmarkScanDest struct {
	bookmark  domain.Bookmark
	paperJSON []byte
}

// destinations returns the slice of pointers for Scan operations.
func (d *bookmarkScanDest) destinations() []interface{} {
	return []interface{}{
		&d.bookmark.ID, &d.bookmark.UserID, &d.bookmark.PaperID, &d.paperJSON, &d.bookmark.CreatedAt,
	}
}

// finalize unmarshals the paper snapshot after scanning.
func (d *bookmarkScanDest) finalize() (*domain.Bookmark, error) {
	if len(d.paperJSON) > 0 {
		if err := json.Unmarshal(d.paperJSON, &d.bookmark.Paper); err != nil {
			return nil, fmt.Errorf("failed to unmarshal paper snapshot: %w", err)
		}
	}
	return &d.bookmark, nil
}

// scanBookmark scans a single row into a Bookmark.
func scanBookmark(row pgx.Row) (*domain.Bookmark, error) {
	var dest bookmarkScanDest
	if err := row.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize()
}

// scanBookmarkFromRows scans the current row from pgx.Rows into a Bookmark.
func scanBookmarkFromRows(rows pgx.Rows) (*domain.Bookmark, error) {
	var dest bookmarkScanDest
	if err := rows.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize()
}
