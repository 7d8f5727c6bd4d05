package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
)

func TestPgCommentRepository_Create(t *testing.T) {
	t.Run("creates comment", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCommentRepository(mock)
		ctx := context.Background()

		paperID := uuid.New()
		comment := &domain.Comment{
			UserID:  "user-1",
			PaperID: paperID,
			Body:    "Strong baseline for our comparison section.",
		}

		mock.ExpectExec(`INSERT INTO comments`).
			WithArgs(pgxmock.AnyArg(), "user-1", paperID, "Strong baseline for our comparison section.", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err = repo.Create(ctx, comment)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, comment.ID)
		assert.False(t, comment.CreatedAt.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("trims whitespace from body", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCommentRepository(mock)
		ctx := context.Background()

		paperID := uuid.New()
		comment := &domain.Comment{
			UserID:  "user-1",
			PaperID: paperID,
			Body:    "  good survey  ",
		}

		mock.ExpectExec(`INSERT INTO comments`).
			WithArgs(pgxmock.AnyArg(), "user-1", paperID, "good survey", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err = repo.Create(ctx, comment)
		require.NoError(t, err)
		assert.Equal(t, "good survey", comment.Body)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects nil comment", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCommentRepository(mock)

		err = repo.Create(context.Background(), nil)
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})

	t.Run("rejects empty body", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCommentRepository(mock)

		comment := &domain.Comment{UserID: "user-1", PaperID: uuid.New(), Body: "   "}
		err = repo.Create(context.Background(), comment)
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})

	t.Run("rejects oversized body", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCommentRepository(mock)

		comment := &domain.Comment{
			UserID:  "user-1",
			PaperID: uuid.New(),
			Body:    strings.Repeat("x", maxCommentLength+1),
		}
		err = repo.Create(context.Background(), comment)
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}

func TestPgCommentRepository_GetByID(t *testing.T) {
	t.Run("returns comment when found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCommentRepository(mock)
		ctx := context.Background()

		commentID := uuid.New()
		paperID := uuid.New()
		now := time.Now().UTC()

		mock.ExpectQuery(`SELECT id, user_id, paper_id, body, created_at FROM comments WHERE id = \$1`).
			WithArgs(commentID).
			WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "paper_id", "body", "created_at"}).
				AddRow(commentID, "user-1", paperID, "good survey", now))

		result, err := repo.GetByID(ctx, commentID)
		require.NoError(t, err)
		assert.Equal(t, commentID, result.ID)
		assert.Equal(t, "good survey", result.Body)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCommentRepository(mock)
		ctx := context.Background()

		commentID := uuid.New()
		mock.ExpectQuery(`SELECT id, user_id, paper_id, body, created_at FROM comments WHERE id = \$1`).
			WithArgs(commentID).
			WillReturnError(pgx.ErrNoRows)

		_, err = repo.GetByID(ctx, commentID)
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgCommentRepository_ListByPaper(t *testing.T) {
	t.Run("returns comments with total count", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCommentRepository(mock)
		ctx := context.Background()

		paperID := uuid.New()
		now := time.Now().UTC()

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM comments WHERE paper_id = \$1`).
			WithArgs(paperID).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))

		mock.ExpectQuery(`SELECT id, user_id, paper_id, body, created_at FROM comments`).
			WithArgs(paperID, 10, 0).
			WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "paper_id", "body", "created_at"}).
				AddRow(uuid.New(), "user-1", paperID, "good survey", now).
				AddRow(uuid.New(), "user-2", paperID, "dataset is outdated", now.Add(-time.Hour)))

		comments, total, err := repo.ListByPaper(ctx, paperID, 10, 0)
		require.NoError(t, err)
		assert.Len(t, comments, 2)
		assert.Equal(t, int64(2), total)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("applies default limits", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCommentRepository(mock)
		ctx := context.Background()

		paperID := uuid.New()

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM comments WHERE paper_id = \$1`).
			WithArgs(paperID).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))

		mock.ExpectQuery(`SELECT id, user_id, paper_id, body, created_at FROM comments`).
			WithArgs(paperID, 100, 0). // Default limit
			WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "paper_id", "body", "created_at"}))

		_, _, err = repo.ListByPaper(ctx, paperID, 0, -1)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgCommentRepository_Delete(t *testing.T) {
	t.Run("deletes own comment", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCommentRepository(mock)
		ctx := context.Background()

		commentID := uuid.New()
		mock.ExpectExec(`DELETE FROM comments WHERE id = \$1 AND user_id = \$2`).
			WithArgs(commentID, "user-1").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		err = repo.Delete(ctx, commentID, "user-1")
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for another user's comment", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgCommentRepository(mock)
		ctx := context.Background()

		commentID := uuid.New()
		mock.ExpectExec(`DELETE FROM comments WHERE id = \$1 AND user_id = \$2`).
			WithArgs(commentID, "user-2").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err = repo.Delete(ctx, commentID, "user-2")
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgCommentRepository_InterfaceCompliance(t *testing.T) {
	// Ensure PgCommentRepository implements CommentRepository
	var _ CommentRepository = (*PgCommentRepository)(nil)
}
