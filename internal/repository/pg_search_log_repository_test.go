package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
)

func TestPgSearchLogRepository_Record(t *testing.T) {
	t.Run("records search log", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgSearchLogRepository(mock)
		ctx := context.Background()

		log := &domain.SearchLog{
			QueryHash:   "a1b2c3",
			Mode:        domain.SearchModeFoundational,
			ResultCount: 20,
			Candidates:  187,
			CacheHit:    false,
			LatencyMS:   842,
		}

		mock.ExpectExec(`INSERT INTO search_log`).
			WithArgs(
				pgxmock.AnyArg(), "a1b2c3", domain.SearchModeFoundational,
				20, 187, false, int64(842), pgxmock.AnyArg(),
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err = repo.Record(ctx, log)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, log.ID)
		assert.False(t, log.CreatedAt.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects nil log", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgSearchLogRepository(mock)

		err = repo.Record(context.Background(), nil)
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})

	t.Run("rejects missing query hash", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgSearchLogRepository(mock)

		err = repo.Record(context.Background(), &domain.SearchLog{Mode: domain.SearchModeRecent})
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}

func TestPgSearchLogRepository_List(t *testing.T) {
	t.Run("returns logs with filters", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgSearchLogRepository(mock)
		ctx := context.Background()

		logID := uuid.New()
		now := time.Now().UTC()
		mode := domain.SearchModeFoundational
		cacheHit := true

		filter := SearchLogFilter{
			QueryHash: "a1b2c3",
			Mode:      &mode,
			CacheHit:  &cacheHit,
			Limit:     10,
		}

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM search_log`).
			WithArgs("a1b2c3", mode, true).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))

		mock.ExpectQuery(`SELECT id, query_hash, mode, result_count, candidates, cache_hit, latency_ms, created_at`).
			WithArgs("a1b2c3", mode, true, 10, 0).
			WillReturnRows(pgxmock.NewRows([]string{
				"id", "query_hash", "mode", "result_count", "candidates", "cache_hit", "latency_ms", "created_at",
			}).AddRow(logID, "a1b2c3", mode, 20, 187, true, int64(3), now))

		logs, total, err := repo.List(ctx, filter)
		require.NoError(t, err)
		assert.Len(t, logs, 1)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, logID, logs[0].ID)
		assert.True(t, logs[0].CacheHit)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("filters by time window", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgSearchLogRepository(mock)
		ctx := context.Background()

		since := time.Now().UTC().Add(-24 * time.Hour)
		until := time.Now().UTC()

		filter := SearchLogFilter{
			Since: &since,
			Until: &until,
			Limit: 10,
		}

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM search_log`).
			WithArgs(since, until).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))

		mock.ExpectQuery(`SELECT id, query_hash, mode, result_count, candidates, cache_hit, latency_ms, created_at`).
			WithArgs(since, until, 10, 0).
			WillReturnRows(pgxmock.NewRows([]string{
				"id", "query_hash", "mode", "result_count", "candidates", "cache_hit", "latency_ms", "created_at",
			}))

		logs, total, err := repo.List(ctx, filter)
		require.NoError(t, err)
		assert.Empty(t, logs)
		assert.Equal(t, int64(0), total)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects invalid mode filter", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgSearchLogRepository(mock)

		badMode := domain.SearchMode("trending")
		filter := SearchLogFilter{Mode: &badMode}

		_, _, err = repo.List(context.Background(), filter)
		assert.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}

func TestPgSearchLogRepository_InterfaceCompliance(t *testing.T) {
	// Ensure PgSearchLogRepository implements SearchLogRepository
	var _ SearchLogRepository = (*PgSearchLogRepository)(nil)
}
