package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/arjunxplorer/Research-Paper-finder/internal/domain"
)

// Compile-time interface verification.
var _ SearchLogRepository = (*PgSearchLogRepository)(nil)

// PgSearchLogRepository is a PostgreSQL implementation of SearchLogRepository.
type PgSearchLogRepository struct {
	db DBTX
}

// NewPgSearchLogRepository creates a new PostgreSQL search log repository.
func NewPgSearchLogRepository(db DBTX) *PgSearchLogRepository {
	return &PgSearchLogRepository{db: db}
}

// Record persists one search log row.
func (r *PgSearchLogRepository) Record(ctx context.Context, log *domain.SearchLog) error {
	if log == nil {
		return domain.NewValidationError("log", "log cannot be nil")
	}
	if log.QueryHash == "" {
		return domain.NewValidationError("queryHash", "query hash is required")
	}

	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO search_log (
			id, query_hash, mode, result_count, candidates, cache_hit, latency_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		log.ID,
		log.QueryHash,
		log.Mode,
		log.ResultCount,
		log.Candidates,
		log.CacheHit,
		log.LatencyMS,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record search log: %w", err)
	}

	return nil
}

// List retrieves search log rows matching the filter criteria.
func (r *PgSearchLogRepository) List(ctx context.Context, filter SearchLogFilter) ([]*domain.SearchLog, int64, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	// Build dynamic WHERE clause
	var conditions []string
	var args []interface{}
	argIndex := 1

	if filter.QueryHash != "" {
		conditions = append(conditions, fmt.Sprintf("query_hash = $%d", argIndex))
		args = append(args, filter.QueryHash)
		argIndex++
	}

	if filter.Mode != nil {
		conditions = append(conditions, fmt.Sprintf("mode = $%d", argIndex))
		args = append(args, *filter.Mode)
		argIndex++
	}

	if filter.CacheHit != nil {
		conditions = append(conditions, fmt.Sprintf("cache_hit = $%d", argIndex))
		args = append(args, *filter.CacheHit)
		argIndex++
	}

	if filter.Since != nil {
		conditions = append(conditions, fmt.Sprintf("created_at > $%d", argIndex))
		args = append(args, *filter.Since)
		argIndex++
	}

	if filter.Until != nil {
		conditions = append(conditions, fmt.Sprintf("created_at < $%d", argIndex))
		args = append(args, *filter.Until)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Count total matching records
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM search_log %s", whereClause)
	var totalCount int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count search logs: %w", err)
	}

	// Query with pagination
	selectQuery := fmt.Sprintf(`
		SELECT id, query_hash, mode, result_count, candidates, cache_hit, latency_ms, created_at
		FROM search_log
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list search logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*domain.SearchLog, 0, filter.Limit)
	for rows.Next() {
		log, err := scanSearchLogFromRows(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan search log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating search logs: %w", err)
	}

	return logs, totalCount, nil
}

// searchLogScanDest holds the destination pointers for scanning a SearchLog row.
type searchLogScanDest struct {
	log domain.SearchLog
}

// destinations returns the slice of pointers for Scan operations.
func (d *searchLogScanDest) destinations() []interface{} {
	return []interface{}{
		&d.log.ID, &d.log.QueryHash, &d.log.Mode, &d.log.ResultCount,
		&d.log.Candidates, &d.log.CacheHit, &d.log.LatencyMS, &d.log.CreatedAt,
	}
}

// finalize performs post-scan processing (no-op for search logs).
func (d *searchLogScanDest) finalize() (*domain.SearchLog, error) {
	return &d.log, nil
}

// scanSearchLogFromRows scans the current row from pgx.Rows into a SearchLog.
func scanSearchLogFromRows(rows pgx.Rows) (*domain.SearchLog, error) {
	var dest searchLogScanDest
	if err := rows.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize()
}
