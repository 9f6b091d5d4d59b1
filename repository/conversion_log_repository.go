package repository

import (
	"context"

	"pixelcraft-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConversionLogRepository handles database operations for conversion logs
type ConversionLogRepository struct {
	db *pgxpool.Pool
}

// NewConversionLogRepository creates a new conversion log repository
func NewConversionLogRepository(db *pgxpool.Pool) *ConversionLogRepository {
	return &ConversionLogRepository{db: db}
}

// Create appends a conversion log row
func (r *ConversionLogRepository) Create(ctx context.Context, logEntry *models.ConversionLog) error {
	query := `
		INSERT INTO conversion_logs (
			user_id, operation, filename, input_format, output_format, byte_size, success
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRow(
		ctx, query,
		logEntry.UserID,
		logEntry.Operation,
		logEntry.Filename,
		logEntry.InputFormat,
		logEntry.OutputFormat,
		logEntry.ByteSize,
		logEntry.Success,
	).Scan(&logEntry.ID, &logEntry.CreatedAt)

	return err
}

// ListByUserID retrieves conversion history for a user, newest first.
func (r *ConversionLogRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ConversionLog, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, user_id, operation, filename, input_format, output_format, byte_size, success, created_at
		FROM conversion_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.ConversionLog
	for rows.Next() {
		entry := &models.ConversionLog{}
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Operation,
			&entry.Filename,
			&entry.InputFormat,
			&entry.OutputFormat,
			&entry.ByteSize,
			&entry.Success,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}

	return logs, rows.Err()
}

// UserStats aggregates a user's conversion activity.
type UserStats struct {
	TotalConversions int64 `json:"total_conversions"`
	SuccessfulCount  int64 `json:"successful_count"`
	FailedCount      int64 `json:"failed_count"`
	TotalBytes       int64 `json:"total_bytes"`
}

// StatsByUserID aggregates conversion counts and sizes for a user.
func (r *ConversionLogRepository) StatsByUserID(ctx context.Context, userID uuid.UUID) (*UserStats, error) {
	stats := &UserStats{}
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE success),
			COUNT(*) FILTER (WHERE NOT success),
			COALESCE(SUM(byte_size), 0)
		FROM conversion_logs
		WHERE user_id = $1`

	err := r.db.QueryRow(ctx, query, userID).Scan(
		&stats.TotalConversions,
		&stats.SuccessfulCount,
		&stats.FailedCount,
		&stats.TotalBytes,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// GlobalStats aggregates activity across all users, for /admin/stats.
type GlobalStats struct {
	TotalConversions int64            `json:"total_conversions"`
	SuccessfulCount  int64            `json:"successful_count"`
	TotalBytes       int64            `json:"total_bytes"`
	ByOperation      map[string]int64 `json:"by_operation"`
}

// Stats aggregates conversion counts across all users.
func (r *ConversionLogRepository) Stats(ctx context.Context) (*GlobalStats, error) {
	stats := &GlobalStats{ByOperation: make(map[string]int64)}

	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE success), COALESCE(SUM(byte_size), 0)
		FROM conversion_logs`
	err := r.db.QueryRow(ctx, query).Scan(
		&stats.TotalConversions,
		&stats.SuccessfulCount,
		&stats.TotalBytes,
	)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT operation, COUNT(*)
		FROM conversion_logs
		GROUP BY operation`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var op string
		var n int64
		if err := rows.Scan(&op, &n); err != nil {
			return nil, err
		}
		stats.ByOperation[op] = n
	}

	return stats, rows.Err()
}
