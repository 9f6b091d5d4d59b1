package repository

import (
	"context"
	"errors"

	"pixelcraft-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FileMetadataRepository handles database operations for stored outputs
type FileMetadataRepository struct {
	db *pgxpool.Pool
}

// NewFileMetadataRepository creates a new file metadata repository
func NewFileMetadataRepository(db *pgxpool.Pool) *FileMetadataRepository {
	return &FileMetadataRepository{db: db}
}

// Create creates a new file metadata record
func (r *FileMetadataRepository) Create(ctx context.Context, meta *models.FileMetadata) error {
	query := `
		INSERT INTO file_metadata (
			user_id, output_filename, original_filename, byte_size, format, storage_path, conversion_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRow(
		ctx, query,
		meta.UserID,
		meta.OutputFilename,
		meta.OriginalFilename,
		meta.ByteSize,
		meta.Format,
		meta.StoragePath,
		meta.ConversionCount,
	).Scan(&meta.ID, &meta.CreatedAt)

	return err
}

// GetByID retrieves a file metadata record by ID
func (r *FileMetadataRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.FileMetadata, error) {
	meta := &models.FileMetadata{}
	query := `
		SELECT id, user_id, output_filename, original_filename, byte_size, format, storage_path, conversion_count, created_at
		FROM file_metadata
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&meta.ID,
		&meta.UserID,
		&meta.OutputFilename,
		&meta.OriginalFilename,
		&meta.ByteSize,
		&meta.Format,
		&meta.StoragePath,
		&meta.ConversionCount,
		&meta.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// ListByUserID retrieves all stored outputs for a user
func (r *FileMetadataRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.FileMetadata, error) {
	query := `
		SELECT id, user_id, output_filename, original_filename, byte_size, format, storage_path, conversion_count, created_at
		FROM file_metadata
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []*models.FileMetadata
	for rows.Next() {
		meta := &models.FileMetadata{}
		err := rows.Scan(
			&meta.ID,
			&meta.UserID,
			&meta.OutputFilename,
			&meta.OriginalFilename,
			&meta.ByteSize,
			&meta.Format,
			&meta.StoragePath,
			&meta.ConversionCount,
			&meta.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}

	return metas, rows.Err()
}

// IncrementConversionCount bumps the counter on an existing record.
func (r *FileMetadataRepository) IncrementConversionCount(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE file_metadata SET conversion_count = conversion_count + 1 WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}
