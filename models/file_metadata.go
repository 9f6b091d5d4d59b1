package models

import (
	"time"

	"github.com/google/uuid"
)

// FileMetadata describes a converted output kept for an authenticated user.
// The bytes live in the storage backend; this row is what /user/files lists.
type FileMetadata struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	OutputFilename   string    `json:"output_filename"`
	OriginalFilename string    `json:"original_filename"`
	ByteSize         int64     `json:"byte_size"`
	Format           string    `json:"format"`
	StoragePath      string    `json:"storage_path"`
	ConversionCount  int       `json:"conversion_count"`
	CreatedAt        time.Time `json:"created_at"`
}
