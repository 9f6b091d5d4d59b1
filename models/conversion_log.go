package models

import (
	"time"

	"github.com/google/uuid"
)

// ConversionLog is one audit row per operation attempt. Append-only.
type ConversionLog struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Operation    string    `json:"operation"`
	Filename     string    `json:"filename"`
	InputFormat  string    `json:"input_format"`
	OutputFormat string    `json:"output_format"`
	ByteSize     int64     `json:"byte_size"`
	Success      bool      `json:"success"`
	CreatedAt    time.Time `json:"created_at"`
}
