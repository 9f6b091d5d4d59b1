// Package audit records conversion activity for authenticated users.
// Recording is best effort: a failed audit write never fails the
// conversion that triggered it.
package audit

import (
	"bytes"
	"context"
	"log"

	"pixelcraft-backend/models"
	"pixelcraft-backend/storage"

	"github.com/google/uuid"
)

// LogStore persists conversion log rows.
type LogStore interface {
	Create(ctx context.Context, entry *models.ConversionLog) error
}

// MetadataStore persists stored-output metadata rows.
type MetadataStore interface {
	Create(ctx context.Context, meta *models.FileMetadata) error
}

// Recorder writes audit rows and archives converted outputs.
type Recorder struct {
	logs    LogStore
	meta    MetadataStore
	archive storage.Storage
}

// RecorderOption is a functional option for Recorder
type RecorderOption func(*Recorder)

// WithLogStore sets the conversion log store
func WithLogStore(store LogStore) RecorderOption {
	return func(r *Recorder) {
		r.logs = store
	}
}

// WithMetadataStore sets the file metadata store
func WithMetadataStore(store MetadataStore) RecorderOption {
	return func(r *Recorder) {
		r.meta = store
	}
}

// WithArchive sets the storage backend for converted outputs
func WithArchive(archive storage.Storage) RecorderOption {
	return func(r *Recorder) {
		r.archive = archive
	}
}

// NewRecorder creates a new audit recorder
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Entry describes one conversion attempt.
type Entry struct {
	Operation    string
	Filename     string
	InputFormat  string
	OutputFormat string
	ByteSize     int64
	Success      bool
}

// Record appends a conversion log row for the user. Anonymous requests
// (nil userID) are not recorded.
func (r *Recorder) Record(ctx context.Context, userID *uuid.UUID, entry Entry) {
	if userID == nil || r.logs == nil {
		return
	}

	row := &models.ConversionLog{
		UserID:       *userID,
		Operation:    entry.Operation,
		Filename:     entry.Filename,
		InputFormat:  entry.InputFormat,
		OutputFormat: entry.OutputFormat,
		ByteSize:     entry.ByteSize,
		Success:      entry.Success,
	}
	if err := r.logs.Create(ctx, row); err != nil {
		log.Printf("audit: failed to record %s for user %s: %v", entry.Operation, userID, err)
	}
}

// StoreOutput archives a converted output and writes its metadata row so
// the user can re-download it from /user/files. Anonymous outputs are not
// kept.
func (r *Recorder) StoreOutput(ctx context.Context, userID *uuid.UUID, originalFilename, outputFilename, format string, data []byte) {
	if userID == nil || r.meta == nil || r.archive == nil {
		return
	}

	fileID := uuid.New()
	storagePath, err := r.archive.Upload(ctx, fileID, outputFilename, bytes.NewReader(data))
	if err != nil {
		log.Printf("audit: failed to archive %s for user %s: %v", outputFilename, userID, err)
		return
	}

	meta := &models.FileMetadata{
		UserID:           *userID,
		OutputFilename:   outputFilename,
		OriginalFilename: originalFilename,
		ByteSize:         int64(len(data)),
		Format:           format,
		StoragePath:      storagePath,
		ConversionCount:  1,
	}
	if err := r.meta.Create(ctx, meta); err != nil {
		log.Printf("audit: failed to record metadata for %s: %v", outputFilename, err)
	}
}
