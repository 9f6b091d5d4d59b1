package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"pixelcraft-backend/auth"
	"pixelcraft-backend/models"
	"pixelcraft-backend/repository"
	"pixelcraft-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserHandler serves conversion history and stored outputs for
// authenticated users, plus the aggregate admin counters.
type UserHandler struct {
	users   *repository.UserRepository
	logs    *repository.ConversionLogRepository
	files   *repository.FileMetadataRepository
	archive storage.Storage
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *repository.UserRepository, logs *repository.ConversionLogRepository, files *repository.FileMetadataRepository, archive storage.Storage) *UserHandler {
	return &UserHandler{
		users:   users,
		logs:    logs,
		files:   files,
		archive: archive,
	}
}

// Stats handles GET /user/stats
func (h *UserHandler) Stats(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	stats, err := h.logs.StatsByUserID(c.Request.Context(), *userID)
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to load stats: %v", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Conversions handles GET /user/conversions
func (h *UserHandler) Conversions(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	logs, err := h.logs.ListByUserID(c.Request.Context(), *userID, limit)
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to load conversions: %v", err)
		return
	}
	if logs == nil {
		logs = []*models.ConversionLog{}
	}
	c.JSON(http.StatusOK, gin.H{"conversions": logs})
}

// Files handles GET /user/files
func (h *UserHandler) Files(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	files, err := h.files.ListByUserID(c.Request.Context(), *userID)
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to load files: %v", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

// DownloadFile handles GET /user/files/:id, re-serving an archived output.
func (h *UserHandler) DownloadFile(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		detail(c, http.StatusBadRequest, "invalid file id")
		return
	}

	meta, err := h.files.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		detail(c, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to load file: %v", err)
		return
	}
	// Outputs are private to the user who produced them.
	if meta.UserID != *userID {
		detail(c, http.StatusNotFound, "file not found")
		return
	}

	reader, err := h.archive.Download(c.Request.Context(), meta.StoragePath)
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to download file: %v", err)
		return
	}
	defer reader.Close()

	if err := h.files.IncrementConversionCount(c.Request.Context(), meta.ID); err == nil {
		meta.ConversionCount++
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.OutputFilename))
	c.DataFromReader(http.StatusOK, meta.ByteSize, "application/octet-stream", reader, nil)
}

// AdminStats handles GET /admin/stats
func (h *UserHandler) AdminStats(c *gin.Context) {
	stats, err := h.logs.Stats(c.Request.Context())
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to load stats: %v", err)
		return
	}

	userCount, err := h.users.Count(c.Request.Context())
	if err != nil {
		detail(c, http.StatusInternalServerError, "failed to count users: %v", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_users":       userCount,
		"total_conversions": stats.TotalConversions,
		"successful_count":  stats.SuccessfulCount,
		"total_bytes":       stats.TotalBytes,
		"by_operation":      stats.ByOperation,
	})
}
