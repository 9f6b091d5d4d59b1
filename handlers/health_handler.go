package handlers

import (
	"net/http"
	"time"

	"pixelcraft-backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthHandler serves liveness and database diagnostics
type HealthHandler struct {
	db    *pgxpool.Pool
	users *repository.UserRepository
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *pgxpool.Pool, users *repository.UserRepository) *HealthHandler {
	return &HealthHandler{db: db, users: users}
}

// Root handles GET /
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "PixelCraft Pro API is running!",
		"version": "1.0.0",
	})
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
	})
}

// DBStatus handles GET /db-status
func (h *HealthHandler) DBStatus(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "disconnected",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "connected"})
}

// TestDB handles GET /test-db, a deeper check that runs a real query.
func (h *HealthHandler) TestDB(c *gin.Context) {
	count, err := h.users.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"user_count": count,
	})
}
