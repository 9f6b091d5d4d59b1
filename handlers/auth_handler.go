package handlers

import (
	"errors"
	"net/http"

	"pixelcraft-backend/auth"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles HTTP requests for registration and login
type AuthHandler struct {
	auth *auth.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{auth: svc}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type googleCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

func writeAuthResult(c *gin.Context, result *auth.Result) {
	c.JSON(http.StatusOK, gin.H{
		"access_token": result.Token,
		"token_type":   "bearer",
		"user":         result.User,
	})
}

func writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrDuplicateEmail):
		detail(c, http.StatusBadRequest, "email already registered")
	case errors.Is(err, auth.ErrInvalidCredentials):
		detail(c, http.StatusUnauthorized, "incorrect email or password")
	case errors.Is(err, auth.ErrOAuthDisabled):
		detail(c, http.StatusServiceUnavailable, "%v", err)
	default:
		detail(c, http.StatusInternalServerError, "%v", err)
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "email and password are required")
		return
	}

	result, err := h.auth.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	writeAuthResult(c, result)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "email and password are required")
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	writeAuthResult(c, result)
}

// Token handles POST /token, the form-encoded password grant shape.
func (h *AuthHandler) Token(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	if username == "" || password == "" {
		detail(c, http.StatusBadRequest, "username and password are required")
		return
	}

	result, err := h.auth.Login(c.Request.Context(), username, password)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": result.Token,
		"token_type":   "bearer",
	})
}

// GoogleLogin handles POST /api/auth/google-login and google-register.
// Both exchange an authorization code and upsert the account, so they
// share one handler.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req googleCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "code is required")
		return
	}

	result, err := h.auth.GoogleLogin(c.Request.Context(), req.Code)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	writeAuthResult(c, result)
}
