package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account. Password and Google identity are both
// optional: password-only, Google-only, and linked accounts all exist.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize password hash
	GoogleID     *string   `json:"-"`
	Name         string    `json:"name"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	LastLoginAt  time.Time `json:"last_login_at"`
}
