package repository

import (
	"context"
	"errors"

	"pixelcraft-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when no row matches the query.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when inserting a user whose email
	// already exists.
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user record
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, google_id, name, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, last_login_at`

	err := r.db.QueryRow(
		ctx, query,
		user.Email,
		user.PasswordHash,
		user.GoogleID,
		user.Name,
		user.Active,
	).Scan(&user.ID, &user.CreatedAt, &user.LastLoginAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateEmail
	}
	return err
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `WHERE email = $1`, email)
}

// GetByGoogleID retrieves a user by external Google identity
func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.getOne(ctx, `WHERE google_id = $1`, googleID)
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, email, password_hash, google_id, name, active, created_at, last_login_at
		FROM users ` + where

	err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.GoogleID,
		&user.Name,
		&user.Active,
		&user.CreatedAt,
		&user.LastLoginAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// TouchLastLogin updates last_login_at and optionally the display name.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, name string) error {
	query := `
		UPDATE users SET
			last_login_at = NOW(),
			name = CASE WHEN $2 <> '' THEN $2 ELSE name END
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, name)
	return err
}

// LinkGoogleID attaches an external Google identity to an existing user.
func (r *UserRepository) LinkGoogleID(ctx context.Context, id uuid.UUID, googleID string) error {
	query := `UPDATE users SET google_id = $2 WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id, googleID)
	return err
}

// Count returns the total number of users.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}
