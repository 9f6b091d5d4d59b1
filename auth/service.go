package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"pixelcraft-backend/models"
	"pixelcraft-backend/repository"

	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password,
	// deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrDuplicateEmail is returned on registration with a taken email.
	ErrDuplicateEmail = repository.ErrDuplicateEmail
	// ErrOAuthDisabled is returned when Google login is not configured.
	ErrOAuthDisabled = errors.New("google login is not configured on this server")
)

// UserStore is the slice of the user repository the auth service needs.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, name string) error
	LinkGoogleID(ctx context.Context, id uuid.UUID, googleID string) error
}

// Service implements registration, login and token issuance.
type Service struct {
	users       UserStore
	google      *GoogleProvider
	secret      []byte
	tokenExpiry time.Duration
}

// ServiceOption is a functional option for Service
type ServiceOption func(*Service)

// WithUserStore sets the user store
func WithUserStore(store UserStore) ServiceOption {
	return func(s *Service) {
		s.users = store
	}
}

// WithGoogleProvider sets the Google OAuth provider
func WithGoogleProvider(provider *GoogleProvider) ServiceOption {
	return func(s *Service) {
		s.google = provider
	}
}

// WithTokenConfig sets the signing secret and token lifetime
func WithTokenConfig(secret string, expiry time.Duration) ServiceOption {
	return func(s *Service) {
		s.secret = []byte(secret)
		s.tokenExpiry = expiry
	}
}

// NewService creates a new auth service
func NewService(opts ...ServiceOption) *Service {
	s := &Service{tokenExpiry: 24 * time.Hour}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result pairs a user with a freshly issued bearer token.
type Result struct {
	User  *models.User
	Token string
}

// Register creates an account with a bcrypt-hashed password and issues a
// token.
func (s *Service) Register(ctx context.Context, email, password, name string) (*Result, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Login verifies a password and issues a token, updating last_login_at.
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if user.PasswordHash == "" || !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, ""); err == nil {
		user.LastLoginAt = time.Now()
	}
	return s.issue(user)
}

// GoogleLogin exchanges an OAuth code, upserts the user by Google id then
// by email, and issues the same bearer token as password login.
func (s *Service) GoogleLogin(ctx context.Context, code string) (*Result, error) {
	if s.google == nil {
		return nil, ErrOAuthDisabled
	}

	profile, err := s.google.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByGoogleID(ctx, profile.Sub)
	if errors.Is(err, repository.ErrNotFound) {
		user, err = s.upsertByEmail(ctx, profile)
	}
	if err != nil {
		return nil, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, profile.Name); err == nil {
		user.LastLoginAt = time.Now()
		if profile.Name != "" {
			user.Name = profile.Name
		}
	}
	return s.issue(user)
}

func (s *Service) upsertByEmail(ctx context.Context, profile *GoogleProfile) (*models.User, error) {
	email := strings.ToLower(profile.Email)

	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		// Existing password account: link the Google identity.
		if linkErr := s.users.LinkGoogleID(ctx, user.ID, profile.Sub); linkErr != nil {
			return nil, linkErr
		}
		googleID := profile.Sub
		user.GoogleID = &googleID
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	googleID := profile.Sub
	user = &models.User{
		Email:    email,
		GoogleID: &googleID,
		Name:     profile.Name,
		Active:   true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Verify resolves a bearer token to a user id, failing closed.
func (s *Service) Verify(tokenString string) (uuid.UUID, error) {
	return VerifyToken(tokenString, s.secret)
}

func (s *Service) issue(user *models.User) (*Result, error) {
	token, err := GenerateToken(user.ID, s.secret, s.tokenExpiry)
	if err != nil {
		return nil, err
	}
	return &Result{User: user, Token: token}, nil
}
