package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"pixelcraft-backend/models"
	"pixelcraft-backend/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// fakeUserStore is an in-memory UserStore for service tests.
type fakeUserStore struct {
	byID       map[uuid.UUID]*models.User
	byEmail    map[string]*models.User
	byGoogleID map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:       make(map[uuid.UUID]*models.User),
		byEmail:    make(map[string]*models.User),
		byGoogleID: make(map[string]*models.User),
	}
}

func (f *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	if _, exists := f.byEmail[user.Email]; exists {
		return repository.ErrDuplicateEmail
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.LastLoginAt = time.Now()
	f.byID[user.ID] = user
	f.byEmail[user.Email] = user
	if user.GoogleID != nil {
		f.byGoogleID[*user.GoogleID] = user
	}
	return nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserStore) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	if u, ok := f.byGoogleID[googleID]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserStore) TouchLastLogin(ctx context.Context, id uuid.UUID, name string) error {
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastLoginAt = time.Now()
	if name != "" {
		u.Name = name
	}
	return nil
}

func (f *fakeUserStore) LinkGoogleID(ctx context.Context, id uuid.UUID, googleID string) error {
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.GoogleID = &googleID
	f.byGoogleID[googleID] = u
	return nil
}

func newTestService(store UserStore) *Service {
	return NewService(
		WithUserStore(store),
		WithTokenConfig("test-secret", time.Hour),
	)
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeUserStore())
	ctx := context.Background()

	reg, err := svc.Register(ctx, "Alice@Example.com", "password123", "Alice")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", reg.User.Email)
	require.NotEmpty(t, reg.Token)

	// Token subject must resolve back to the registered user.
	userID, err := svc.Verify(reg.Token)
	require.NoError(t, err)
	require.Equal(t, reg.User.ID, userID)

	login, err := svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	require.Equal(t, reg.User.ID, login.User.ID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeUserStore())
	ctx := context.Background()

	_, err := svc.Register(ctx, "bob@example.com", "password123", "Bob")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "bob@example.com", "different-password", "Bob")
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeUserStore())
	ctx := context.Background()

	_, err := svc.Register(ctx, "carol@example.com", "correct-password", "Carol")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "carol@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeUserStore())

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_GoogleOnlyAccountHasNoPassword(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	svc := newTestService(store)
	ctx := context.Background()

	googleID := "google-sub-1"
	require.NoError(t, store.Create(ctx, &models.User{
		Email:    "dave@example.com",
		GoogleID: &googleID,
		Active:   true,
	}))

	_, err := svc.Login(ctx, "dave@example.com", "any-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGoogleLogin_Disabled(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeUserStore())

	_, err := svc.GoogleLogin(context.Background(), "some-code")
	if !errors.Is(err, ErrOAuthDisabled) {
		t.Fatalf("expected ErrOAuthDisabled, got %v", err)
	}
}

func TestRegister_EmptyFields(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeUserStore())
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "password", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Register(ctx, strings.Repeat(" ", 3), "password", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
