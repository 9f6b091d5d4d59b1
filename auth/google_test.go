package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newGoogleTestServer(t *testing.T, accessToken string, profile GoogleProfile) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.PostFormValue("grant_type") != "authorization_code" {
			http.Error(w, "bad grant type", http.StatusBadRequest)
			return
		}
		if r.PostFormValue("code") == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": accessToken})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+accessToken {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(profile)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestExchangeCode_Success(t *testing.T) {
	t.Parallel()

	profile := GoogleProfile{Sub: "sub-123", Email: "eve@example.com", Name: "Eve"}
	srv := newGoogleTestServer(t, "token-abc", profile)

	provider := NewGoogleProvider(GoogleConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		TokenURL:     srv.URL + "/token",
		UserInfoURL:  srv.URL + "/userinfo",
	})

	got, err := provider.ExchangeCode(context.Background(), "auth-code")
	require.NoError(t, err)
	require.Equal(t, profile, *got)
}

func TestExchangeCode_TokenEndpointError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	provider := NewGoogleProvider(GoogleConfig{
		TokenURL:    srv.URL,
		UserInfoURL: srv.URL,
	})

	_, err := provider.ExchangeCode(context.Background(), "expired-code")
	require.Error(t, err)
}

func TestGoogleLogin_CreatesAndLinksUsers(t *testing.T) {
	t.Parallel()

	profile := GoogleProfile{Sub: "sub-789", Email: "frank@example.com", Name: "Frank"}
	srv := newGoogleTestServer(t, "token-xyz", profile)

	provider := NewGoogleProvider(GoogleConfig{
		TokenURL:    srv.URL + "/token",
		UserInfoURL: srv.URL + "/userinfo",
	})

	store := newFakeUserStore()
	svc := NewService(
		WithUserStore(store),
		WithGoogleProvider(provider),
		WithTokenConfig("test-secret", time.Hour),
	)
	ctx := context.Background()

	// First login creates the account.
	first, err := svc.GoogleLogin(ctx, "code-1")
	require.NoError(t, err)
	require.Equal(t, "frank@example.com", first.User.Email)
	require.NotNil(t, first.User.GoogleID)

	// Second login resolves the same account by Google id.
	second, err := svc.GoogleLogin(ctx, "code-2")
	require.NoError(t, err)
	require.Equal(t, first.User.ID, second.User.ID)
}

func TestGoogleLogin_LinksExistingPasswordAccount(t *testing.T) {
	t.Parallel()

	profile := GoogleProfile{Sub: "sub-link", Email: "grace@example.com", Name: "Grace"}
	srv := newGoogleTestServer(t, "token-link", profile)

	provider := NewGoogleProvider(GoogleConfig{
		TokenURL:    srv.URL + "/token",
		UserInfoURL: srv.URL + "/userinfo",
	})

	store := newFakeUserStore()
	svc := NewService(
		WithUserStore(store),
		WithGoogleProvider(provider),
		WithTokenConfig("test-secret", time.Hour),
	)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "grace@example.com", "password123", "Grace")
	require.NoError(t, err)

	result, err := svc.GoogleLogin(ctx, "code-3")
	require.NoError(t, err)
	require.Equal(t, reg.User.ID, result.User.ID)
	require.NotNil(t, result.User.GoogleID)
	require.Equal(t, "sub-link", *result.User.GoogleID)
}
