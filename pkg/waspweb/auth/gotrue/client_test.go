package gotrue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient("", "anon")
	assert.Error(t, err)
}

func TestSignInWithPassword(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon", r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "admin@example.com", body["email"])
		assert.Equal(t, "secret", body["password"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"access_token": "access",
			"refresh_token": "refresh",
			"expires_at": 1700000000,
			"user": {"id": "4f1c2a5e-3b7d-4c8e-9f0a-1b2c3d4e5f60", "email": "admin@example.com"}
		}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL+"/", "anon")
	require.NoError(t, err)

	session, err := client.SignInWithPassword(context.Background(), "admin@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "access", session.AccessToken)
	assert.Equal(t, "refresh", session.RefreshToken)
	assert.Equal(t, time.Unix(1700000000, 0), session.ExpiresAt)
	assert.Equal(t, "admin@example.com", session.User.Email)
	assert.Equal(t, "4f1c2a5e-3b7d-4c8e-9f0a-1b2c3d4e5f60", session.User.ID.String())
}

func TestRefreshSession_InvalidGrant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "invalid_grant", "error_description": "Invalid Refresh Token"}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "anon")
	require.NoError(t, err)

	_, err = client.RefreshSession(context.Background(), "stale")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidGrant)
	assert.Contains(t, err.Error(), "Invalid Refresh Token")
}

func TestRefreshSession_ExpiresIn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token": "a", "refresh_token": "r", "expires_in": 3600}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "anon")
	require.NoError(t, err)

	session, err := client.RefreshSession(context.Background(), "r0")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, time.Minute)
}

func TestSignOut(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/logout", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "anon")
	require.NoError(t, err)

	require.NoError(t, client.SignOut(context.Background(), "token"))
	assert.Equal(t, "Bearer token", gotAuth)
}

func TestSignOut_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"msg": "database unavailable"}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "anon")
	require.NoError(t, err)

	err = client.SignOut(context.Background(), "token")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidGrant)
	assert.Contains(t, err.Error(), "database unavailable")
}

func TestAuthorizeURL(t *testing.T) {
	client, err := NewClient("https://auth.example.com", "anon")
	require.NoError(t, err)

	raw, err := client.AuthorizeURL("discord", "https://example.com/auth/callback", "identify email")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/auth/v1/authorize", u.Path)
	assert.Equal(t, "discord", u.Query().Get("provider"))
	assert.Equal(t, "https://example.com/auth/callback", u.Query().Get("redirect_to"))
	assert.Equal(t, "identify email", u.Query().Get("scopes"))

	_, err = client.AuthorizeURL("", "", "")
	assert.Error(t, err)
}
