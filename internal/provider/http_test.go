package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUserJSON() User {
	return User{
		ID:    "user-1",
		Email: "jean@chantier.fr",
		Metadata: UserMetadata{
			Nom:    "Dupont",
			Prenom: "Jean",
			Statut: "artisan",
		},
	}
}

func TestExchangeCode(t *testing.T) {
	var gotGrant, gotAPIKey string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/token", r.URL.Path)
		gotGrant = r.URL.Query().Get("grant_type")
		gotAPIKey = r.Header.Get("apikey")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(tokenResponse{
			AccessToken:  "new-at",
			RefreshToken: "new-rt",
			ExpiresIn:    3600,
			User:         testUserJSON(),
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "anon-key")
	sess, err := c.ExchangeCode(context.Background(), "abc123")
	require.NoError(t, err)

	assert.Equal(t, "pkce", gotGrant)
	assert.Equal(t, "anon-key", gotAPIKey)
	assert.Equal(t, map[string]string{"auth_code": "abc123"}, gotBody)
	assert.Equal(t, "new-at", sess.AccessToken)
	assert.Equal(t, "new-rt", sess.RefreshToken)
	assert.Equal(t, "user-1", sess.User.ID)
	assert.False(t, sess.ExpiresAt.IsZero())
}

func TestExchangeCodeProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "Code has expired",
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "anon-key")
	_, err := c.ExchangeCode(context.Background(), "stale")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Code has expired")
}

func TestExchangeCodeMissingAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"refresh_token": "rt"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "anon-key")
	_, err := c.ExchangeCode(context.Background(), "abc")
	assert.Error(t, err)
}

func TestExchangeCodeFillsUserFromClaims(t *testing.T) {
	// Token response without a user object: identity comes from the
	// access token claims instead.
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-9",
		"email": "marie@chantier.fr",
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"access_token":  accessToken,
			"refresh_token": "rt",
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "anon-key")
	sess, err := c.ExchangeCode(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "user-9", sess.User.ID)
	assert.Equal(t, "marie@chantier.fr", sess.User.Email)
}

func TestSessionFromTokensValidAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/user", r.URL.Path)
		require.Equal(t, "Bearer valid-at", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(testUserJSON())
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "anon-key")
	sess, err := c.SessionFromTokens(context.Background(), "valid-at", "rt")
	require.NoError(t, err)
	assert.Equal(t, "valid-at", sess.AccessToken)
	assert.Equal(t, "rt", sess.RefreshToken)
	assert.Equal(t, "user-1", sess.User.ID)
}

func TestSessionFromTokensRefreshesRejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/user":
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"msg": "JWT expired"})
		case "/auth/v1/token":
			require.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "old-rt", body["refresh_token"])

			json.NewEncoder(w).Encode(tokenResponse{
				AccessToken:  "fresh-at",
				RefreshToken: "fresh-rt",
				User:         testUserJSON(),
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "anon-key")
	sess, err := c.SessionFromTokens(context.Background(), "expired-at", "old-rt")
	require.NoError(t, err)
	assert.Equal(t, "fresh-at", sess.AccessToken)
	assert.Equal(t, "fresh-rt", sess.RefreshToken)
}

func TestSessionFromTokensBothRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"msg": "invalid token"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "anon-key")
	_, err := c.SessionFromTokens(context.Background(), "bad-at", "bad-rt")
	assert.Error(t, err)
}

func TestSharedClientHasNoAmbientState(t *testing.T) {
	c := NewHTTPClient("https://example.com", "anon-key")

	sess, err := c.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)

	fired := false
	unsub := c.OnAuthEvent(func(Event) { fired = true })
	unsub()
	assert.False(t, fired)
}
