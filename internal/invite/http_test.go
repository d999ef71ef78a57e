package invite

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPCheckerHasValidInvitation(t *testing.T) {
	var gotPath, gotAPIKey string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("apikey")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("true"))
	}))
	defer srv.Close()

	c := NewHTTPChecker(srv.URL, "anon-key")
	valid, err := c.HasValidInvitation(context.Background(), "jean@chantier.fr")
	require.NoError(t, err)

	assert.True(t, valid)
	assert.Equal(t, "/rest/v1/rpc/has_valid_invitation", gotPath)
	assert.Equal(t, "anon-key", gotAPIKey)
	assert.Equal(t, map[string]string{"p_email": "jean@chantier.fr"}, gotBody)
}

func TestHTTPCheckerNotInvited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("false"))
	}))
	defer srv.Close()

	c := NewHTTPChecker(srv.URL, "anon-key")
	valid, err := c.HasValidInvitation(context.Background(), "intrus@exemple.fr")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestHTTPCheckerServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPChecker(srv.URL, "anon-key")
	_, err := c.HasValidInvitation(context.Background(), "jean@chantier.fr")
	assert.Error(t, err)
}

func TestHTTPCheckerMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	c := NewHTTPChecker(srv.URL, "anon-key")
	_, err := c.HasValidInvitation(context.Background(), "jean@chantier.fr")
	assert.Error(t, err)
}
