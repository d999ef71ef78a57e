package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findCookie(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func TestSetSession(t *testing.T) {
	w := httptest.NewRecorder()
	SetSession(w, "token-value", time.Hour)

	c := findCookie(t, w, SessionCookie)
	assert.Equal(t, "token-value", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 3600, c.MaxAge)
}

func TestClearSession(t *testing.T) {
	w := httptest.NewRecorder()
	ClearSession(w)

	c := findCookie(t, w, SessionCookie)
	assert.Empty(t, c.Value)
	assert.Negative(t, c.MaxAge)
}

func TestGetSession(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/auth/callback", nil)
		r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "token-value"})

		value, err := GetSession(r)
		require.NoError(t, err)
		assert.Equal(t, "token-value", value)
	})

	t.Run("absent", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/auth/callback", nil)

		_, err := GetSession(r)
		assert.ErrorIs(t, err, http.ErrNoCookie)
	})
}
