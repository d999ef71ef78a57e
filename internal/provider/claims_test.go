package provider

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestUserFromAccessToken(t *testing.T) {
	t.Run("full claims", func(t *testing.T) {
		token := signTestToken(t, jwt.MapClaims{
			"sub":   "user-1",
			"email": "jean@chantier.fr",
			"user_metadata": map[string]any{
				"nom":    "Dupont",
				"prenom": "Jean",
				"statut": "artisan",
			},
		})

		user, err := userFromAccessToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", user.ID)
		assert.Equal(t, "jean@chantier.fr", user.Email)
		assert.Equal(t, UserMetadata{Nom: "Dupont", Prenom: "Jean", Statut: "artisan"}, user.Metadata)
	})

	t.Run("metadata absent", func(t *testing.T) {
		token := signTestToken(t, jwt.MapClaims{"sub": "user-2"})

		user, err := userFromAccessToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user-2", user.ID)
		assert.False(t, user.Metadata.Complete())
	})

	t.Run("no subject", func(t *testing.T) {
		token := signTestToken(t, jwt.MapClaims{"email": "jean@chantier.fr"})

		_, err := userFromAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := userFromAccessToken("")
		assert.Error(t, err)
	})

	t.Run("not a jwt", func(t *testing.T) {
		_, err := userFromAccessToken("opaque-token")
		assert.Error(t, err)
	})
}
