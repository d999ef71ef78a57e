package provider

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// accessTokenClaims is the subset of the provider's access token we read.
// Signature verification is the provider's job, not ours; the token is
// only decoded to recover identity metadata the response body lacked.
type accessTokenClaims struct {
	jwt.RegisteredClaims
	Email        string       `json:"email"`
	UserMetadata UserMetadata `json:"user_metadata"`
}

func userFromAccessToken(accessToken string) (*User, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("empty access token")
	}

	parser := jwt.NewParser()
	var claims accessTokenClaims
	if _, _, err := parser.ParseUnverified(accessToken, &claims); err != nil {
		return nil, fmt.Errorf("parsing access token claims: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("access token has no subject")
	}

	return &User{
		ID:       claims.Subject,
		Email:    claims.Email,
		Metadata: claims.UserMetadata,
	}, nil
}
