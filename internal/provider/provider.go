// Package provider wraps the hosted identity provider's capability surface:
// exchange-code-for-session, set-session-from-tokens, get-current-session,
// and the asynchronous auth event stream. Sessions are treated as opaque
// capability tokens; the only decoding we do is reading user metadata.
package provider

import (
	"context"
	"strings"
	"time"
)

// EventType is the tag on an asynchronous provider auth event.
type EventType string

const (
	EventSignedIn         EventType = "SIGNED_IN"
	EventPasswordRecovery EventType = "PASSWORD_RECOVERY"
	EventTokenRefreshed   EventType = "TOKEN_REFRESHED"
	EventSignedOut        EventType = "SIGNED_OUT"
	EventInitialSession   EventType = "INITIAL_SESSION"
)

// Event is one entry of the provider's auth event stream. Session is nil
// for SIGNED_OUT and may be nil for INITIAL_SESSION.
type Event struct {
	Type    EventType
	Session *Session
}

// UserMetadata is the profile block the provider stores alongside the user.
type UserMetadata struct {
	Nom    string `json:"nom"`
	Prenom string `json:"prenom"`
	Statut string `json:"statut"`
}

// Complete reports whether every profile field is filled in.
func (m UserMetadata) Complete() bool {
	return strings.TrimSpace(m.Nom) != "" &&
		strings.TrimSpace(m.Prenom) != "" &&
		strings.TrimSpace(m.Statut) != ""
}

// User is the identity carried by a session.
type User struct {
	ID       string       `json:"id"`
	Email    string       `json:"email"`
	Metadata UserMetadata `json:"user_metadata"`
}

// Session is the provider's proof of authentication. Opaque beyond the
// user identity and metadata fields.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Unsubscribe detaches an auth event subscription. Safe to call more than
// once.
type Unsubscribe func()

// Client is the identity-provider capability surface consumed by the
// bootstrap pipeline. Implementations: the HTTP client (production) and
// the fakes used by tests.
type Client interface {
	// ExchangeCode exchanges an authorization code for a session.
	ExchangeCode(ctx context.Context, code string) (*Session, error)

	// SessionFromTokens establishes a session directly from a token pair.
	SessionFromTokens(ctx context.Context, accessToken, refreshToken string) (*Session, error)

	// CurrentSession returns the ambient, already-established session, or
	// (nil, nil) when there is none. Absence is not an error: it signals
	// that the caller must wait for an asynchronous event instead.
	CurrentSession(ctx context.Context) (*Session, error)

	// OnAuthEvent subscribes fn to the provider's auth event stream.
	// Events may be delivered from goroutines the subscriber does not own.
	OnAuthEvent(fn func(Event)) Unsubscribe
}
