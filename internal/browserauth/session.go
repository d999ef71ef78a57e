package browserauth

import "time"

// SessionCookie is the data carried in the signed browser session cookie:
// the provider token pair plus enough identity to log with.
type SessionCookie struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Email        string    `json:"email"`
	Expires      time.Time `json:"expires"`
}

// AuthorizationState is the signed OAuth state parameter minted at sign-in
// initiation and verified when the provider redirects back.
type AuthorizationState struct {
	Nonce        string `json:"nonce"`
	InvitationID string `json:"invitation_id,omitempty"`
	ReturnPath   string `json:"return_path"`
}
