package server

import (
	"errors"
	"net/http"

	"github.com/svbkhl/btp-smart-pro-sub001/internal/browserauth"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/crypto"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/emailutil"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/invite"
	jsonwriter "github.com/svbkhl/btp-smart-pro-sub001/internal/json"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/log"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/routing"
	"golang.org/x/oauth2"
)

// OAuthSignInHandler initiates OAuth sign-in from the sign-in screen.
// OAuth sign-up is closed: the invitation gate runs before any redirect
// to the provider is issued. The callback page is not gated here.
func (s *HTTPServer) OAuthSignInHandler(w http.ResponseWriter, r *http.Request) {
	if s.cfg.OAuth == nil || s.gate == nil {
		jsonwriter.WriteNotFound(w, "OAuth sign-in is not configured")
		return
	}

	if err := r.ParseForm(); err != nil {
		jsonwriter.WriteBadRequest(w, "Invalid form data")
		return
	}
	email := r.PostFormValue("email")
	if email == "" {
		jsonwriter.WriteBadRequest(w, "Missing email")
		return
	}
	invitationID := r.PostFormValue("invitation_id")

	if err := s.gate.Authorize(r.Context(), email); err != nil {
		var checkErr *invite.CheckError
		if errors.As(err, &checkErr) {
			jsonwriter.WriteServiceUnavailable(w, "La vérification de l'invitation a échoué. Veuillez réessayer plus tard.")
			return
		}
		jsonwriter.WriteForbidden(w, "Aucune invitation valide pour cette adresse email.")
		return
	}

	nonce, err := crypto.GenerateSecureToken()
	if err != nil {
		log.LogError("Failed to generate state nonce: %v", err)
		jsonwriter.WriteInternalServerError(w, "Internal server error")
		return
	}

	state, err := s.stateToken.Sign(browserauth.AuthorizationState{
		Nonce:        nonce,
		InvitationID: invitationID,
		ReturnPath:   routing.DestCallback,
	})
	if err != nil {
		log.LogError("Failed to sign state token: %v", err)
		jsonwriter.WriteInternalServerError(w, "Internal server error")
		return
	}

	authURL := s.oauthConfig().AuthCodeURL(state, oauth2.AccessTypeOffline)
	log.LogInfoWithFields("server", "OAuth sign-in initiated", map[string]any{
		"email": emailutil.Redact(email),
	})
	http.Redirect(w, r, authURL, http.StatusFound)
}

// oauthConfig builds the oauth2 config with the fixed post-login return
// path on this gateway.
func (s *HTTPServer) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.OAuth.ClientID,
		ClientSecret: string(s.cfg.OAuth.ClientSecret),
		Endpoint: oauth2.Endpoint{
			AuthURL:  s.cfg.OAuth.AuthURL,
			TokenURL: s.cfg.OAuth.TokenURL,
		},
		RedirectURL: s.cfg.BaseURL + routing.DestCallback,
		Scopes:      s.cfg.OAuth.Scopes,
	}
}
