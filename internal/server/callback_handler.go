package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/bootstrap"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/browserauth"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/callback"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/cookie"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/log"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/provider"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/recovery"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/routing"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/storage"
)

// CallbackHandler receives the identity provider's redirect and runs the
// session bootstrap pipeline. The browser cannot deliver a URL hash
// fragment to a server, so the callback page's bootstrap script forwards
// it as the "fragment" form/query value; both surfaces reach the parser.
func (s *HTTPServer) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	fragment := r.URL.Query().Get("fragment")
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err == nil {
			if f := r.PostFormValue("fragment"); f != "" {
				fragment = f
			}
		}
	}

	fullURL := s.cfg.BaseURL + r.URL.RequestURI()
	if fragment != "" {
		fullURL += "#" + fragment
	}
	params := callback.Parse(fullURL, fragment)

	// OAuth redirects echo the signed state minted at sign-in initiation;
	// the invitation travels inside it, not as a bare URL parameter.
	if params.State != "" {
		var authState browserauth.AuthorizationState
		if err := s.stateToken.Verify(params.State, &authState); err != nil {
			if params.HasCode() {
				log.LogWarnWithFields("server", "Rejecting callback with invalid state", map[string]any{
					"error": err.Error(),
				})
				s.finishCallbackError(w, r, params, &bootstrap.CallbackError{Code: "invalid_state"})
				return
			}
			log.LogDebugWithFields("server", "Ignoring unverifiable state on codeless callback", nil)
		} else if params.InvitationID == "" {
			params.InvitationID = authState.InvitationID
		}
	}

	log.LogDebugWithFields("server", "Callback received", map[string]any{
		"flow":     string(params.Type),
		"hasCode":  params.HasCode(),
		"hasError": params.HasError(),
	})

	// Ambient session: the token pair from a previous signed cookie, if
	// the browser presented one and it verifies.
	var ambient browserauth.SessionCookie
	if value, err := cookie.GetSession(r); err == nil {
		if err := s.sessionToken.Verify(value, &ambient); err != nil {
			ambient = browserauth.SessionCookie{}
		}
	}

	attempt := s.provider.ForAttempt(ambient.AccessToken, ambient.RefreshToken, s.cfg.PollInterval)
	guard := recovery.NewGuard()
	pipeline := bootstrap.NewPipeline(attempt, guard, s.resolver, s.cfg.ListenTimeout, s.cfg.SignOutGrace)

	result, err := pipeline.Run(r.Context(), params)
	if err != nil {
		s.finishCallbackError(w, r, params, err)
		return
	}

	s.finishCallback(w, r, params, result)
}

func (s *HTTPServer) finishCallback(w http.ResponseWriter, r *http.Request, params callback.Params, result *bootstrap.Result) {
	var email string
	if result.Session != nil {
		email = result.Session.User.Email
		s.setSessionCookie(w, result.Session)

		if err := s.store.UpsertUser(r.Context(), email); err != nil {
			log.LogWarnWithFields("server", "Failed to upsert user", map[string]any{
				"error": err.Error(),
			})
		}
	}

	s.recordAttempt(storage.AuthAttempt{
		ID:        uuid.NewString(),
		Email:     email,
		Flow:      string(params.Type),
		Decision:  result.Decision.Path,
		CreatedAt: time.Now(),
	})

	http.Redirect(w, r, result.Decision.Path, http.StatusSeeOther)
}

func (s *HTTPServer) finishCallbackError(w http.ResponseWriter, r *http.Request, params callback.Params, err error) {
	if errors.Is(err, context.Canceled) {
		// The user navigated away mid-listen; no decision is owed to a
		// page nobody is looking at.
		log.LogDebugWithFields("server", "Callback attempt abandoned", nil)
		return
	}

	code := bootstrap.ErrorCode(err)
	log.LogWarnWithFields("server", "Callback attempt failed", map[string]any{
		"code":  code,
		"error": err.Error(),
	})

	s.recordAttempt(storage.AuthAttempt{
		ID:        uuid.NewString(),
		Flow:      string(params.Type),
		ErrorCode: code,
		CreatedAt: time.Now(),
	})

	decision := routing.AuthWithError(code, userMessage(err, params), bootstrap.Retryable(err))
	http.Redirect(w, r, decision.Path, http.StatusSeeOther)
}

// userMessage picks the text the sign-in page shows for a failed attempt.
func userMessage(err error, params callback.Params) string {
	var cbErr *bootstrap.CallbackError
	var toErr *bootstrap.TimeoutError
	switch {
	case errors.As(err, &cbErr):
		if cbErr.Description != "" {
			return cbErr.Description
		}
		return "Le lien de connexion est invalide ou a expiré."
	case errors.As(err, &toErr):
		return "L'authentification prend trop de temps. Veuillez réessayer."
	case errors.Is(err, bootstrap.ErrNoSession):
		return "La connexion n'a pas abouti. Veuillez réessayer."
	default:
		return "Une erreur est survenue lors de la connexion."
	}
}

func (s *HTTPServer) setSessionCookie(w http.ResponseWriter, sess *provider.Session) {
	value, err := s.sessionToken.Sign(browserauth.SessionCookie{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		Email:        sess.User.Email,
		Expires:      time.Now().Add(s.cfg.SessionTTL),
	})
	if err != nil {
		log.LogErrorWithFields("server", "Failed to sign session cookie", map[string]any{
			"error": err.Error(),
		})
		return
	}
	cookie.SetSession(w, value, s.cfg.SessionTTL)
}

// recordAttempt writes to the audit trail off the request context so a
// closed connection cannot lose the record.
func (s *HTTPServer) recordAttempt(attempt storage.AuthAttempt) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.RecordAttempt(ctx, attempt); err != nil {
		log.LogWarnWithFields("server", "Failed to record auth attempt", map[string]any{
			"attempt": attempt.ID,
			"error":   err.Error(),
		})
	}
}
