package bootstrap

import (
	"context"

	"github.com/svbkhl/btp-smart-pro-sub001/internal/callback"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/log"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/provider"
)

// Exchanger turns a parsed callback payload into an established session.
// Checks run strictly in order: error, code, direct tokens, ambient
// session; the first applicable branch short-circuits the rest.
type Exchanger struct {
	provider provider.Client
}

// NewExchanger creates an exchanger over the given provider client.
func NewExchanger(p provider.Client) *Exchanger {
	return &Exchanger{provider: p}
}

// Establish attempts to produce a session from the payload. A (nil, nil)
// return means nothing synchronous is available and the caller must hand
// off to the auth event listener; that is not an error.
func (e *Exchanger) Establish(ctx context.Context, params callback.Params) (*provider.Session, error) {
	if params.HasError() {
		return nil, &CallbackError{Code: params.Error, Description: params.ErrorDescription}
	}

	if params.HasCode() {
		sess, err := e.provider.ExchangeCode(ctx, params.Code)
		if err != nil {
			return nil, &ExchangeError{Op: "code", Err: err}
		}
		log.LogDebugWithFields("bootstrap", "Session established from code", map[string]any{
			"user": sess.User.ID,
		})
		return sess, nil
	}

	if params.HasTokens() {
		sess, err := e.provider.SessionFromTokens(ctx, params.AccessToken, params.RefreshToken)
		if err != nil {
			return nil, &ExchangeError{Op: "tokens", Err: err}
		}
		log.LogDebugWithFields("bootstrap", "Session established from token pair", map[string]any{
			"user": sess.User.ID,
		})
		return sess, nil
	}

	// No parameters at all: some providers silently process tokens before
	// our code runs, so ask for the ambient session. Absence hands off to
	// the event listener.
	sess, err := e.provider.CurrentSession(ctx)
	if err != nil {
		return nil, &ExchangeError{Op: "ambient", Err: err}
	}
	if sess != nil {
		log.LogDebugWithFields("bootstrap", "Ambient session found", map[string]any{
			"user": sess.User.ID,
		})
	}
	return sess, nil
}
