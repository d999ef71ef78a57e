// Package invite gates OAuth sign-in behind the invitation list. OAuth
// sign-up is closed: only invited users may create an account this way, so
// the gate runs before any redirect to the provider is issued.
package invite

import (
	"context"
	"errors"
	"fmt"

	"github.com/svbkhl/btp-smart-pro-sub001/internal/emailutil"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/log"
)

// Checker is the external invitation capability: does a valid, non-expired,
// non-consumed invitation exist for this email.
type Checker interface {
	HasValidInvitation(ctx context.Context, email string) (bool, error)
}

// ErrNotInvited means the capability answered: no valid invitation.
var ErrNotInvited = errors.New("no valid invitation for this email")

// CheckError means the invitation query itself failed (network, provider
// outage). Distinct from ErrNotInvited so the caller can tell the user
// about an outage instead of a refusal, but both fail closed: neither
// allows the OAuth redirect.
type CheckError struct {
	Err error
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("invitation check failed: %v", e.Err)
}

func (e *CheckError) Unwrap() error { return e.Err }

// Gate wraps the sign-in screen's OAuth entry point. It is not involved in
// the callback path.
type Gate struct {
	checker Checker
}

// NewGate creates a gate over the given invitation capability.
func NewGate(checker Checker) *Gate {
	return &Gate{checker: checker}
}

// Authorize refuses OAuth initiation unless a valid invitation exists for
// the email. Returns nil when the redirect may proceed.
func (g *Gate) Authorize(ctx context.Context, email string) error {
	email = emailutil.Normalize(email)
	if email == "" {
		return ErrNotInvited
	}

	ok, err := g.checker.HasValidInvitation(ctx, email)
	if err != nil {
		log.LogErrorWithFields("invite", "Invitation check failed", map[string]any{
			"email": emailutil.Redact(email),
			"error": err.Error(),
		})
		return &CheckError{Err: err}
	}
	if !ok {
		log.LogInfoWithFields("invite", "OAuth sign-in refused, no invitation", map[string]any{
			"email": emailutil.Redact(email),
		})
		return ErrNotInvited
	}
	return nil
}
