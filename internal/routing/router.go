// Package routing computes the single post-authentication destination.
// The decision function itself is pure; the capability lookups that feed
// it (profile completeness, admin, subscription) are resolved separately
// so the first-match-wins table stays trivially testable and idempotent.
package routing

import "net/url"

// Destinations the gateway can route to.
const (
	DestAuth            = "/auth"
	DestCallback        = "/auth/callback"
	DestResetPassword   = "/reset-password"
	DestCompleteProfile = "/complete-profile"
	DestStart           = "/start"
	DestDashboard       = "/dashboard"
)

// Decision is the single destination computed for a completed
// authentication. Exactly one is made per attempt.
type Decision struct {
	Path string
}

// ResetPassword is the unconditional recovery destination. It overrides
// every other routing rule and is produced without consulting Decide.
func ResetPassword() Decision {
	return Decision{Path: DestResetPassword}
}

// AuthWithError routes back to the sign-in page carrying a user-visible
// error. retryable marks errors where reloading the callback can succeed.
func AuthWithError(code, message string, retryable bool) Decision {
	q := url.Values{}
	q.Set("error", code)
	if message != "" {
		q.Set("error_description", message)
	}
	if retryable {
		q.Set("retryable", "1")
	}
	return Decision{Path: DestAuth + "?" + q.Encode()}
}

// Inputs are the resolved capability answers Decide runs on.
type Inputs struct {
	InvitationID          string
	ProfileComplete       bool
	IsAdmin               bool
	HasActiveSubscription bool
}

// Decide computes the destination for an authenticated, non-recovery
// session. Evaluated top to bottom, first match wins:
//
//  1. Pending invitation: acceptance runs before any subscription gate.
//  2. Incomplete profile: finish onboarding first.
//  3. Administrators bypass the subscription gate.
//  4. No active subscription: plan selection.
//  5. Everything in order: dashboard.
//
// Pure and idempotent: identical inputs always yield identical output.
func Decide(in Inputs) Decision {
	switch {
	case in.InvitationID != "":
		q := url.Values{}
		q.Set("invitation_id", in.InvitationID)
		return Decision{Path: DestStart + "?" + q.Encode()}
	case !in.ProfileComplete:
		return Decision{Path: DestCompleteProfile}
	case in.IsAdmin:
		return Decision{Path: DestDashboard}
	case !in.HasActiveSubscription:
		return Decision{Path: DestStart}
	default:
		return Decision{Path: DestDashboard}
	}
}
