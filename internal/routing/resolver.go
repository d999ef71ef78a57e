package routing

import (
	"context"
	"fmt"

	"github.com/svbkhl/btp-smart-pro-sub001/internal/provider"
)

// Capabilities are the externally-supplied yes/no checks the router
// consumes. Implementations live in the capability package; tests supply
// their own.
type Capabilities interface {
	ProfileComplete(ctx context.Context, sess *provider.Session) (bool, error)
	IsAdmin(ctx context.Context, sess *provider.Session) (bool, error)
	HasActiveSubscription(ctx context.Context, sess *provider.Session) (bool, error)
}

// Resolver answers the routing question for a session by querying
// capabilities and feeding the pure decision table.
type Resolver struct {
	caps Capabilities
}

// NewResolver creates a resolver over the given capability set.
func NewResolver(caps Capabilities) *Resolver {
	return &Resolver{caps: caps}
}

// Route resolves the capability inputs and computes the decision. An
// invitation short-circuits every lookup: acceptance must run before the
// subscription gate, so nothing else is worth querying.
func (r *Resolver) Route(ctx context.Context, sess *provider.Session, invitationID string) (Decision, error) {
	if invitationID != "" {
		return Decide(Inputs{InvitationID: invitationID}), nil
	}

	profileComplete, err := r.caps.ProfileComplete(ctx, sess)
	if err != nil {
		return Decision{}, fmt.Errorf("profile capability: %w", err)
	}
	if !profileComplete {
		return Decide(Inputs{}), nil
	}

	isAdmin, err := r.caps.IsAdmin(ctx, sess)
	if err != nil {
		return Decision{}, fmt.Errorf("admin capability: %w", err)
	}
	if isAdmin {
		return Decide(Inputs{ProfileComplete: true, IsAdmin: true}), nil
	}

	hasSubscription, err := r.caps.HasActiveSubscription(ctx, sess)
	if err != nil {
		return Decision{}, fmt.Errorf("subscription capability: %w", err)
	}

	return Decide(Inputs{
		ProfileComplete:       true,
		HasActiveSubscription: hasSubscription,
	}), nil
}
