// Package capability implements the external yes/no checks the post-auth
// router consumes: profile completeness, admin status, and subscription
// state. Each answers for a session without knowing anything about
// routing.
package capability

import (
	"context"

	"github.com/svbkhl/btp-smart-pro-sub001/internal/adminauth"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/config"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/provider"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/routing"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/storage"
)

// Set bundles the capability implementations behind routing.Capabilities.
type Set struct {
	admin   *config.AdminConfig
	store   storage.Storage
	billing *BillingClient
}

var _ routing.Capabilities = (*Set)(nil)

// NewSet creates the production capability set. billing may be nil, in
// which case every user is treated as unsubscribed.
func NewSet(admin *config.AdminConfig, store storage.Storage, billing *BillingClient) *Set {
	return &Set{
		admin:   admin,
		store:   store,
		billing: billing,
	}
}

// ProfileComplete answers from session metadata: every profile field
// (nom, prenom, statut) must be non-empty.
func (s *Set) ProfileComplete(_ context.Context, sess *provider.Session) (bool, error) {
	return sess.User.Metadata.Complete(), nil
}

// IsAdmin answers from the config admin list and storage-promoted admins.
func (s *Set) IsAdmin(ctx context.Context, sess *provider.Session) (bool, error) {
	return adminauth.IsAdmin(ctx, sess.User.Email, s.admin, s.store), nil
}

// HasActiveSubscription asks the billing capability.
func (s *Set) HasActiveSubscription(ctx context.Context, sess *provider.Session) (bool, error) {
	if s.billing == nil {
		return false, nil
	}
	return s.billing.HasActiveSubscription(ctx, sess.User.ID)
}
