package adminauth

import (
	"context"
	"net/http"
	"strings"

	"github.com/svbkhl/btp-smart-pro-sub001/internal/config"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/crypto"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/emailutil"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/storage"
)

// IsAdmin checks if a user is admin (either config-based or promoted in
// storage). Administrators bypass the subscription gate.
func IsAdmin(ctx context.Context, email string, adminConfig *config.AdminConfig, store storage.Storage) bool {
	if adminConfig == nil || !adminConfig.Enabled {
		return false
	}

	normalizedEmail := emailutil.Normalize(email)

	if IsConfigAdmin(normalizedEmail, adminConfig) {
		return true
	}

	if store != nil {
		user, err := store.GetUser(ctx, normalizedEmail)
		if err == nil {
			return user.IsAdmin
		}
	}

	return false
}

// IsConfigAdmin checks if an email is in the config admin list (super admins)
func IsConfigAdmin(email string, adminConfig *config.AdminConfig) bool {
	if adminConfig == nil || !adminConfig.Enabled {
		return false
	}

	normalizedEmail := emailutil.Normalize(email)
	for _, adminEmail := range adminConfig.AdminEmails {
		if emailutil.Normalize(adminEmail) == normalizedEmail {
			return true
		}
	}
	return false
}

// VerifyRequest checks the Authorization bearer token of an admin API
// request against the configured bcrypt hash.
func VerifyRequest(r *http.Request, adminConfig *config.AdminConfig) bool {
	if adminConfig == nil || !adminConfig.Enabled || adminConfig.TokenHash == "" {
		return false
	}

	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return false
	}

	return crypto.VerifyAdminToken([]byte(adminConfig.TokenHash), token)
}
