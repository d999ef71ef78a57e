package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/svbkhl/btp-smart-pro-sub001/internal/adminauth"
	jsonwriter "github.com/svbkhl/btp-smart-pro-sub001/internal/json"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/log"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/storage"
)

const defaultAttemptsLimit = 100

// AdminAttemptsHandler lists recorded authentication attempts, newest
// first. Guarded by the admin bearer token.
func (s *HTTPServer) AdminAttemptsHandler(w http.ResponseWriter, r *http.Request) {
	if !adminauth.VerifyRequest(r, s.cfg.Admin) {
		jsonwriter.WriteUnauthorized(w, "Invalid admin token")
		return
	}

	limit := defaultAttemptsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			jsonwriter.WriteBadRequest(w, "Invalid limit")
			return
		}
		limit = parsed
	}

	attempts, err := s.store.ListAttempts(r.Context(), limit)
	if err != nil {
		log.LogErrorWithFields("server", "Failed to list auth attempts", map[string]any{
			"error": err.Error(),
		})
		jsonwriter.WriteInternalServerError(w, "Failed to list attempts")
		return
	}

	_ = jsonwriter.Write(w, map[string]any{"attempts": attempts})
}

// AdminUsersHandler lists every user the gateway has seen.
func (s *HTTPServer) AdminUsersHandler(w http.ResponseWriter, r *http.Request) {
	if !adminauth.VerifyRequest(r, s.cfg.Admin) {
		jsonwriter.WriteUnauthorized(w, "Invalid admin token")
		return
	}

	users, err := s.store.GetAllUsers(r.Context())
	if err != nil {
		log.LogErrorWithFields("server", "Failed to list users", map[string]any{
			"error": err.Error(),
		})
		jsonwriter.WriteInternalServerError(w, "Failed to list users")
		return
	}

	_ = jsonwriter.Write(w, map[string]any{"users": users})
}

// AdminUserRoleHandler flips the stored admin flag on a user. Admins
// named in the config cannot be demoted here; their role comes from the
// config file, not storage.
func (s *HTTPServer) AdminUserRoleHandler(w http.ResponseWriter, r *http.Request) {
	if !adminauth.VerifyRequest(r, s.cfg.Admin) {
		jsonwriter.WriteUnauthorized(w, "Invalid admin token")
		return
	}

	if err := r.ParseForm(); err != nil {
		jsonwriter.WriteBadRequest(w, "Invalid form data")
		return
	}

	email := r.FormValue("email")
	if email == "" {
		jsonwriter.WriteBadRequest(w, "Missing email")
		return
	}

	isAdmin, err := strconv.ParseBool(r.FormValue("admin"))
	if err != nil {
		jsonwriter.WriteBadRequest(w, "Invalid admin value")
		return
	}

	if !isAdmin && adminauth.IsConfigAdmin(email, s.cfg.Admin) {
		jsonwriter.WriteForbidden(w, "Cannot demote config-defined admins")
		return
	}

	if err := s.store.SetUserAdmin(r.Context(), email, isAdmin); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			jsonwriter.WriteNotFound(w, "User not found")
			return
		}
		log.LogErrorWithFields("server", "Failed to update user role", map[string]any{
			"email": email,
			"error": err.Error(),
		})
		jsonwriter.WriteInternalServerError(w, "Failed to update user role")
		return
	}

	log.LogInfoWithFields("server", "User role updated", map[string]any{
		"email": email,
		"admin": isAdmin,
	})

	_ = jsonwriter.Write(w, map[string]any{"email": email, "is_admin": isAdmin})
}
