// Package server exposes the gateway's HTTP surface: the provider
// callback, gated OAuth sign-in, the admin attempt listing, and health.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/svbkhl/btp-smart-pro-sub001/internal/capability"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/config"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/crypto"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/invite"
	jsonwriter "github.com/svbkhl/btp-smart-pro-sub001/internal/json"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/log"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/provider"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/routing"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/storage"
)

// HTTPServer is the gateway's HTTP front.
type HTTPServer struct {
	cfg          config.GatewayConfig
	store        storage.Storage
	provider     *provider.HTTPClient
	gate         *invite.Gate
	resolver     *routing.Resolver
	stateToken   crypto.TokenSigner
	sessionToken crypto.TokenSigner

	httpServer *http.Server
}

// NewHTTPServer wires the HTTP surface. checker may be nil when OAuth
// sign-in is not configured.
func NewHTTPServer(cfg config.GatewayConfig, store storage.Storage, providerClient *provider.HTTPClient, checker invite.Checker) *HTTPServer {
	var billing *capability.BillingClient
	if cfg.Billing.URL != "" {
		billing = capability.NewBillingClient(cfg.Billing.URL)
	}
	caps := capability.NewSet(cfg.Admin, store, billing)

	var gate *invite.Gate
	if checker != nil {
		gate = invite.NewGate(checker)
	}

	s := &HTTPServer{
		cfg:          cfg,
		store:        store,
		provider:     providerClient,
		gate:         gate,
		resolver:     routing.NewResolver(caps),
		stateToken:   crypto.NewTokenSigner([]byte(cfg.StateSigningKey), 10*time.Minute),
		sessionToken: crypto.NewTokenSigner([]byte(cfg.StateSigningKey), cfg.SessionTTL),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/callback", s.CallbackHandler)
	mux.HandleFunc("POST /auth/callback", s.CallbackHandler)
	mux.HandleFunc("POST /auth/oauth/signin", s.OAuthSignInHandler)
	mux.HandleFunc("GET /auth/admin/attempts", s.AdminAttemptsHandler)
	mux.HandleFunc("GET /auth/admin/users", s.AdminUsersHandler)
	mux.HandleFunc("POST /auth/admin/users/role", s.AdminUserRoleHandler)
	mux.HandleFunc("GET /health", s.HealthHandler)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *HTTPServer) Start() error {
	log.LogInfoWithFields("server", "Gateway listening", map[string]any{
		"addr":    s.cfg.Addr,
		"baseURL": s.cfg.BaseURL,
	})
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.httpServer.Handler
}

// HealthHandler reports liveness.
func (s *HTTPServer) HealthHandler(w http.ResponseWriter, r *http.Request) {
	_ = jsonwriter.Write(w, map[string]string{"status": "ok"})
}
