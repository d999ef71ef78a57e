package internal

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/svbkhl/btp-smart-pro-sub001/internal/config"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/invite"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/log"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/provider"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/server"
	"github.com/svbkhl/btp-smart-pro-sub001/internal/storage"
	"golang.org/x/sync/errgroup"
)

// AuthGateway is the assembled application.
type AuthGateway struct {
	config     config.Config
	httpServer *server.HTTPServer
	store      storage.Storage
}

// NewAuthGateway builds the gateway with all dependencies.
func NewAuthGateway(ctx context.Context, cfg config.Config) (*AuthGateway, error) {
	log.LogInfoWithFields("authgw", "Building auth gateway", map[string]any{
		"baseURL": cfg.Gateway.BaseURL,
		"storage": string(cfg.Gateway.Storage),
	})

	store, err := setupStorage(ctx, cfg.Gateway)
	if err != nil {
		return nil, fmt.Errorf("failed to setup storage: %w", err)
	}

	providerClient := provider.NewHTTPClient(cfg.Gateway.Provider.URL, string(cfg.Gateway.Provider.AnonKey))

	var checker invite.Checker
	if cfg.Gateway.OAuth != nil {
		checker = invite.NewHTTPChecker(cfg.Gateway.Provider.URL, string(cfg.Gateway.Provider.AnonKey))
	}

	return &AuthGateway{
		config:     cfg,
		httpServer: server.NewHTTPServer(cfg.Gateway, store, providerClient, checker),
		store:      store,
	}, nil
}

func setupStorage(ctx context.Context, cfg config.GatewayConfig) (storage.Storage, error) {
	switch cfg.Storage {
	case config.StorageFirestore:
		return storage.NewFirestoreStorage(ctx, cfg.GCPProject, cfg.FirestoreDatabase)
	case config.StorageMemory, "":
		return storage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported storage kind: %s", cfg.Storage)
	}
}

// Run serves until the context is cancelled or a signal arrives, then
// drains gracefully.
func (g *AuthGateway) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return g.httpServer.Start()
	})

	group.Go(func() error {
		<-ctx.Done()
		log.Logf("Shutting down gateway")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := g.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}

		if closer, ok := g.store.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				log.LogWarn("Failed to close storage: %v", err)
			}
		}
		return nil
	})

	return group.Wait()
}
