package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pressly/goose/v3"

	"github.com/vietddude/paygate/internal/api"
	"github.com/vietddude/paygate/internal/core/config"
	"github.com/vietddude/paygate/internal/infra/provider"
	redisclient "github.com/vietddude/paygate/internal/infra/redis"
	"github.com/vietddude/paygate/internal/infra/storage"
	"github.com/vietddude/paygate/internal/infra/storage/memory"
	"github.com/vietddude/paygate/internal/infra/storage/postgres"
	"github.com/vietddude/paygate/internal/webhook"
)

// Gateway is the main application struct that wires storage, the provider
// client and the HTTP surface together and manages their lifecycle.
type Gateway struct {
	cfg         config.AppConfig
	server      *api.Server
	statusRepo  storage.TransactionStatusRepository
	subRepo     storage.ForwardingSubscriptionRepository
	registrar   *provider.Registrar
	db          *postgres.DB
	redisClient *redisclient.Client
	log         *slog.Logger
}

// NewGateway creates a Gateway with all dependencies initialized.
func NewGateway(cfg config.AppConfig) (*Gateway, error) {

	// 1. Initialize Storage
	var statusRepo storage.TransactionStatusRepository
	var subRepo storage.ForwardingSubscriptionRepository
	var db *postgres.DB

	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}

		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		// Migrations live in "migrations" relative to CWD
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}

		statusRepo = postgres.NewStatusRepo(db)
		subRepo = postgres.NewSubscriptionRepo(db)
		slog.Info("Using PostgreSQL storage")
	} else {
		store := memory.NewMemoryStorage()
		statusRepo = memory.NewStatusRepo(store)
		subRepo = memory.NewSubscriptionRepo(store)
		slog.Info("Using Memory storage")
	}

	// 2. Initialize Redis cache (optional)
	var redisClient *redisclient.Client
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("Failed to connect to Redis, caching disabled", "error", err)
			redisClient = nil
		}
	}

	// 3. Initialize Provider Client
	var registrar *provider.Registrar
	if cfg.Provider.Token != "" {
		client, err := provider.NewClient(provider.Config{
			Coin:    cfg.Provider.Coin,
			Token:   cfg.Provider.Token,
			BaseURL: cfg.Provider.BaseURL,
			Timeout: cfg.Provider.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init provider client: %w", err)
		}
		registrar = provider.NewRegistrar(client)
	} else {
		slog.Warn("No provider token configured, registration disabled")
	}

	// 4. Initialize Webhook Pipeline
	verifier := webhook.NewVerifier(cfg.Webhook.Secret, cfg.Webhook.DisableVerification)
	normalizer := webhook.NewNormalizer()
	processor := webhook.NewProcessor(statusRepo, redisClient, cfg.Webhook.ConfirmationThreshold)

	var simulator *webhook.Simulator
	if !cfg.IsProduction() {
		simulator = webhook.NewSimulator(normalizer, processor, statusRepo)
		slog.Info("Simulation endpoint enabled", "environment", cfg.Environment)
	}

	// 5. Initialize HTTP Server
	checks := make(map[string]api.HealthChecker)
	if db != nil {
		checks["database"] = db
	}
	if redisClient != nil {
		checks["redis"] = redisClient
	}

	handler := api.NewHandler(verifier, normalizer, processor, simulator, statusRepo, redisClient)
	server := api.NewServer(handler, cfg.Server.Port, checks)

	return &Gateway{
		cfg:         cfg,
		server:      server,
		statusRepo:  statusRepo,
		subRepo:     subRepo,
		registrar:   registrar,
		db:          db,
		redisClient: redisClient,
		log:         slog.Default(),
	}, nil
}

// StatusRepo exposes the transaction status repository for CLI commands.
func (g *Gateway) StatusRepo() storage.TransactionStatusRepository {
	return g.statusRepo
}

// SubscriptionRepo exposes the forwarding subscription repository for CLI
// commands.
func (g *Gateway) SubscriptionRepo() storage.ForwardingSubscriptionRepository {
	return g.subRepo
}

// Registrar exposes the provider registrar. Nil when no token is configured.
func (g *Gateway) Registrar() *provider.Registrar {
	return g.registrar
}

// Start starts the HTTP server and background collectors.
func (g *Gateway) Start(ctx context.Context) error {
	if g.db != nil {
		g.db.StartMetricsCollector(ctx)
	}

	go func() {
		g.log.Info("Starting HTTP server", "port", g.cfg.Server.Port)
		if err := g.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.log.Error("HTTP server failed", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the gateway.
func (g *Gateway) Stop(ctx context.Context) error {
	g.log.Info("Stopping Gateway...")

	if err := g.server.Stop(ctx); err != nil {
		g.log.Warn("Failed to stop HTTP server", "error", err)
	}

	if g.redisClient != nil {
		if err := g.redisClient.Close(); err != nil {
			g.log.Warn("Failed to close Redis", "error", err)
		}
	}

	if g.db != nil {
		if err := g.db.Close(); err != nil {
			g.log.Warn("Failed to close database", "error", err)
		}
	}

	g.log.Info("Gateway stopped")
	return nil
}
