package control

import (
	"context"
	"testing"
	"time"

	"github.com/vietddude/paygate/internal/core/config"
)

func testConfig() config.AppConfig {
	return config.AppConfig{
		Server:      config.ServerConfig{Port: 0},
		Environment: "development",
		Webhook: config.WebhookConfig{
			Secret:                "test-secret",
			ConfirmationThreshold: 6,
		},
	}
}

func TestNewGateway_MemoryMode(t *testing.T) {
	g, err := NewGateway(testConfig())
	if err != nil {
		t.Fatalf("NewGateway failed: %v", err)
	}

	if g.StatusRepo() == nil {
		t.Error("Expected memory status repo")
	}
	if g.SubscriptionRepo() == nil {
		t.Error("Expected memory subscription repo")
	}
	if g.Registrar() != nil {
		t.Error("Expected nil registrar without a provider token")
	}
	if g.db != nil {
		t.Error("Expected no database connection without database.url")
	}
	if g.redisClient != nil {
		t.Error("Expected no redis client without redis.url")
	}
}

func TestNewGateway_SimulatorGatedByEnvironment(t *testing.T) {
	cfg := testConfig()

	g, err := NewGateway(cfg)
	if err != nil {
		t.Fatalf("NewGateway failed: %v", err)
	}
	if g.server == nil {
		t.Fatal("Expected server in development mode")
	}

	cfg.Environment = "production"
	if _, err := NewGateway(cfg); err != nil {
		t.Fatalf("NewGateway failed in production mode: %v", err)
	}
}

func TestGateway_StartStop(t *testing.T) {
	g, err := NewGateway(testConfig())
	if err != nil {
		t.Fatalf("NewGateway failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := g.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	if err := g.Stop(stopCtx); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}
