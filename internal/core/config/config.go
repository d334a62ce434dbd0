package config

import (
	"time"

	"github.com/vietddude/paygate/internal/core/domain"
	redisclient "github.com/vietddude/paygate/internal/infra/redis"
	"github.com/vietddude/paygate/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server      ServerConfig       `yaml:"server"`
	Environment string             `yaml:"environment"` // development, production
	Provider    ProviderConfig     `yaml:"provider"`
	Webhook     WebhookConfig      `yaml:"webhook"`
	Redis       redisclient.Config `yaml:"redis"`
	Logging     LoggingConfig      `yaml:"logging"`
	Database    postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// ProviderConfig holds settings for the blockchain-data provider API.
type ProviderConfig struct {
	Coin        domain.CoinSymbol `yaml:"coin"`
	Token       string            `yaml:"token"`
	BaseURL     string            `yaml:"base_url"` // overrides the derived provider URL (tests)
	CallbackURL string            `yaml:"callback_url"`
	Timeout     time.Duration     `yaml:"timeout"`
}

// WebhookConfig holds settings for inbound webhook processing.
type WebhookConfig struct {
	Secret                string `yaml:"secret"`
	DisableVerification   bool   `yaml:"disable_verification"` // local development only
	ConfirmationThreshold uint64 `yaml:"confirmation_threshold"`
}

// IsProduction reports whether the deployment is marked production.
// The simulation endpoint must be unreachable when it returns true.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}
