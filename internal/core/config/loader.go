package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/paygate/internal/core/domain"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if necessary
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Provider.Coin == "" {
		cfg.Provider.Coin = domain.CoinBTCTestnet
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = 30 * time.Second
	}
	if cfg.Webhook.ConfirmationThreshold == 0 {
		cfg.Webhook.ConfirmationThreshold = 6
	}

	if _, ok := domain.CoinSymbolToNetwork[cfg.Provider.Coin]; !ok {
		return nil, fmt.Errorf("invalid coin symbol: %s", cfg.Provider.Coin)
	}

	return &cfg, nil
}
