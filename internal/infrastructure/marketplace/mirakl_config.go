package marketplace

import (
	"encoding/json"
	"fmt"

	"github.com/marketbridge/backend/internal/domain/channel"
)

// MiraklConfig holds the per-channel settings of a Mirakl-compatible
// marketplace API
type MiraklConfig struct {
	// APIBaseURL is the marketplace operator's API root, e.g.
	// https://marketplace.example.com/api
	APIBaseURL string `json:"api_base_url"`
	// APIKey is the shop's front key, sent in the Authorization header
	APIKey string `json:"api_key"`
	// ShopID is the seller shop identifier on the marketplace
	ShopID string `json:"shop_id"`
	// TimeoutSeconds bounds each HTTP call; retries are the executor's job
	TimeoutSeconds int `json:"timeout_seconds"`
}

// Validate checks that the configuration is usable
func (c *MiraklConfig) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("%w: missing API base URL", channel.ErrGatewayNotConfigured)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%w: missing API key", channel.ErrGatewayNotConfigured)
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// ParseMiraklConfig merges a channel's credentials and config blobs into a
// MiraklConfig. Credentials carry the API key; config carries the rest.
func ParseMiraklConfig(credentials, config string) (*MiraklConfig, error) {
	cfg := &MiraklConfig{}
	if config != "" {
		if err := json.Unmarshal([]byte(config), cfg); err != nil {
			return nil, fmt.Errorf("%w: invalid channel config: %v", channel.ErrGatewayNotConfigured, err)
		}
	}
	if credentials != "" {
		var creds struct {
			APIKey string `json:"api_key"`
			ShopID string `json:"shop_id"`
		}
		if err := json.Unmarshal([]byte(credentials), &creds); err != nil {
			return nil, fmt.Errorf("%w: invalid channel credentials: %v", channel.ErrGatewayNotConfigured, err)
		}
		if creds.APIKey != "" {
			cfg.APIKey = creds.APIKey
		}
		if creds.ShopID != "" {
			cfg.ShopID = creds.ShopID
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
