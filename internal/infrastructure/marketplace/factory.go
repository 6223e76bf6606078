package marketplace

import (
	"fmt"

	"github.com/marketbridge/backend/internal/domain/channel"
)

// AdapterFactory builds gateway instances from channel configurations.
// Unknown adapter types are a configuration error, not a crash.
type AdapterFactory struct{}

// NewAdapterFactory creates a gateway factory
func NewAdapterFactory() *AdapterFactory {
	return &AdapterFactory{}
}

// Build constructs the gateway for a channel based on its adapter type
func (f *AdapterFactory) Build(ch *channel.Channel) (channel.MarketplaceGateway, error) {
	switch ch.AdapterType {
	case channel.AdapterTypeMirakl:
		cfg, err := ParseMiraklConfig(ch.Credentials, ch.Config)
		if err != nil {
			return nil, err
		}
		return NewMiraklAdapter(ch.ID, ch.Code, cfg)
	default:
		return nil, fmt.Errorf("%w: unknown adapter type %q", channel.ErrGatewayNotConfigured, ch.AdapterType)
	}
}

// Ensure AdapterFactory implements the domain port
var _ channel.GatewayFactory = (*AdapterFactory)(nil)
