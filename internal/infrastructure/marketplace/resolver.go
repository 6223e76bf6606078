package marketplace

import (
	"github.com/google/uuid"

	"github.com/marketbridge/backend/internal/domain/channel"
)

// Resolver selects the gateway for an operation. Resolution order: explicit
// channel ID, then explicit channel code, then the first currently-active
// adapter, then none. With zero configured channels it returns the
// ErrNoAdapter sentinel instead of failing, so callers can fall back to the
// legacy single-channel path.
type Resolver struct {
	registry channel.Registry
}

// NewResolver creates a resolver over a registry
func NewResolver(registry channel.Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Resolve picks a gateway. channelID takes precedence over channelCode; an
// explicitly requested channel that is not registered is an error rather
// than a silent fallback.
func (r *Resolver) Resolve(channelID *uuid.UUID, channelCode string) (channel.MarketplaceGateway, error) {
	if channelID != nil && *channelID != uuid.Nil {
		if gw, ok := r.registry.Get(*channelID); ok {
			return gw, nil
		}
		return nil, channel.ErrNoAdapter
	}
	if channelCode != "" {
		if gw, ok := r.registry.GetByCode(channelCode); ok {
			return gw, nil
		}
		return nil, channel.ErrNoAdapter
	}
	all := r.registry.All()
	if len(all) == 0 {
		return nil, channel.ErrNoAdapter
	}
	return all[0], nil
}
