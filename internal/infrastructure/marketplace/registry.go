package marketplace

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketbridge/backend/internal/domain/channel"
)

// GatewayRegistry is the explicit, injected registry of gateways for
// currently active channels. Reads are guarded by an RWMutex so concurrent
// resolutions never block each other; Reload swaps the whole map under the
// write lock and is triggered on channel activate/deactivate.
type GatewayRegistry struct {
	channels channel.ChannelRepository
	factory  channel.GatewayFactory
	logger   *zap.Logger

	mu     sync.RWMutex
	byID   map[uuid.UUID]channel.MarketplaceGateway
	byCode map[string]channel.MarketplaceGateway
}

// NewGatewayRegistry creates an empty registry; call Reload to populate it
func NewGatewayRegistry(channels channel.ChannelRepository, factory channel.GatewayFactory, logger *zap.Logger) *GatewayRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GatewayRegistry{
		channels: channels,
		factory:  factory,
		logger:   logger,
		byID:     make(map[uuid.UUID]channel.MarketplaceGateway),
		byCode:   make(map[string]channel.MarketplaceGateway),
	}
}

// Get returns the gateway for a channel ID
func (r *GatewayRegistry) Get(channelID uuid.UUID) (channel.MarketplaceGateway, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gw, ok := r.byID[channelID]
	return gw, ok
}

// GetByCode returns the gateway for a channel code
func (r *GatewayRegistry) GetByCode(code string) (channel.MarketplaceGateway, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gw, ok := r.byCode[code]
	return gw, ok
}

// All returns the registered gateways ordered by channel code
func (r *GatewayRegistry) All() []channel.MarketplaceGateway {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]string, 0, len(r.byCode))
	for code := range r.byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	out := make([]channel.MarketplaceGateway, 0, len(codes))
	for _, code := range codes {
		out = append(out, r.byCode[code])
	}
	return out
}

// Reload rebuilds the registry from the currently active channels. A channel
// whose gateway cannot be constructed (bad credentials, unknown adapter
// type) is skipped and logged; the reload itself still succeeds so one
// broken channel never takes the others down.
func (r *GatewayRegistry) Reload(ctx context.Context) error {
	active, err := r.channels.FindActive(ctx)
	if err != nil {
		return err
	}

	byID := make(map[uuid.UUID]channel.MarketplaceGateway, len(active))
	byCode := make(map[string]channel.MarketplaceGateway, len(active))
	for i := range active {
		ch := &active[i]
		gw, err := r.factory.Build(ch)
		if err != nil {
			r.logger.Error("Skipping channel with unbuildable gateway",
				zap.String("channel_code", ch.Code),
				zap.String("adapter_type", string(ch.AdapterType)),
				zap.Error(err),
			)
			continue
		}
		byID[ch.ID] = gw
		byCode[ch.Code] = gw
	}

	r.mu.Lock()
	r.byID = byID
	r.byCode = byCode
	r.mu.Unlock()

	r.logger.Info("Gateway registry reloaded",
		zap.Int("active_channels", len(active)),
		zap.Int("registered", len(byID)),
	)
	return nil
}

// Ensure GatewayRegistry implements the domain port
var _ channel.Registry = (*GatewayRegistry)(nil)
