package channel

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketbridge/backend/internal/domain/channel"
)

// ==================== DTOs ====================

// CreateChannelRequest registers a new marketplace channel
type CreateChannelRequest struct {
	Code        string `json:"code" binding:"required,channelcode,max=50"`
	Name        string `json:"name" binding:"required,min=1,max=100"`
	AdapterType string `json:"adapter_type" binding:"required"`
	Credentials string `json:"credentials"`
	Config      string `json:"config"`
}

// UpdateChannelRequest updates channel settings. Nil fields are left
// unchanged.
type UpdateChannelRequest struct {
	Name        *string `json:"name"`
	Credentials *string `json:"credentials"`
	Config      *string `json:"config"`
}

// ChannelResponse is the API view of a channel. Credentials never leave the
// server.
type ChannelResponse struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	AdapterType string    `json:"adapter_type"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToChannelResponse converts a channel aggregate to its API view
func ToChannelResponse(ch *channel.Channel) ChannelResponse {
	return ChannelResponse{
		ID:          ch.ID,
		Code:        ch.Code,
		Name:        ch.Name,
		AdapterType: string(ch.AdapterType),
		Status:      ch.Status.String(),
		CreatedAt:   ch.CreatedAt,
		UpdatedAt:   ch.UpdatedAt,
	}
}

// ==================== Service ====================

// Service manages channel configuration. Activation and deactivation reload
// the gateway registry so adapters appear and disappear without a restart.
type Service struct {
	channels channel.ChannelRepository
	registry channel.Registry
	logger   *zap.Logger
}

// NewService creates a channel service
func NewService(channels channel.ChannelRepository, registry channel.Registry, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{channels: channels, registry: registry, logger: log}
}

// Create registers a channel in PENDING status. It becomes resolvable only
// after activation.
func (s *Service) Create(ctx context.Context, req CreateChannelRequest) (*ChannelResponse, error) {
	ch, err := channel.NewChannel(req.Code, req.Name, channel.AdapterType(req.AdapterType), req.Credentials)
	if err != nil {
		return nil, err
	}
	ch.Config = req.Config
	if err := s.channels.Save(ctx, ch); err != nil {
		return nil, err
	}
	resp := ToChannelResponse(ch)
	return &resp, nil
}

// Update modifies channel settings. Changes to an active channel take effect
// on the next registry reload.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateChannelRequest) (*ChannelResponse, error) {
	ch, err := s.channels.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		ch.Name = *req.Name
	}
	if req.Credentials != nil {
		ch.Credentials = *req.Credentials
	}
	if req.Config != nil {
		ch.Config = *req.Config
	}
	ch.UpdatedAt = time.Now()
	if err := s.channels.Save(ctx, ch); err != nil {
		return nil, err
	}
	if ch.IsActive() {
		s.reload(ctx)
	}
	resp := ToChannelResponse(ch)
	return &resp, nil
}

// Activate turns a channel live and reloads the registry
func (s *Service) Activate(ctx context.Context, id uuid.UUID) (*ChannelResponse, error) {
	ch, err := s.channels.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ch.Activate(); err != nil {
		return nil, err
	}
	if err := s.channels.Save(ctx, ch); err != nil {
		return nil, err
	}
	s.reload(ctx)
	resp := ToChannelResponse(ch)
	return &resp, nil
}

// Deactivate takes a channel offline and reloads the registry
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*ChannelResponse, error) {
	ch, err := s.channels.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ch.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.channels.Save(ctx, ch); err != nil {
		return nil, err
	}
	s.reload(ctx)
	resp := ToChannelResponse(ch)
	return &resp, nil
}

// GetByID retrieves a channel by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*ChannelResponse, error) {
	ch, err := s.channels.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToChannelResponse(ch)
	return &resp, nil
}

// List retrieves all channels
func (s *Service) List(ctx context.Context) ([]ChannelResponse, error) {
	found, err := s.channels.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ChannelResponse, 0, len(found))
	for idx := range found {
		out = append(out, ToChannelResponse(&found[idx]))
	}
	return out, nil
}

// reload refreshes the gateway registry. A failed reload keeps the previous
// gateway set serving, so it is logged rather than propagated.
func (s *Service) reload(ctx context.Context) {
	if err := s.registry.Reload(ctx); err != nil {
		s.logger.Error("Gateway registry reload failed", zap.Error(err))
	}
}
