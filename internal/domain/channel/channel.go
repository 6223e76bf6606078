package channel

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/marketbridge/backend/internal/domain/shared"
)

// ChannelStatus represents the lifecycle status of a channel
type ChannelStatus string

const (
	// ChannelStatusPending indicates the channel is created but not yet validated
	ChannelStatusPending ChannelStatus = "PENDING"
	// ChannelStatusInactive indicates the channel is configured but disabled
	ChannelStatusInactive ChannelStatus = "INACTIVE"
	// ChannelStatusActive indicates the channel is live and syncing
	ChannelStatusActive ChannelStatus = "ACTIVE"
)

// IsValid returns true if the status is valid
func (s ChannelStatus) IsValid() bool {
	switch s {
	case ChannelStatusPending, ChannelStatusInactive, ChannelStatusActive:
		return true
	default:
		return false
	}
}

// String returns the string representation of ChannelStatus
func (s ChannelStatus) String() string {
	return string(s)
}

// AdapterType identifies which gateway implementation a channel uses
type AdapterType string

const (
	// AdapterTypeMirakl is the Mirakl-compatible marketplace API adapter
	AdapterTypeMirakl AdapterType = "MIRAKL"
)

// IsValid returns true if the adapter type is known
func (t AdapterType) IsValid() bool {
	return t == AdapterTypeMirakl
}

// Channel represents a configured external marketplace integration.
// The onboarding workflow owns its lifecycle; this context reads it as a
// lookup key and flips ACTIVE/INACTIVE to drive registry reloads.
type Channel struct {
	shared.BaseAggregateRoot
	Code        string      `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name        string      `gorm:"type:varchar(100);not null"`
	AdapterType AdapterType `gorm:"type:varchar(30);not null"`
	// Credentials is an opaque JSON blob interpreted by the adapter
	Credentials string
	Status      ChannelStatus
	// Config holds adapter-specific settings (base URL, shop id, timeouts)
	Config string
}

// NewChannel creates a new channel in PENDING status
func NewChannel(code, name string, adapterType AdapterType, credentials string) (*Channel, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CHANNEL_CODE", "Channel code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_CHANNEL_NAME", "Channel name cannot be empty")
	}
	if !adapterType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ADAPTER_TYPE", "Unknown adapter type")
	}
	return &Channel{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		AdapterType:       adapterType,
		Credentials:       credentials,
		Status:            ChannelStatusPending,
	}, nil
}

// Activate transitions the channel to ACTIVE
func (c *Channel) Activate() error {
	if c.Status == ChannelStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Channel is already active")
	}
	if c.Credentials == "" {
		return shared.NewDomainError("MISSING_CREDENTIALS", "Channel credentials are required for activation")
	}
	c.Status = ChannelStatusActive
	c.UpdatedAt = time.Now()
	return nil
}

// Deactivate transitions the channel to INACTIVE
func (c *Channel) Deactivate() error {
	if c.Status != ChannelStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active channels can be deactivated")
	}
	c.Status = ChannelStatusInactive
	c.UpdatedAt = time.Now()
	return nil
}

// IsActive returns true if the channel is live
func (c *Channel) IsActive() bool {
	return c.Status == ChannelStatusActive
}

// ChannelRepository defines persistence operations for channels
type ChannelRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Channel, error)
	FindByCode(ctx context.Context, code string) (*Channel, error)
	FindAll(ctx context.Context) ([]Channel, error)
	FindActive(ctx context.Context) ([]Channel, error)
	Save(ctx context.Context, ch *Channel) error
}
