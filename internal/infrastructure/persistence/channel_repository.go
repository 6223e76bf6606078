package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketbridge/backend/internal/domain/channel"
	"github.com/marketbridge/backend/internal/domain/shared"
)

// GormChannelRepository implements ChannelRepository using GORM
type GormChannelRepository struct {
	db *gorm.DB
}

// NewGormChannelRepository creates a new GormChannelRepository
func NewGormChannelRepository(db *gorm.DB) *GormChannelRepository {
	return &GormChannelRepository{db: db}
}

// FindByID finds a channel by its ID
func (r *GormChannelRepository) FindByID(ctx context.Context, id uuid.UUID) (*channel.Channel, error) {
	var ch channel.Channel
	if err := r.db.WithContext(ctx).First(&ch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &ch, nil
}

// FindByCode finds a channel by its unique code
func (r *GormChannelRepository) FindByCode(ctx context.Context, code string) (*channel.Channel, error) {
	var ch channel.Channel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&ch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &ch, nil
}

// FindAll returns all channels ordered by code
func (r *GormChannelRepository) FindAll(ctx context.Context) ([]channel.Channel, error) {
	var channels []channel.Channel
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&channels).Error; err != nil {
		return nil, err
	}
	return channels, nil
}

// FindActive returns all active channels ordered by code
func (r *GormChannelRepository) FindActive(ctx context.Context) ([]channel.Channel, error) {
	var channels []channel.Channel
	if err := r.db.WithContext(ctx).
		Where("status = ?", channel.ChannelStatusActive).
		Order("code ASC").
		Find(&channels).Error; err != nil {
		return nil, err
	}
	return channels, nil
}

// Save creates or updates a channel
func (r *GormChannelRepository) Save(ctx context.Context, ch *channel.Channel) error {
	return r.db.WithContext(ctx).Save(ch).Error
}

// Ensure GormChannelRepository implements the domain port
var _ channel.ChannelRepository = (*GormChannelRepository)(nil)
