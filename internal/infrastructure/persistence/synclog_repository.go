package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/marketbridge/backend/internal/domain/synclog"
)

// GormSyncLogRepository implements synclog.Repository using GORM
type GormSyncLogRepository struct {
	db *gorm.DB
}

// NewGormSyncLogRepository creates a new GormSyncLogRepository
func NewGormSyncLogRepository(db *gorm.DB) *GormSyncLogRepository {
	return &GormSyncLogRepository{db: db}
}

// Append writes a sync log entry
func (r *GormSyncLogRepository) Append(ctx context.Context, entry *synclog.Entry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindAll returns sync history newest-first with the total match count
func (r *GormSyncLogRepository) FindAll(ctx context.Context, filter synclog.Filter) ([]synclog.Entry, int64, error) {
	query := r.db.WithContext(ctx).Model(&synclog.Entry{})

	if filter.ChannelID != nil {
		query = query.Where("channel_id = ?", *filter.ChannelID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Since != nil {
		query = query.Where("started_at >= ?", *filter.Since)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	var entries []synclog.Entry
	if err := query.
		Order("started_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// Ensure GormSyncLogRepository implements the domain port
var _ synclog.Repository = (*GormSyncLogRepository)(nil)
