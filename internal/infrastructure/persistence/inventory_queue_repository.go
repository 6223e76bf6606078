package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketbridge/backend/internal/domain/inventory"
	"github.com/marketbridge/backend/internal/domain/shared"
)

// GormInventoryQueueRepository implements QueueRepository using GORM
type GormInventoryQueueRepository struct {
	db *gorm.DB
}

// NewGormInventoryQueueRepository creates a new GormInventoryQueueRepository
func NewGormInventoryQueueRepository(db *gorm.DB) *GormInventoryQueueRepository {
	return &GormInventoryQueueRepository{db: db}
}

// FindByID finds a queue entry by its ID
func (r *GormInventoryQueueRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.QueueEntry, error) {
	var entry inventory.QueueEntry
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// FindPending returns pending entries oldest-first, up to limit
func (r *GormInventoryQueueRepository) FindPending(ctx context.Context, limit int) ([]inventory.QueueEntry, error) {
	var entries []inventory.QueueEntry
	query := r.db.WithContext(ctx).
		Where("synced_at IS NULL").
		Order("queued_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// CountPending counts entries not yet pushed to the marketplace
func (r *GormInventoryQueueRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&inventory.QueueEntry{}).
		Where("synced_at IS NULL").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByProductID returns the newest entries of a product
func (r *GormInventoryQueueRepository) FindByProductID(ctx context.Context, productID uuid.UUID, limit int) ([]inventory.QueueEntry, error) {
	var entries []inventory.QueueEntry
	query := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("queued_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Save creates or updates a queue entry
func (r *GormInventoryQueueRepository) Save(ctx context.Context, entry *inventory.QueueEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

// MarkSynced stamps a pending entry as synced. The update only touches rows
// whose synced_at is still null, so a concurrent flush cannot process an
// entry twice; the bool reports whether this call won.
func (r *GormInventoryQueueRepository) MarkSynced(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&inventory.QueueEntry{}).
		Where("id = ? AND synced_at IS NULL", id).
		Updates(map[string]interface{}{
			"synced_at":  at,
			"last_error": "",
			"updated_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Ensure GormInventoryQueueRepository implements the domain port
var _ inventory.QueueRepository = (*GormInventoryQueueRepository)(nil)
