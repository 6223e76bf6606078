package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// QueueRepository defines persistence operations for the reconciliation queue
type QueueRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*QueueEntry, error)
	// FindPending returns pending entries oldest-first, up to limit
	FindPending(ctx context.Context, limit int) ([]QueueEntry, error)
	CountPending(ctx context.Context) (int64, error)
	FindByProductID(ctx context.Context, productID uuid.UUID, limit int) ([]QueueEntry, error)
	Save(ctx context.Context, entry *QueueEntry) error
	// MarkSynced stamps a pending entry as synced. Implementations must only
	// touch rows whose synced_at is still null so a concurrent flush cannot
	// process an entry twice.
	MarkSynced(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

// RemoteStockSnapshot caches the marketplace's last-known quantity per SKU,
// refreshed from offer-list pulls and read by the drift check
type RemoteStockSnapshot interface {
	Get(ctx context.Context, channelCode, sku string) (qty int, known bool, err error)
	Set(ctx context.Context, channelCode, sku string, qty int) error
	SetBatch(ctx context.Context, channelCode string, quantities map[string]int) error
}
