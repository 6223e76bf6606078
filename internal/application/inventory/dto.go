package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketbridge/backend/internal/domain/inventory"
)

// ==================== Requests ====================

// AdjustStockRequest sets a product's local stock to an absolute quantity
type AdjustStockRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	NewQty    int       `json:"new_qty" binding:"gte=0"`
}

// FlushRequest scopes a queue flush to one channel
type FlushRequest struct {
	ChannelID   *uuid.UUID `json:"channel_id"`
	ChannelCode string     `json:"channel_code"`
	// Limit caps the number of entries flushed in one run; zero means the
	// service default
	Limit int `json:"limit"`
}

// ForceFullSyncRequest pushes the whole marketplace-enabled catalog's stock.
// Confirm must be true; the operation overwrites remote quantities wholesale.
type ForceFullSyncRequest struct {
	ChannelID   *uuid.UUID `json:"channel_id"`
	ChannelCode string     `json:"channel_code"`
	Confirm     bool       `json:"confirm"`
}

// ==================== Responses ====================

// QueueEntryResponse is the API view of one reconciliation queue entry
type QueueEntryResponse struct {
	ID          uuid.UUID  `json:"id"`
	ProductID   uuid.UUID  `json:"product_id"`
	SKU         string     `json:"sku"`
	PreviousQty int        `json:"previous_qty"`
	NewQty      int        `json:"new_qty"`
	Reason      string     `json:"reason"`
	QueuedAt    time.Time  `json:"queued_at"`
	SyncedAt    *time.Time `json:"synced_at,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

// FlushReport summarizes one queue flush run
type FlushReport struct {
	ChannelCode        string   `json:"channel_code"`
	Processed          int      `json:"processed"`
	Succeeded          int      `json:"succeeded"`
	Failed             int      `json:"failed"`
	RateLimitedRetries int      `json:"rate_limited_retries"`
	Errors             []string `json:"errors,omitempty"`
}

// DriftReport is the outcome of a local-vs-remote stock comparison. Drift is
// reported only; nothing is corrected automatically.
type DriftReport struct {
	ChannelCode string            `json:"channel_code"`
	Checked     int               `json:"checked"`
	Drifts      []inventory.Drift `json:"drifts"`
	CheckedAt   time.Time         `json:"checked_at"`
}

// ToQueueEntryResponse converts a queue entry to its API view
func ToQueueEntryResponse(e *inventory.QueueEntry) QueueEntryResponse {
	return QueueEntryResponse{
		ID:          e.ID,
		ProductID:   e.ProductID,
		SKU:         e.SKU,
		PreviousQty: e.PreviousQty,
		NewQty:      e.NewQty,
		Reason:      string(e.Reason),
		QueuedAt:    e.QueuedAt,
		SyncedAt:    e.SyncedAt,
		LastError:   e.LastError,
	}
}
