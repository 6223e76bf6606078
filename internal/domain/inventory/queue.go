package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketbridge/backend/internal/domain/shared"
)

// ChangeReason is the closed set of reasons a stock change is queued for
// marketplace reconciliation
type ChangeReason string

const (
	// ReasonOrderAccept is a decrement caused by accepting a marketplace order
	ReasonOrderAccept ChangeReason = "ORDER_ACCEPT"
	// ReasonManualAdjust is an operator-initiated stock correction
	ReasonManualAdjust ChangeReason = "MANUAL_ADJUST"
	// ReasonRefundRestock is an increment caused by a refunded line returning to stock
	ReasonRefundRestock ChangeReason = "REFUND_RESTOCK"
	// ReasonFullSync marks entries written by a confirmed force-full-sync run
	ReasonFullSync ChangeReason = "FULL_SYNC"
)

// IsValid returns true if the reason is known
func (r ChangeReason) IsValid() bool {
	switch r {
	case ReasonOrderAccept, ReasonManualAdjust, ReasonRefundRestock, ReasonFullSync:
		return true
	}
	return false
}

// QueueEntry records one local stock mutation awaiting push to the
// marketplace. Entries are immutable once synced; only pending entries
// (SyncedAt == nil) are ever retried.
type QueueEntry struct {
	shared.BaseEntity
	ProductID   uuid.UUID    `gorm:"type:uuid;not null;index"`
	SKU         string       `gorm:"type:varchar(100);not null"`
	PreviousQty int
	NewQty      int
	Reason      ChangeReason `gorm:"type:varchar(30);not null"`
	QueuedAt    time.Time    `gorm:"not null;index"`
	// SyncedAt is nil while the entry is pending
	SyncedAt *time.Time `gorm:"index"`
	// LastError keeps the most recent flush failure for diagnostics
	LastError string
}

// NewQueueEntry creates a pending queue entry
func NewQueueEntry(productID uuid.UUID, sku string, previousQty, newQty int, reason ChangeReason) (*QueueEntry, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !reason.IsValid() {
		return nil, shared.NewDomainError("INVALID_REASON", "Unknown inventory change reason")
	}
	if previousQty < 0 || newQty < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantities cannot be negative")
	}
	return &QueueEntry{
		BaseEntity:  shared.NewBaseEntity(),
		ProductID:   productID,
		SKU:         sku,
		PreviousQty: previousQty,
		NewQty:      newQty,
		Reason:      reason,
		QueuedAt:    time.Now(),
	}, nil
}

// IsPending returns true while the entry has not been synced
func (e *QueueEntry) IsPending() bool {
	return e.SyncedAt == nil
}

// MarkSynced stamps the entry as pushed to the marketplace. Synced entries
// are immutable; marking twice is an invalid state.
func (e *QueueEntry) MarkSynced(at time.Time) error {
	if e.SyncedAt != nil {
		return shared.NewDomainError("INVALID_STATE", "Queue entry is already synced")
	}
	e.SyncedAt = &at
	e.LastError = ""
	e.UpdatedAt = at
	return nil
}

// RecordError keeps the latest flush failure on the pending entry
func (e *QueueEntry) RecordError(msg string) {
	e.LastError = msg
	e.UpdatedAt = time.Now()
}

// Drift is one local-vs-remote quantity mismatch for a product. Drift is
// reported, never auto-corrected; correction requires an explicit,
// confirmation-gated force full sync.
type Drift struct {
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	LocalQty  int       `json:"local_qty"`
	RemoteQty int       `json:"remote_qty"`
	// RemoteKnown is false when the marketplace has no record of the offer
	RemoteKnown bool      `json:"remote_known"`
	CheckedAt   time.Time `json:"checked_at"`
}

// Delta returns local minus remote quantity
func (d Drift) Delta() int {
	return d.LocalQty - d.RemoteQty
}
