package synclog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/marketbridge/backend/internal/domain/shared"
)

// SyncType identifies what a sync run processed
type SyncType string

const (
	SyncTypeOrders    SyncType = "ORDERS"
	SyncTypeOffers    SyncType = "OFFERS"
	SyncTypeInventory SyncType = "INVENTORY"
)

// Direction indicates whether data was pulled from or pushed to the marketplace
type Direction string

const (
	DirectionInbound  Direction = "INBOUND"
	DirectionOutbound Direction = "OUTBOUND"
)

// Status is the outcome of a sync run
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusPartial Status = "PARTIAL"
	StatusFailed  Status = "FAILED"
)

// Entry is one append-only sync history record
type Entry struct {
	shared.BaseEntity
	ChannelID *uuid.UUID
	Type      SyncType
	Direction Direction
	Status    Status
	Processed int
	Succeeded int
	Failed    int
	// RateLimitedRetries counts retries triggered by throttling during the run
	RateLimitedRetries int
	Duration           time.Duration
	// ErrorDetail holds a capped sample of per-item errors, newline-separated
	ErrorDetail string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// NewEntry builds a sync log entry from run counters. The status derives
// from the counts: all succeeded, some succeeded, or none.
func NewEntry(channelID *uuid.UUID, syncType SyncType, direction Direction, processed, succeeded, failed, rateLimitedRetries int, startedAt, finishedAt time.Time, errorDetail string) *Entry {
	status := StatusSuccess
	if failed > 0 {
		if succeeded > 0 {
			status = StatusPartial
		} else {
			status = StatusFailed
		}
	}
	return &Entry{
		BaseEntity:         shared.NewBaseEntity(),
		ChannelID:          channelID,
		Type:               syncType,
		Direction:          direction,
		Status:             status,
		Processed:          processed,
		Succeeded:          succeeded,
		Failed:             failed,
		RateLimitedRetries: rateLimitedRetries,
		Duration:           finishedAt.Sub(startedAt),
		ErrorDetail:        errorDetail,
		StartedAt:          startedAt,
		FinishedAt:         finishedAt,
	}
}

// Filter narrows sync history queries
type Filter struct {
	ChannelID *uuid.UUID
	Type      *SyncType
	Status    *Status
	Since     *time.Time
	Page      int
	PageSize  int
}

// Repository persists sync log entries (append-only)
type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	FindAll(ctx context.Context, filter Filter) ([]Entry, int64, error)
}
