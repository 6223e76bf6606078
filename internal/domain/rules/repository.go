package rules

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/marketbridge/backend/internal/domain/shared"
)

// TriggerLog is one append-only record of a rule firing for an order
type TriggerLog struct {
	shared.BaseEntity
	RuleID        uuid.UUID
	RuleName      string
	OrderID       uuid.UUID
	RemoteOrderID string
	Action        RuleAction
	TriggeredAt   time.Time
}

// NewTriggerLog creates a trigger log row
func NewTriggerLog(rule *AutoRule, orderID uuid.UUID, remoteOrderID string) *TriggerLog {
	return &TriggerLog{
		BaseEntity:    shared.NewBaseEntity(),
		RuleID:        rule.ID,
		RuleName:      rule.Name,
		OrderID:       orderID,
		RemoteOrderID: remoteOrderID,
		Action:        rule.Action,
		TriggeredAt:   time.Now(),
	}
}

// RuleRepository defines persistence operations for auto rules
type RuleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*AutoRule, error)
	// FindEnabled returns enabled rules ordered by ascending priority
	FindEnabled(ctx context.Context) ([]AutoRule, error)
	FindAll(ctx context.Context) ([]AutoRule, error)
	Save(ctx context.Context, rule *AutoRule) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementTriggerCount(ctx context.Context, id uuid.UUID) error
}

// TriggerLogRepository persists rule trigger logs (append-only)
type TriggerLogRepository interface {
	Append(ctx context.Context, log *TriggerLog) error
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]TriggerLog, error)
}
