package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketbridge/backend/internal/domain/rules"
	"github.com/marketbridge/backend/internal/domain/shared"
)

// GormRuleRepository implements RuleRepository using GORM
type GormRuleRepository struct {
	db *gorm.DB
}

// NewGormRuleRepository creates a new GormRuleRepository
func NewGormRuleRepository(db *gorm.DB) *GormRuleRepository {
	return &GormRuleRepository{db: db}
}

// FindByID finds a rule by its ID
func (r *GormRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*rules.AutoRule, error) {
	var rule rules.AutoRule
	if err := r.db.WithContext(ctx).First(&rule, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rule, nil
}

// FindEnabled returns enabled rules ordered by ascending priority. Priority
// ties break on creation time so evaluation order stays deterministic.
func (r *GormRuleRepository) FindEnabled(ctx context.Context) ([]rules.AutoRule, error) {
	var out []rules.AutoRule
	if err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("priority ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// FindAll returns all rules ordered by ascending priority
func (r *GormRuleRepository) FindAll(ctx context.Context) ([]rules.AutoRule, error) {
	var out []rules.AutoRule
	if err := r.db.WithContext(ctx).
		Order("priority ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Save creates or updates a rule
func (r *GormRuleRepository) Save(ctx context.Context, rule *rules.AutoRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

// Delete removes a rule
func (r *GormRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&rules.AutoRule{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// IncrementTriggerCount bumps the rule's trigger counter atomically
func (r *GormRuleRepository) IncrementTriggerCount(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&rules.AutoRule{}).
		Where("id = ?", id).
		UpdateColumn("trigger_count", gorm.Expr("trigger_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormRuleRepository implements the domain port
var _ rules.RuleRepository = (*GormRuleRepository)(nil)

// GormTriggerLogRepository implements TriggerLogRepository using GORM
type GormTriggerLogRepository struct {
	db *gorm.DB
}

// NewGormTriggerLogRepository creates a new GormTriggerLogRepository
func NewGormTriggerLogRepository(db *gorm.DB) *GormTriggerLogRepository {
	return &GormTriggerLogRepository{db: db}
}

// Append writes a trigger log row
func (r *GormTriggerLogRepository) Append(ctx context.Context, log *rules.TriggerLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// FindByOrderID returns the trigger logs of an order, oldest first
func (r *GormTriggerLogRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]rules.TriggerLog, error) {
	var logs []rules.TriggerLog
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("triggered_at ASC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// Ensure GormTriggerLogRepository implements the domain port
var _ rules.TriggerLogRepository = (*GormTriggerLogRepository)(nil)
