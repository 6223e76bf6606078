package rules

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketbridge/backend/internal/domain/rules"
)

// ==================== Requests ====================

// ConditionInput is one condition in a rule create/update request
type ConditionInput struct {
	Field    string `json:"field" binding:"required"`
	Operator string `json:"operator" binding:"required"`
	Value    string `json:"value" binding:"required"`
}

// CreateRuleRequest creates an auto-decision rule
type CreateRuleRequest struct {
	Name         string           `json:"name" binding:"required,min=1,max=100"`
	Priority     int              `json:"priority"`
	Conditions   []ConditionInput `json:"conditions" binding:"required,min=1,dive"`
	Action       string           `json:"action" binding:"required"`
	ActionParams string           `json:"action_params"`
}

// UpdateRuleRequest updates an existing rule. Nil fields are left unchanged.
type UpdateRuleRequest struct {
	Name         *string          `json:"name"`
	Priority     *int             `json:"priority"`
	Conditions   []ConditionInput `json:"conditions"`
	Action       *string          `json:"action"`
	ActionParams *string          `json:"action_params"`
}

// ToggleRuleRequest enables or disables a rule
type ToggleRuleRequest struct {
	Enabled bool `json:"enabled"`
}

// ==================== Responses ====================

// ConditionResponse is the API view of one rule condition
type ConditionResponse struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// RuleResponse is the API view of an auto rule
type RuleResponse struct {
	ID           uuid.UUID           `json:"id"`
	Name         string              `json:"name"`
	Priority     int                 `json:"priority"`
	Conditions   []ConditionResponse `json:"conditions"`
	Action       string              `json:"action"`
	ActionParams string              `json:"action_params,omitempty"`
	Enabled      bool                `json:"enabled"`
	TriggerCount int64               `json:"trigger_count"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// RuleMatchResponse is one matched rule in an evaluation preview
type RuleMatchResponse struct {
	RuleID   uuid.UUID `json:"rule_id"`
	RuleName string    `json:"rule_name"`
	Priority int       `json:"priority"`
	Action   string    `json:"action"`
	// Applied is true for the single terminal rule that would decide the
	// order; notify matches before it are reported but keep evaluation going
	Applied bool `json:"applied"`
}

// TriggerLogResponse is the API view of one rule firing
type TriggerLogResponse struct {
	RuleID        uuid.UUID `json:"rule_id"`
	RuleName      string    `json:"rule_name"`
	OrderID       uuid.UUID `json:"order_id"`
	RemoteOrderID string    `json:"remote_order_id"`
	Action        string    `json:"action"`
	TriggeredAt   time.Time `json:"triggered_at"`
}

// ToRuleResponse converts a rule aggregate to its API view
func ToRuleResponse(r *rules.AutoRule) RuleResponse {
	conditions := make([]ConditionResponse, 0, len(r.Conditions))
	for _, c := range r.Conditions {
		conditions = append(conditions, ConditionResponse{
			Field:    string(c.Field),
			Operator: string(c.Operator),
			Value:    c.Value,
		})
	}
	return RuleResponse{
		ID:           r.ID,
		Name:         r.Name,
		Priority:     r.Priority,
		Conditions:   conditions,
		Action:       string(r.Action),
		ActionParams: r.ActionParams,
		Enabled:      r.Enabled,
		TriggerCount: r.TriggerCount,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func toConditions(inputs []ConditionInput) []rules.Condition {
	out := make([]rules.Condition, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, rules.Condition{
			Field:    rules.ConditionField(in.Field),
			Operator: rules.ConditionOperator(in.Operator),
			Value:    in.Value,
		})
	}
	return out
}
