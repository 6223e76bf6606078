package rules

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marketbridge/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Condition Fields and Operators
// ---------------------------------------------------------------------------

// ConditionField is the closed set of fields a rule condition can test.
// Values persisted by older configurations that are not in this set evaluate
// the condition to false.
type ConditionField string

const (
	FieldOrderTotal       ConditionField = "order_total"
	FieldMaxItemQuantity  ConditionField = "max_item_quantity"
	FieldTotalQuantity    ConditionField = "total_quantity"
	FieldAllItemsInStock  ConditionField = "all_items_in_stock"
	FieldAnyItemOutStock  ConditionField = "any_item_out_of_stock"
	FieldCategory         ConditionField = "category"
	FieldShippingZone     ConditionField = "shipping_zone"
	FieldShippingCountry  ConditionField = "shipping_country"
)

// IsValid returns true if the field is part of the closed set
func (f ConditionField) IsValid() bool {
	switch f {
	case FieldOrderTotal, FieldMaxItemQuantity, FieldTotalQuantity,
		FieldAllItemsInStock, FieldAnyItemOutStock, FieldCategory,
		FieldShippingZone, FieldShippingCountry:
		return true
	}
	return false
}

// ConditionOperator is the closed set of comparison operators
type ConditionOperator string

const (
	OperatorEquals      ConditionOperator = "eq"
	OperatorNotEquals   ConditionOperator = "neq"
	OperatorGreaterThan ConditionOperator = "gt"
	OperatorGreaterOrEq ConditionOperator = "gte"
	OperatorLessThan    ConditionOperator = "lt"
	OperatorLessOrEq    ConditionOperator = "lte"
	// OperatorContains is a case-insensitive substring match
	OperatorContains ConditionOperator = "contains"
)

// IsValid returns true if the operator is part of the closed set
func (op ConditionOperator) IsValid() bool {
	switch op {
	case OperatorEquals, OperatorNotEquals, OperatorGreaterThan,
		OperatorGreaterOrEq, OperatorLessThan, OperatorLessOrEq, OperatorContains:
		return true
	}
	return false
}

// Condition is one field/operator/value predicate within a rule
type Condition struct {
	Field    ConditionField    `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Value    string            `json:"value"`
}

// ---------------------------------------------------------------------------
// Rule Actions
// ---------------------------------------------------------------------------

// RuleAction is the action taken when all conditions of a rule match
type RuleAction string

const (
	// ActionAutoAccept accepts every line of the order
	ActionAutoAccept RuleAction = "auto_accept"
	// ActionAutoReject refuses every line of the order
	ActionAutoReject RuleAction = "auto_reject"
	// ActionNotify raises an operator alert and lets evaluation continue
	ActionNotify RuleAction = "notify"
)

// IsValid returns true if the action is known
func (a RuleAction) IsValid() bool {
	switch a {
	case ActionAutoAccept, ActionAutoReject, ActionNotify:
		return true
	}
	return false
}

// IsTerminal returns true for actions that decide the order's fate. At most
// one terminal action executes per order; evaluation stops after it.
func (a RuleAction) IsTerminal() bool {
	return a == ActionAutoAccept || a == ActionAutoReject
}

// ---------------------------------------------------------------------------
// AutoRule Aggregate
// ---------------------------------------------------------------------------

// AutoRule is a configured condition→action mapping evaluated against
// incoming orders, ordered by ascending priority
type AutoRule struct {
	shared.BaseAggregateRoot
	Name         string      `gorm:"type:varchar(100);not null"`
	Priority     int         `gorm:"not null;index"`
	Conditions   []Condition `gorm:"type:jsonb;serializer:json"`
	Action       RuleAction  `gorm:"type:varchar(30);not null"`
	// ActionParams holds action-specific parameters (e.g. notify recipients)
	ActionParams string
	Enabled      bool
	TriggerCount int64
}

// NewAutoRule creates a new enabled auto rule
func NewAutoRule(name string, priority int, conditions []Condition, action RuleAction, actionParams string) (*AutoRule, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_RULE_NAME", "Rule name cannot be empty")
	}
	if !action.IsValid() {
		return nil, shared.NewDomainError("INVALID_RULE_ACTION", "Unknown rule action")
	}
	if len(conditions) == 0 {
		return nil, shared.NewDomainError("NO_CONDITIONS", "Rule needs at least one condition")
	}
	for _, c := range conditions {
		if !c.Field.IsValid() {
			return nil, shared.NewDomainError("INVALID_CONDITION_FIELD", "Unknown condition field: "+string(c.Field))
		}
		if !c.Operator.IsValid() {
			return nil, shared.NewDomainError("INVALID_CONDITION_OPERATOR", "Unknown condition operator: "+string(c.Operator))
		}
	}
	return &AutoRule{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Priority:          priority,
		Conditions:        conditions,
		Action:            action,
		ActionParams:      actionParams,
		Enabled:           true,
	}, nil
}

// Toggle enables or disables the rule
func (r *AutoRule) Toggle(enabled bool) {
	r.Enabled = enabled
	r.UpdatedAt = time.Now()
}

// RecordTrigger increments the trigger counter
func (r *AutoRule) RecordTrigger() {
	r.TriggerCount++
	r.UpdatedAt = time.Now()
}

// Matches evaluates the rule's conditions against the context with logical
// AND, short-circuiting on the first failing condition
func (r *AutoRule) Matches(ctx *EvaluationContext) bool {
	for _, c := range r.Conditions {
		if !evaluateCondition(c, ctx) {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Condition Evaluation
// ---------------------------------------------------------------------------

// evaluateCondition evaluates a single condition. Unrecognized fields or
// operators fail closed: the condition is false, which fails the rule.
func evaluateCondition(c Condition, ctx *EvaluationContext) bool {
	switch c.Field {
	case FieldOrderTotal:
		return compareNumeric(decimal.NewFromInt(ctx.OrderTotalCents).Div(decimal.NewFromInt(100)), c)
	case FieldMaxItemQuantity:
		return compareNumeric(decimal.NewFromInt(int64(ctx.MaxItemQuantity)), c)
	case FieldTotalQuantity:
		return compareNumeric(decimal.NewFromInt(int64(ctx.TotalQuantity)), c)
	case FieldAllItemsInStock:
		return compareBool(ctx.AllItemsInStock(), c)
	case FieldAnyItemOutStock:
		return compareBool(ctx.AnyItemOutOfStock(), c)
	case FieldCategory:
		return compareStringSet(ctx.Categories(), c)
	case FieldShippingZone:
		return compareString(ctx.ShippingZone, c)
	case FieldShippingCountry:
		return compareString(ctx.ShippingCountry, c)
	}
	return false
}

func compareNumeric(actual decimal.Decimal, c Condition) bool {
	expected, err := decimal.NewFromString(strings.TrimSpace(c.Value))
	if err != nil {
		return false
	}
	switch c.Operator {
	case OperatorEquals:
		return actual.Equal(expected)
	case OperatorNotEquals:
		return !actual.Equal(expected)
	case OperatorGreaterThan:
		return actual.GreaterThan(expected)
	case OperatorGreaterOrEq:
		return actual.GreaterThanOrEqual(expected)
	case OperatorLessThan:
		return actual.LessThan(expected)
	case OperatorLessOrEq:
		return actual.LessThanOrEqual(expected)
	}
	return false
}

func compareBool(actual bool, c Condition) bool {
	expected := strings.EqualFold(strings.TrimSpace(c.Value), "true")
	switch c.Operator {
	case OperatorEquals:
		return actual == expected
	case OperatorNotEquals:
		return actual != expected
	}
	return false
}

func compareString(actual string, c Condition) bool {
	switch c.Operator {
	case OperatorEquals:
		return strings.EqualFold(actual, c.Value)
	case OperatorNotEquals:
		return !strings.EqualFold(actual, c.Value)
	case OperatorContains:
		return strings.Contains(strings.ToLower(actual), strings.ToLower(c.Value))
	}
	return false
}

// compareStringSet matches when any element of the set satisfies the
// condition; for not-equals, every element must differ.
func compareStringSet(actual []string, c Condition) bool {
	if c.Operator == OperatorNotEquals {
		for _, s := range actual {
			if strings.EqualFold(s, c.Value) {
				return false
			}
		}
		return true
	}
	for _, s := range actual {
		if compareString(s, c) {
			return true
		}
	}
	return false
}
