package rules

import (
	"context"

	"github.com/google/uuid"

	"github.com/marketbridge/backend/internal/domain/rules"
)

// RuleService manages the auto-decision rule configuration
type RuleService struct {
	ruleRepo rules.RuleRepository
}

// NewRuleService creates a rule service
func NewRuleService(ruleRepo rules.RuleRepository) *RuleService {
	return &RuleService{ruleRepo: ruleRepo}
}

// Create creates a new rule. Conditions with unknown fields or operators are
// rejected here; rows persisted by older configurations are handled at
// evaluation time instead.
func (s *RuleService) Create(ctx context.Context, req CreateRuleRequest) (*RuleResponse, error) {
	rule, err := rules.NewAutoRule(req.Name, req.Priority, toConditions(req.Conditions), rules.RuleAction(req.Action), req.ActionParams)
	if err != nil {
		return nil, err
	}
	if err := s.ruleRepo.Save(ctx, rule); err != nil {
		return nil, err
	}
	resp := ToRuleResponse(rule)
	return &resp, nil
}

// Update modifies an existing rule. Changed conditions and actions are
// re-validated the same way Create validates them.
func (s *RuleService) Update(ctx context.Context, id uuid.UUID, req UpdateRuleRequest) (*RuleResponse, error) {
	rule, err := s.ruleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := rule.Name
	if req.Name != nil {
		name = *req.Name
	}
	priority := rule.Priority
	if req.Priority != nil {
		priority = *req.Priority
	}
	conditions := rule.Conditions
	if req.Conditions != nil {
		conditions = toConditions(req.Conditions)
	}
	action := rule.Action
	if req.Action != nil {
		action = rules.RuleAction(*req.Action)
	}
	actionParams := rule.ActionParams
	if req.ActionParams != nil {
		actionParams = *req.ActionParams
	}

	// rebuild through the constructor to reuse its validation
	updated, err := rules.NewAutoRule(name, priority, conditions, action, actionParams)
	if err != nil {
		return nil, err
	}
	rule.Name = updated.Name
	rule.Priority = updated.Priority
	rule.Conditions = updated.Conditions
	rule.Action = updated.Action
	rule.ActionParams = updated.ActionParams
	rule.UpdatedAt = updated.UpdatedAt

	if err := s.ruleRepo.Save(ctx, rule); err != nil {
		return nil, err
	}
	resp := ToRuleResponse(rule)
	return &resp, nil
}

// Toggle enables or disables a rule
func (s *RuleService) Toggle(ctx context.Context, id uuid.UUID, enabled bool) (*RuleResponse, error) {
	rule, err := s.ruleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rule.Toggle(enabled)
	if err := s.ruleRepo.Save(ctx, rule); err != nil {
		return nil, err
	}
	resp := ToRuleResponse(rule)
	return &resp, nil
}

// Delete removes a rule
func (s *RuleService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.ruleRepo.Delete(ctx, id)
}

// GetByID retrieves a rule by ID
func (s *RuleService) GetByID(ctx context.Context, id uuid.UUID) (*RuleResponse, error) {
	rule, err := s.ruleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToRuleResponse(rule)
	return &resp, nil
}

// List retrieves all rules
func (s *RuleService) List(ctx context.Context) ([]RuleResponse, error) {
	found, err := s.ruleRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RuleResponse, 0, len(found))
	for idx := range found {
		out = append(out, ToRuleResponse(&found[idx]))
	}
	return out, nil
}
