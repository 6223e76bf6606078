package rules

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketbridge/backend/internal/domain/catalog"
	"github.com/marketbridge/backend/internal/domain/order"
	"github.com/marketbridge/backend/internal/domain/rules"
)

// EvaluationService runs the enabled rules against an order. Rules are
// evaluated in ascending priority; notify matches keep evaluation going, the
// first terminal match decides the order and stops it. Every match is
// recorded in the trigger log.
type EvaluationService struct {
	ruleRepo    rules.RuleRepository
	triggerRepo rules.TriggerLogRepository
	orderRepo   order.OrderRepository
	productRepo catalog.ProductRepository
	logger      *zap.Logger
}

// NewEvaluationService creates an evaluation service
func NewEvaluationService(
	ruleRepo rules.RuleRepository,
	triggerRepo rules.TriggerLogRepository,
	orderRepo order.OrderRepository,
	productRepo catalog.ProductRepository,
	log *zap.Logger,
) *EvaluationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &EvaluationService{
		ruleRepo:    ruleRepo,
		triggerRepo: triggerRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		logger:      log,
	}
}

// DecideOrder evaluates the enabled rules and returns the terminal action to
// apply, or empty when no terminal rule matched. Matches are logged and
// counted as a side effect.
func (s *EvaluationService) DecideOrder(ctx context.Context, o *order.Order) (rules.RuleAction, error) {
	evalCtx, err := s.buildContext(ctx, o)
	if err != nil {
		// missing context fails closed: no automatic decision is taken
		return "", err
	}
	enabled, err := s.ruleRepo.FindEnabled(ctx)
	if err != nil {
		return "", err
	}

	for idx := range enabled {
		rule := &enabled[idx]
		if !rule.Action.IsValid() {
			s.logger.Warn("Skipping rule with unknown action",
				zap.String("rule", rule.Name),
				zap.String("action", string(rule.Action)),
			)
			continue
		}
		if !rule.Matches(evalCtx) {
			continue
		}
		s.recordTrigger(ctx, rule, o)
		if rule.Action.IsTerminal() {
			return rule.Action, nil
		}
		s.logger.Info("Notify rule matched",
			zap.String("rule", rule.Name),
			zap.String("remote_order_id", o.RemoteOrderID),
			zap.String("recipients", rule.ActionParams),
		)
	}
	return "", nil
}

// Preview reports which rules would match an order without recording
// triggers or deciding anything
func (s *EvaluationService) Preview(ctx context.Context, orderID uuid.UUID) ([]RuleMatchResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	evalCtx, err := s.buildContext(ctx, o)
	if err != nil {
		return nil, err
	}
	enabled, err := s.ruleRepo.FindEnabled(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]RuleMatchResponse, 0)
	decided := false
	for idx := range enabled {
		rule := &enabled[idx]
		if decided || !rule.Action.IsValid() || !rule.Matches(evalCtx) {
			continue
		}
		applied := rule.Action.IsTerminal()
		matches = append(matches, RuleMatchResponse{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Priority: rule.Priority,
			Action:   string(rule.Action),
			Applied:  applied,
		})
		if applied {
			decided = true
		}
	}
	return matches, nil
}

// TriggerHistory returns the rule firings recorded for an order
func (s *EvaluationService) TriggerHistory(ctx context.Context, orderID uuid.UUID) ([]TriggerLogResponse, error) {
	logs, err := s.triggerRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]TriggerLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, TriggerLogResponse{
			RuleID:        l.RuleID,
			RuleName:      l.RuleName,
			OrderID:       l.OrderID,
			RemoteOrderID: l.RemoteOrderID,
			Action:        string(l.Action),
			TriggeredAt:   l.TriggeredAt,
		})
	}
	return out, nil
}

// buildContext assembles the evaluation context from the order and its
// linked products. Lines without a linked product carry no stock data.
func (s *EvaluationService) buildContext(ctx context.Context, o *order.Order) (*rules.EvaluationContext, error) {
	productIDs := make([]uuid.UUID, 0, len(o.Lines))
	for _, l := range o.Lines {
		if l.ProductID != nil {
			productIDs = append(productIDs, *l.ProductID)
		}
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(productIDs))
	if len(productIDs) > 0 {
		products, err := s.productRepo.FindByIDs(ctx, productIDs)
		if err != nil {
			return nil, err
		}
		for idx := range products {
			byID[products[idx].ID] = &products[idx]
		}
	}

	items := make([]rules.ItemContext, 0, len(o.Lines))
	for _, l := range o.Lines {
		item := rules.ItemContext{
			OfferSKU: l.OfferSKU,
			Quantity: l.Quantity,
		}
		if l.ProductID != nil {
			if p, ok := byID[*l.ProductID]; ok {
				item.Category = p.Category
				item.HasStockData = true
				item.OnHandQty = p.StockQty
			}
		}
		items = append(items, item)
	}

	return &rules.EvaluationContext{
		OrderID:         o.ID.String(),
		RemoteOrderID:   o.RemoteOrderID,
		OrderTotalCents: o.TotalCents,
		MaxItemQuantity: o.MaxLineQuantity(),
		TotalQuantity:   o.TotalQuantity(),
		ShippingZone:    o.ShippingZone,
		ShippingCountry: o.ShippingCountry,
		Items:           items,
	}, nil
}

func (s *EvaluationService) recordTrigger(ctx context.Context, rule *rules.AutoRule, o *order.Order) {
	if err := s.triggerRepo.Append(ctx, rules.NewTriggerLog(rule, o.ID, o.RemoteOrderID)); err != nil {
		s.logger.Warn("Failed to append trigger log",
			zap.String("rule", rule.Name),
			zap.Error(err),
		)
	}
	if err := s.ruleRepo.IncrementTriggerCount(ctx, rule.ID); err != nil {
		s.logger.Warn("Failed to increment trigger count",
			zap.String("rule", rule.Name),
			zap.Error(err),
		)
	}
}
