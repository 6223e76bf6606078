package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/marketbridge/backend/internal/domain/catalog"
	"github.com/marketbridge/backend/internal/domain/channel"
	"github.com/marketbridge/backend/internal/domain/inventory"
	"github.com/marketbridge/backend/internal/domain/order"
	"github.com/marketbridge/backend/internal/domain/rules"
	"github.com/marketbridge/backend/internal/domain/shared"
	"github.com/marketbridge/backend/internal/domain/shared/valueobject"
	"github.com/marketbridge/backend/internal/domain/synclog"
	"github.com/marketbridge/backend/internal/infrastructure/marketplace"
)

// importPageSize is the remote listing page size during import runs
const importPageSize = 100

// AutoDecider evaluates auto-decision rules against a freshly imported order
// and returns the terminal action to apply, or empty when no terminal rule
// fired. Evaluation failures must not block the import.
type AutoDecider interface {
	DecideOrder(ctx context.Context, o *order.Order) (rules.RuleAction, error)
}

// SyncService orchestrates the order lifecycle against the marketplace:
// import, acceptance, shipment and refunds. Local validation always runs
// before the remote call; local state only changes after the remote call
// succeeded, except for shipment where the physical event already happened.
type SyncService struct {
	orders          order.OrderRepository
	shipments       order.ShipmentRepository
	products        catalog.ProductRepository
	queue           inventory.QueueRepository
	syncLog         synclog.Repository
	resolver        *marketplace.Resolver
	retry           *marketplace.RetryExecutor
	decider         AutoDecider
	errorSampleSize int
	logger          *zap.Logger
}

// NewSyncService creates an order sync service
func NewSyncService(
	orders order.OrderRepository,
	shipments order.ShipmentRepository,
	products catalog.ProductRepository,
	queue inventory.QueueRepository,
	syncLog synclog.Repository,
	resolver *marketplace.Resolver,
	retry *marketplace.RetryExecutor,
	errorSampleSize int,
	log *zap.Logger,
) *SyncService {
	if errorSampleSize <= 0 {
		errorSampleSize = 10
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SyncService{
		orders:          orders,
		shipments:       shipments,
		products:        products,
		queue:           queue,
		syncLog:         syncLog,
		resolver:        resolver,
		retry:           retry,
		errorSampleSize: errorSampleSize,
		logger:          log,
	}
}

// SetAutoDecider wires the rule engine hook invoked after each import
func (s *SyncService) SetAutoDecider(d AutoDecider) {
	s.decider = d
}

// ---------------------------------------------------------------------------
// Import
// ---------------------------------------------------------------------------

// Import pulls WAITING_ACCEPTANCE orders from the marketplace and creates the
// local orders that do not exist yet. Already-imported orders are skipped, so
// the operation is safe to run repeatedly. Each run is recorded in the sync
// history.
func (s *SyncService) Import(ctx context.Context, req ImportOrdersRequest) (*ImportReport, error) {
	gw, err := s.resolver.Resolve(req.ChannelID, req.ChannelCode)
	if err != nil {
		return nil, err
	}

	startedAt := time.Now()
	report := &ImportReport{ChannelCode: gw.ChannelCode()}
	var errorSamples []string

	offset := 0
	for {
		query := channel.OrderListQuery{
			States: []channel.RemoteOrderState{channel.RemoteStateWaitingAcceptance},
			Since:  req.Since,
			Offset: offset,
			Limit:  importPageSize,
		}
		var page []channel.RemoteOrder
		res, err := s.retry.Do(ctx, "orders.list", func(ctx context.Context) error {
			var listErr error
			page, listErr = gw.ListOrders(ctx, query)
			return listErr
		})
		report.RateLimitedRetries += res.RateLimitedRetries
		if err != nil {
			// the failed listing itself counts as one failure
			s.appendSyncLog(ctx, gw, synclog.SyncTypeOrders, synclog.DirectionInbound,
				report.Fetched, report.Imported+report.Skipped, report.Failed+1,
				report.RateLimitedRetries, startedAt, append(errorSamples, err.Error()))
			return report, err
		}

		report.Fetched += len(page)
		for idx := range page {
			if err := s.importOne(ctx, gw, &page[idx], report); err != nil {
				report.Failed++
				if len(errorSamples) < s.errorSampleSize {
					errorSamples = append(errorSamples, fmt.Sprintf("%s: %v", page[idx].RemoteOrderID, err))
				}
			}
		}

		if len(page) < importPageSize {
			break
		}
		offset += importPageSize
	}

	s.appendSyncLog(ctx, gw, synclog.SyncTypeOrders, synclog.DirectionInbound,
		report.Fetched, report.Imported+report.Skipped, report.Failed,
		report.RateLimitedRetries, startedAt, errorSamples)
	return report, nil
}

// importOne creates a local order from a remote one, links lines to local
// products by SKU and runs the auto-decision hook
func (s *SyncService) importOne(ctx context.Context, gw channel.MarketplaceGateway, remote *channel.RemoteOrder, report *ImportReport) error {
	exists, err := s.orders.ExistsByRemoteID(ctx, gw.ChannelID(), remote.RemoteOrderID)
	if err != nil {
		return err
	}
	if exists {
		report.Skipped++
		return nil
	}

	o, err := s.convertRemoteOrder(ctx, gw.ChannelID(), remote)
	if err != nil {
		return err
	}
	if err := s.orders.Save(ctx, o); err != nil {
		return err
	}
	report.Imported++

	if s.decider == nil {
		return nil
	}
	action, err := s.decider.DecideOrder(ctx, o)
	if err != nil {
		// rule failures never block the import; the order stays in
		// WAITING_ACCEPTANCE for manual review
		s.logger.Warn("Auto-decision evaluation failed",
			zap.String("remote_order_id", o.RemoteOrderID),
			zap.Error(err),
		)
		return nil
	}
	switch action {
	case rules.ActionAutoAccept:
		if err := s.applyDecisions(ctx, o, acceptAllDecisions(o)); err != nil {
			s.logger.Warn("Auto-accept failed",
				zap.String("remote_order_id", o.RemoteOrderID),
				zap.Error(err),
			)
			return nil
		}
		report.AutoAccepted++
	case rules.ActionAutoReject:
		if err := s.applyDecisions(ctx, o, refuseAllDecisions(o)); err != nil {
			s.logger.Warn("Auto-reject failed",
				zap.String("remote_order_id", o.RemoteOrderID),
				zap.Error(err),
			)
			return nil
		}
		report.AutoRejected++
	}
	return nil
}

func (s *SyncService) convertRemoteOrder(ctx context.Context, channelID uuid.UUID, remote *channel.RemoteOrder) (*order.Order, error) {
	o, err := order.NewOrder(channelID, remote.RemoteOrderID, remote.OrderDate)
	if err != nil {
		return nil, err
	}
	o.CustomerName = remote.CustomerName
	o.CustomerEmail = remote.CustomerEmail
	o.ShippingCity = remote.ShippingCity
	o.ShippingCountry = remote.ShippingCountry
	o.ShippingZone = remote.ShippingZone
	o.ShippingCents = toCents(remote.ShippingAmount)
	if remote.Currency != "" {
		o.Currency = remote.Currency
	}
	o.AcceptanceDeadline = remote.AcceptanceDeadline

	for _, rl := range remote.Lines {
		line, err := o.AddLine(rl.RemoteLineID, rl.OfferSKU, rl.ProductName, rl.Quantity, toCents(rl.UnitPrice))
		if err != nil {
			return nil, err
		}
		if rl.OfferSKU == "" {
			continue
		}
		product, err := s.products.FindBySKU(ctx, rl.OfferSKU)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return nil, err
		}
		line.LinkProduct(product.ID)
	}
	// shipping is part of the order total but not of any line
	o.TotalCents += o.ShippingCents
	return o, nil
}

// ---------------------------------------------------------------------------
// Acceptance
// ---------------------------------------------------------------------------

// Accept sends per-line accept/refuse decisions to the marketplace and, once
// the remote call succeeded, applies them locally. Accepted lines linked to a
// local product get their stock decremented and the change queued for
// marketplace reconciliation.
func (s *SyncService) Accept(ctx context.Context, orderID uuid.UUID, req AcceptOrderRequest) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	decisions := make([]order.LineDecision, 0, len(req.Decisions))
	for _, d := range req.Decisions {
		decisions = append(decisions, order.LineDecision{RemoteLineID: d.RemoteLineID, Accepted: d.Accepted})
	}
	if err := s.applyDecisions(ctx, o, decisions); err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// Refuse refuses every line of the order
func (s *SyncService) Refuse(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.applyDecisions(ctx, o, refuseAllDecisions(o)); err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// BatchDecide applies the same accept-all or refuse-all decision to every
// order in the request. Orders fail independently; a failure is counted and
// sampled, and the run continues with the next order.
func (s *SyncService) BatchDecide(ctx context.Context, req BatchDecisionRequest) (*BatchDecisionReport, error) {
	report := &BatchDecisionReport{Decision: req.Decision, Processed: len(req.OrderIDs)}
	for _, id := range req.OrderIDs {
		var err error
		if req.Decision == "accept" {
			_, err = s.acceptAll(ctx, id)
		} else {
			_, err = s.Refuse(ctx, id)
		}
		if err != nil {
			report.Failed++
			if len(report.Errors) < s.errorSampleSize {
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", id, err))
			}
			continue
		}
		report.Succeeded++
	}
	return report, nil
}

func (s *SyncService) acceptAll(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.applyDecisions(ctx, o, acceptAllDecisions(o)); err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// applyDecisions validates locally, pushes the decisions to the marketplace
// and persists the resulting transition. A remote state conflict triggers a
// targeted reconciliation poll before the error is returned.
func (s *SyncService) applyDecisions(ctx context.Context, o *order.Order, decisions []order.LineDecision) error {
	if err := o.ValidateDecisions(decisions); err != nil {
		return err
	}
	gw, err := s.resolver.Resolve(&o.ChannelID, "")
	if err != nil {
		return err
	}

	acceptances := make([]channel.LineAcceptance, 0, len(decisions))
	for _, d := range decisions {
		acceptances = append(acceptances, channel.LineAcceptance{RemoteLineID: d.RemoteLineID, Accepted: d.Accepted})
	}
	_, err = s.retry.Do(ctx, "order.accept", func(ctx context.Context) error {
		return gw.AcceptOrder(ctx, o.RemoteOrderID, acceptances)
	})
	if err != nil {
		if errors.Is(err, channel.ErrRemoteStateConflict) {
			s.reconcileOne(ctx, gw, o)
		}
		return err
	}

	if err := o.ApplyDecisions(decisions); err != nil {
		return err
	}
	if err := s.orders.Save(ctx, o); err != nil {
		return err
	}

	s.decrementAcceptedStock(ctx, o)
	return nil
}

// decrementAcceptedStock reserves local stock for the accepted lines and
// queues each change. The acceptance already happened on both sides, so a
// bookkeeping failure here is logged instead of failing the call.
func (s *SyncService) decrementAcceptedStock(ctx context.Context, o *order.Order) {
	for _, l := range o.AcceptedLines() {
		if l.ProductID == nil {
			continue
		}
		previous, current, err := s.products.DecrementStock(ctx, *l.ProductID, l.Quantity)
		if err != nil {
			s.logger.Warn("Stock decrement failed after acceptance",
				zap.String("remote_order_id", o.RemoteOrderID),
				zap.String("sku", l.OfferSKU),
				zap.Error(err),
			)
			continue
		}
		entry, err := inventory.NewQueueEntry(*l.ProductID, l.OfferSKU, previous, current, inventory.ReasonOrderAccept)
		if err == nil {
			err = s.queue.Save(ctx, entry)
		}
		if err != nil {
			s.logger.Warn("Failed to queue stock change",
				zap.String("sku", l.OfferSKU),
				zap.Error(err),
			)
		}
	}
}

// reconcileOne refreshes one order from the marketplace after a state
// conflict. The remote state is authoritative: a remotely canceled order is
// refused locally, a remotely accepted one moves to SHIPPING.
func (s *SyncService) reconcileOne(ctx context.Context, gw channel.MarketplaceGateway, o *order.Order) {
	remote, err := gw.ListOrders(ctx, channel.OrderListQuery{
		RemoteOrderIDs: []string{o.RemoteOrderID},
		Limit:          1,
	})
	if err != nil || len(remote) == 0 {
		s.logger.Warn("Reconciliation poll failed after state conflict",
			zap.String("remote_order_id", o.RemoteOrderID),
			zap.Error(err),
		)
		return
	}

	var applyErr error
	switch remote[0].State {
	case channel.RemoteStateRefused, channel.RemoteStateCanceled:
		applyErr = o.Cancel("canceled on marketplace")
	case channel.RemoteStateShipping, channel.RemoteStateShipped:
		applyErr = o.ApplyDecisions(acceptAllDecisions(o))
	default:
		return
	}
	if applyErr != nil {
		s.logger.Warn("Could not apply reconciled remote state",
			zap.String("remote_order_id", o.RemoteOrderID),
			zap.String("remote_state", string(remote[0].State)),
			zap.Error(applyErr),
		)
		return
	}
	if err := s.orders.Save(ctx, o); err != nil {
		s.logger.Error("Failed to persist reconciled order",
			zap.String("remote_order_id", o.RemoteOrderID),
			zap.Error(err),
		)
	}
}

// ---------------------------------------------------------------------------
// Shipment
// ---------------------------------------------------------------------------

// Ship records the shipment locally first, then notifies the marketplace.
// The physical shipment already happened, so remote failures do not roll the
// local state back; they surface as warnings on the response and leave the
// shipment flagged as not remotely synced.
func (s *SyncService) Ship(ctx context.Context, orderID uuid.UUID, req ShipOrderRequest) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := o.Ship(req.TrackingNumber, req.Carrier); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}

	shipment, err := order.NewShipment(o.ID, req.TrackingNumber, req.Carrier)
	if err != nil {
		return nil, err
	}
	if err := s.shipments.Save(ctx, shipment); err != nil {
		return nil, err
	}

	var warnings []string
	gw, err := s.resolver.Resolve(&o.ChannelID, "")
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("marketplace not notified: %v", err))
	} else {
		tracking := channel.TrackingInfo{
			Carrier:        req.Carrier,
			CarrierName:    req.CarrierName,
			TrackingNumber: req.TrackingNumber,
			TrackingURL:    req.TrackingURL,
		}
		// two independent remote calls; the second runs even if the first failed
		if _, err := s.retry.Do(ctx, "order.tracking", func(ctx context.Context) error {
			return gw.UpdateTracking(ctx, o.RemoteOrderID, tracking)
		}); err != nil {
			warnings = append(warnings, fmt.Sprintf("tracking update failed: %v", err))
		}
		if _, err := s.retry.Do(ctx, "order.ship", func(ctx context.Context) error {
			return gw.ConfirmShipment(ctx, o.RemoteOrderID)
		}); err != nil {
			warnings = append(warnings, fmt.Sprintf("shipment confirmation failed: %v", err))
		}
	}

	if len(warnings) == 0 {
		shipment.MarkRemoteSynced()
		if err := s.shipments.Save(ctx, shipment); err != nil {
			warnings = append(warnings, fmt.Sprintf("could not record remote acknowledgment: %v", err))
		}
	} else {
		s.logger.Warn("Order shipped locally but marketplace not fully notified",
			zap.String("remote_order_id", o.RemoteOrderID),
			zap.Strings("warnings", warnings),
		)
	}

	resp := ToOrderResponse(o)
	resp.Warnings = warnings
	return &resp, nil
}

// ---------------------------------------------------------------------------
// Refund
// ---------------------------------------------------------------------------

// Refund validates the requested amounts against the stored line totals,
// pushes the refund to the marketplace and records it locally. Lines flagged
// for restock return their quantity to local stock and queue the change.
func (s *SyncService) Refund(ctx context.Context, orderID uuid.UUID, req RefundOrderRequest) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	refundLines := make([]order.RefundRequestLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		refundLines = append(refundLines, order.RefundRequestLine{
			RemoteLineID: l.RemoteLineID,
			AmountCents:  l.AmountCents,
			Quantity:     l.Quantity,
			ReasonCode:   l.ReasonCode,
		})
	}
	// amounts are checked against local state before any remote call
	if err := o.ValidateRefund(refundLines); err != nil {
		return nil, err
	}

	gw, err := s.resolver.Resolve(&o.ChannelID, "")
	if err != nil {
		return nil, err
	}
	remoteLines := make([]channel.RefundLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		remoteLines = append(remoteLines, channel.RefundLine{
			RemoteLineID: l.RemoteLineID,
			AmountCents:  l.AmountCents,
			Quantity:     l.Quantity,
			ReasonCode:   l.ReasonCode,
		})
	}
	if _, err := s.retry.Do(ctx, "order.refund", func(ctx context.Context) error {
		return gw.RefundLines(ctx, o.RemoteOrderID, remoteLines)
	}); err != nil {
		return nil, err
	}

	if err := o.ApplyRefund(refundLines); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}

	var warnings []string
	for _, l := range req.Lines {
		if !l.Restock || l.Quantity <= 0 {
			continue
		}
		if warn := s.restockLine(ctx, o, l); warn != "" {
			warnings = append(warnings, warn)
		}
	}

	resp := ToOrderResponse(o)
	resp.Warnings = warnings
	return &resp, nil
}

func (s *SyncService) restockLine(ctx context.Context, o *order.Order, l RefundLineInput) string {
	line := o.GetLine(l.RemoteLineID)
	if line == nil || line.ProductID == nil {
		return ""
	}
	product, err := s.products.FindByID(ctx, *line.ProductID)
	if err != nil {
		return fmt.Sprintf("restock of %s failed: %v", line.OfferSKU, err)
	}
	previous := product.StockQty
	product.StockQty += l.Quantity
	product.UpdatedAt = time.Now()
	if err := s.products.Save(ctx, product); err != nil {
		return fmt.Sprintf("restock of %s failed: %v", line.OfferSKU, err)
	}
	entry, err := inventory.NewQueueEntry(product.ID, product.SKU, previous, product.StockQty, inventory.ReasonRefundRestock)
	if err == nil {
		err = s.queue.Save(ctx, entry)
	}
	if err != nil {
		return fmt.Sprintf("restock of %s not queued: %v", line.OfferSKU, err)
	}
	return ""
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// GetByID retrieves an order by ID
func (s *SyncService) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// List retrieves orders with filtering and pagination
func (s *SyncService) List(ctx context.Context, filter OrderListFilter) ([]OrderResponse, int64, error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.ChannelID != nil {
		f.Filters["channel_id"] = *filter.ChannelID
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	if filter.Country != "" {
		f.Filters["shipping_country"] = filter.Country
	}
	if filter.Since != nil {
		f.Filters["since"] = *filter.Since
	}

	found, err := s.orders.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orders.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]OrderResponse, 0, len(found))
	for idx := range found {
		out = append(out, ToOrderResponse(&found[idx]))
	}
	return out, total, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *SyncService) appendSyncLog(ctx context.Context, gw channel.MarketplaceGateway, syncType synclog.SyncType, direction synclog.Direction, processed, succeeded, failed, rateLimitedRetries int, startedAt time.Time, errorSamples []string) {
	channelID := gw.ChannelID()
	entry := synclog.NewEntry(&channelID, syncType, direction,
		processed, succeeded, failed, rateLimitedRetries,
		startedAt, time.Now(), strings.Join(errorSamples, "\n"))
	if err := s.syncLog.Append(ctx, entry); err != nil {
		s.logger.Error("Failed to append sync log entry", zap.Error(err))
	}
}

func toCents(d decimal.Decimal) int64 {
	return valueobject.NewMoneyFromDecimal(d, valueobject.DefaultCurrency).Cents()
}

func acceptAllDecisions(o *order.Order) []order.LineDecision {
	out := make([]order.LineDecision, 0, len(o.Lines))
	for _, l := range o.Lines {
		out = append(out, order.LineDecision{RemoteLineID: l.RemoteLineID, Accepted: true})
	}
	return out
}

func refuseAllDecisions(o *order.Order) []order.LineDecision {
	out := make([]order.LineDecision, 0, len(o.Lines))
	for _, l := range o.Lines {
		out = append(out, order.LineDecision{RemoteLineID: l.RemoteLineID, Accepted: false})
	}
	return out
}
