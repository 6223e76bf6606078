package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketbridge/backend/internal/domain/catalog"
	"github.com/marketbridge/backend/internal/domain/channel"
	"github.com/marketbridge/backend/internal/domain/inventory"
	"github.com/marketbridge/backend/internal/domain/shared"
	"github.com/marketbridge/backend/internal/domain/synclog"
	"github.com/marketbridge/backend/internal/infrastructure/marketplace"
)

// defaultFlushLimit caps entries per flush run when the caller gives none
const defaultFlushLimit = 200

// offerPageSize is the remote offer listing page size during drift checks
const offerPageSize = 100

// errConfirmationRequired rejects a force full sync that was not explicitly
// confirmed, reporting how many products the run would overwrite
func errConfirmationRequired(products int) *shared.DomainError {
	return shared.NewDomainError("CONFIRMATION_REQUIRED",
		fmt.Sprintf("Force full sync would overwrite remote stock for %d products and must be confirmed", products))
}

// Service manages the stock reconciliation queue and the drift check. Local
// stock changes are queued, flushed to the marketplace oldest-first and
// stamped exactly once; quantity mismatches are reported, never silently
// corrected.
type Service struct {
	queue           inventory.QueueRepository
	products        catalog.ProductRepository
	snapshot        inventory.RemoteStockSnapshot
	syncLog         synclog.Repository
	resolver        *marketplace.Resolver
	retry           *marketplace.RetryExecutor
	clock           marketplace.Clock
	itemDelay       time.Duration
	errorSampleSize int
	logger          *zap.Logger
}

// NewService creates an inventory service
func NewService(
	queue inventory.QueueRepository,
	products catalog.ProductRepository,
	snapshot inventory.RemoteStockSnapshot,
	syncLog synclog.Repository,
	resolver *marketplace.Resolver,
	retry *marketplace.RetryExecutor,
	clock marketplace.Clock,
	itemDelay time.Duration,
	errorSampleSize int,
	log *zap.Logger,
) *Service {
	if clock == nil {
		clock = marketplace.SystemClock{}
	}
	if errorSampleSize <= 0 {
		errorSampleSize = 10
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		queue:           queue,
		products:        products,
		snapshot:        snapshot,
		syncLog:         syncLog,
		resolver:        resolver,
		retry:           retry,
		clock:           clock,
		itemDelay:       itemDelay,
		errorSampleSize: errorSampleSize,
		logger:          log,
	}
}

// ---------------------------------------------------------------------------
// Queue management
// ---------------------------------------------------------------------------

// AdjustStock sets a product's local stock to an absolute quantity and queues
// the change for marketplace reconciliation
func (s *Service) AdjustStock(ctx context.Context, req AdjustStockRequest) (*QueueEntryResponse, error) {
	if req.NewQty < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Stock quantity cannot be negative")
	}
	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	previous := product.StockQty
	product.StockQty = req.NewQty
	product.UpdatedAt = time.Now()
	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}

	entry, err := inventory.NewQueueEntry(product.ID, product.SKU, previous, req.NewQty, inventory.ReasonManualAdjust)
	if err != nil {
		return nil, err
	}
	if err := s.queue.Save(ctx, entry); err != nil {
		return nil, err
	}
	resp := ToQueueEntryResponse(entry)
	return &resp, nil
}

// PendingCount returns the number of entries awaiting flush
func (s *Service) PendingCount(ctx context.Context) (int64, error) {
	return s.queue.CountPending(ctx)
}

// ListPending returns pending entries oldest-first
func (s *Service) ListPending(ctx context.Context, limit int) ([]QueueEntryResponse, error) {
	if limit <= 0 {
		limit = defaultFlushLimit
	}
	entries, err := s.queue.FindPending(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]QueueEntryResponse, 0, len(entries))
	for idx := range entries {
		out = append(out, ToQueueEntryResponse(&entries[idx]))
	}
	return out, nil
}

// ProductHistory returns the queued changes recorded for a product,
// newest-first
func (s *Service) ProductHistory(ctx context.Context, productID uuid.UUID, limit int) ([]QueueEntryResponse, error) {
	if limit <= 0 {
		limit = defaultFlushLimit
	}
	entries, err := s.queue.FindByProductID(ctx, productID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]QueueEntryResponse, 0, len(entries))
	for idx := range entries {
		out = append(out, ToQueueEntryResponse(&entries[idx]))
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Flush
// ---------------------------------------------------------------------------

// Flush pushes pending queue entries to the marketplace oldest-first, one
// entry at a time with a short pause between entries. The current product
// quantity is pushed, not the queued one, so several queued changes for the
// same product converge on the latest truth. Each entry is stamped through a
// conditional update, so a concurrent flush cannot process it twice. The run
// ends with a sync history entry.
func (s *Service) Flush(ctx context.Context, req FlushRequest) (*FlushReport, error) {
	gw, err := s.resolver.Resolve(req.ChannelID, req.ChannelCode)
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultFlushLimit
	}
	pending, err := s.queue.FindPending(ctx, limit)
	if err != nil {
		return nil, err
	}

	startedAt := time.Now()
	report := &FlushReport{ChannelCode: gw.ChannelCode(), Processed: len(pending)}

	for idx := range pending {
		if idx > 0 && s.itemDelay > 0 {
			if err := s.clock.Sleep(ctx, s.itemDelay); err != nil {
				s.appendFlushLog(ctx, gw, report, startedAt)
				return report, err
			}
		}
		entry := &pending[idx]
		res, err := s.flushOne(ctx, gw, entry)
		report.RateLimitedRetries += res.RateLimitedRetries
		if err != nil {
			report.Failed++
			if len(report.Errors) < s.errorSampleSize {
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", entry.SKU, err))
			}
			entry.RecordError(err.Error())
			if saveErr := s.queue.Save(ctx, entry); saveErr != nil {
				s.logger.Warn("Failed to record flush error",
					zap.String("sku", entry.SKU),
					zap.Error(saveErr),
				)
			}
			continue
		}
		report.Succeeded++
	}

	s.appendFlushLog(ctx, gw, report, startedAt)
	return report, nil
}

func (s *Service) appendFlushLog(ctx context.Context, gw channel.MarketplaceGateway, report *FlushReport, startedAt time.Time) {
	channelID := gw.ChannelID()
	logEntry := synclog.NewEntry(&channelID, synclog.SyncTypeInventory, synclog.DirectionOutbound,
		report.Processed, report.Succeeded, report.Failed, report.RateLimitedRetries,
		startedAt, time.Now(), strings.Join(report.Errors, "\n"))
	if err := s.syncLog.Append(ctx, logEntry); err != nil {
		s.logger.Error("Failed to append sync log entry", zap.Error(err))
	}
}

func (s *Service) flushOne(ctx context.Context, gw channel.MarketplaceGateway, entry *inventory.QueueEntry) (marketplace.RetryResult, error) {
	product, err := s.products.FindByID(ctx, entry.ProductID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			// the product is gone; stamp the entry so it stops blocking the queue
			if _, markErr := s.queue.MarkSynced(ctx, entry.ID, time.Now()); markErr != nil {
				return marketplace.RetryResult{}, markErr
			}
			return marketplace.RetryResult{}, nil
		}
		return marketplace.RetryResult{}, err
	}

	offer := channel.Offer{
		ProductID:  product.ID,
		SKU:        product.SKU,
		PriceCents: product.PriceCents,
		Currency:   product.Currency,
		Quantity:   product.StockQty,
		Active:     product.MarketplaceEnabled,
	}
	res, err := s.retry.Do(ctx, "inventory.push", func(ctx context.Context) error {
		return gw.PushOffer(ctx, offer)
	})
	if err != nil {
		return res, err
	}

	won, err := s.queue.MarkSynced(ctx, entry.ID, time.Now())
	if err != nil {
		return res, err
	}
	if !won {
		// another flush got here first; the push was idempotent either way
		s.logger.Debug("Queue entry already stamped by a concurrent flush",
			zap.String("sku", entry.SKU),
		)
	}
	if err := s.snapshot.Set(ctx, gw.ChannelCode(), product.SKU, product.StockQty); err != nil {
		s.logger.Warn("Failed to update remote stock snapshot",
			zap.String("sku", product.SKU),
			zap.Error(err),
		)
	}
	return res, nil
}

// ---------------------------------------------------------------------------
// Drift
// ---------------------------------------------------------------------------

// CheckDrift refreshes the remote stock snapshot from the marketplace's
// offer listing and compares it to local stock. Mismatches are reported;
// correction requires an explicit force full sync.
func (s *Service) CheckDrift(ctx context.Context, req FlushRequest) (*DriftReport, error) {
	gw, err := s.resolver.Resolve(req.ChannelID, req.ChannelCode)
	if err != nil {
		return nil, err
	}
	if err := s.refreshSnapshot(ctx, gw); err != nil {
		return nil, err
	}

	products, err := s.products.FindMarketplaceEnabled(ctx, 0)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	report := &DriftReport{
		ChannelCode: gw.ChannelCode(),
		Checked:     len(products),
		Drifts:      make([]inventory.Drift, 0),
		CheckedAt:   now,
	}
	for idx := range products {
		p := &products[idx]
		remoteQty, known, err := s.snapshot.Get(ctx, gw.ChannelCode(), p.SKU)
		if err != nil {
			return nil, err
		}
		if known && remoteQty == p.StockQty {
			continue
		}
		report.Drifts = append(report.Drifts, inventory.Drift{
			ProductID:   p.ID,
			SKU:         p.SKU,
			LocalQty:    p.StockQty,
			RemoteQty:   remoteQty,
			RemoteKnown: known,
			CheckedAt:   now,
		})
	}
	return report, nil
}

func (s *Service) refreshSnapshot(ctx context.Context, gw channel.MarketplaceGateway) error {
	offset := 0
	for {
		var page []channel.RemoteOffer
		_, err := s.retry.Do(ctx, "offers.list", func(ctx context.Context) error {
			var listErr error
			page, listErr = gw.ListOffers(ctx, offset, offerPageSize)
			return listErr
		})
		if err != nil {
			return err
		}
		if len(page) > 0 {
			quantities := make(map[string]int, len(page))
			for _, o := range page {
				quantities[o.SKU] = o.Quantity
			}
			if err := s.snapshot.SetBatch(ctx, gw.ChannelCode(), quantities); err != nil {
				return err
			}
		}
		if len(page) < offerPageSize {
			return nil
		}
		offset += offerPageSize
	}
}

// ---------------------------------------------------------------------------
// Force full sync
// ---------------------------------------------------------------------------

// ForceFullSync queues a FULL_SYNC entry for every marketplace-enabled
// product and flushes the queue, overwriting remote quantities with local
// truth. Without explicit confirmation it refuses to run and reports how many
// products the run would push.
func (s *Service) ForceFullSync(ctx context.Context, req ForceFullSyncRequest) (*FlushReport, error) {
	gw, err := s.resolver.Resolve(req.ChannelID, req.ChannelCode)
	if err != nil {
		return nil, err
	}

	products, err := s.products.FindMarketplaceEnabled(ctx, 0)
	if err != nil {
		return nil, err
	}
	if !req.Confirm {
		return nil, errConfirmationRequired(len(products))
	}
	for idx := range products {
		p := &products[idx]
		entry, err := inventory.NewQueueEntry(p.ID, p.SKU, p.StockQty, p.StockQty, inventory.ReasonFullSync)
		if err != nil {
			return nil, err
		}
		if err := s.queue.Save(ctx, entry); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Force full sync confirmed",
		zap.String("channel", gw.ChannelCode()),
		zap.Int("products", len(products)),
	)
	// older pending entries flush in the same run
	return s.Flush(ctx, FlushRequest{ChannelID: req.ChannelID, ChannelCode: req.ChannelCode, Limit: len(products) + defaultFlushLimit})
}
