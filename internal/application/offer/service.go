package offer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketbridge/backend/internal/domain/catalog"
	"github.com/marketbridge/backend/internal/domain/channel"
	"github.com/marketbridge/backend/internal/domain/inventory"
	"github.com/marketbridge/backend/internal/domain/synclog"
	"github.com/marketbridge/backend/internal/infrastructure/marketplace"
)

// SyncRequest scopes an offer sync run to one channel
type SyncRequest struct {
	ChannelID   *uuid.UUID `json:"channel_id"`
	ChannelCode string     `json:"channel_code"`
}

// SyncPlan describes what a sync run would push, computed without any
// remote call
type SyncPlan struct {
	ChannelCode string `json:"channel_code"`
	Products    int    `json:"products"`
	NeverSynced int    `json:"never_synced"`
	Batches     int    `json:"batches"`
	BatchSize   int    `json:"batch_size"`
}

// SyncReport summarizes one offer sync run
type SyncReport struct {
	ChannelCode        string   `json:"channel_code"`
	Processed          int      `json:"processed"`
	Succeeded          int      `json:"succeeded"`
	Failed             int      `json:"failed"`
	Batches            int      `json:"batches"`
	RateLimitedRetries int      `json:"rate_limited_retries"`
	Errors             []string `json:"errors,omitempty"`
}

// SyncService pushes the marketplace-enabled catalog as offers. Products are
// sent in fixed-size batches with a delay between batches so a large catalog
// does not trip the marketplace throttle in the first place; throttling that
// still happens is absorbed by the retry executor.
type SyncService struct {
	products        catalog.ProductRepository
	snapshot        inventory.RemoteStockSnapshot
	syncLog         synclog.Repository
	resolver        *marketplace.Resolver
	retry           *marketplace.RetryExecutor
	clock           marketplace.Clock
	batchSize       int
	batchDelay      time.Duration
	errorSampleSize int
	logger          *zap.Logger
}

// NewSyncService creates an offer sync service
func NewSyncService(
	products catalog.ProductRepository,
	snapshot inventory.RemoteStockSnapshot,
	syncLog synclog.Repository,
	resolver *marketplace.Resolver,
	retry *marketplace.RetryExecutor,
	clock marketplace.Clock,
	batchSize int,
	batchDelay time.Duration,
	errorSampleSize int,
	log *zap.Logger,
) *SyncService {
	if clock == nil {
		clock = marketplace.SystemClock{}
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	if errorSampleSize <= 0 {
		errorSampleSize = 10
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SyncService{
		products:        products,
		snapshot:        snapshot,
		syncLog:         syncLog,
		resolver:        resolver,
		retry:           retry,
		clock:           clock,
		batchSize:       batchSize,
		batchDelay:      batchDelay,
		errorSampleSize: errorSampleSize,
		logger:          log,
	}
}

// SyncAll pushes every marketplace-enabled product to the channel. Batches
// fail or succeed as a whole; a failed batch is counted and sampled, and the
// run continues with the next batch. The run always ends with a sync history
// entry.
func (s *SyncService) SyncAll(ctx context.Context, req SyncRequest) (*SyncReport, error) {
	gw, err := s.resolver.Resolve(req.ChannelID, req.ChannelCode)
	if err != nil {
		return nil, err
	}

	products, err := s.products.FindMarketplaceEnabled(ctx, 0)
	if err != nil {
		return nil, err
	}

	startedAt := time.Now()
	report := &SyncReport{ChannelCode: gw.ChannelCode(), Processed: len(products)}

	for start := 0; start < len(products); start += s.batchSize {
		if start > 0 && s.batchDelay > 0 {
			if err := s.clock.Sleep(ctx, s.batchDelay); err != nil {
				s.finish(ctx, gw, report, startedAt)
				return report, err
			}
		}
		end := start + s.batchSize
		if end > len(products) {
			end = len(products)
		}
		batch := products[start:end]
		report.Batches++

		offers := make([]channel.Offer, 0, len(batch))
		for idx := range batch {
			offers = append(offers, toOffer(&batch[idx]))
		}
		res, err := s.retry.Do(ctx, "offers.push", func(ctx context.Context) error {
			return gw.PushOffers(ctx, offers)
		})
		report.RateLimitedRetries += res.RateLimitedRetries
		if err != nil {
			// the marketplace gives no per-item detail, the whole batch failed
			report.Failed += len(batch)
			if len(report.Errors) < s.errorSampleSize {
				report.Errors = append(report.Errors, fmt.Sprintf("batch %d: %v", report.Batches, err))
			}
			continue
		}

		report.Succeeded += len(batch)
		s.recordBatchSynced(ctx, gw.ChannelCode(), batch)
	}

	s.finish(ctx, gw, report, startedAt)
	return report, nil
}

// PreviewAll reports the batch plan a SyncAll run would execute for the
// channel. Nothing is pushed and no sync history entry is written.
func (s *SyncService) PreviewAll(ctx context.Context, req SyncRequest) (*SyncPlan, error) {
	gw, err := s.resolver.Resolve(req.ChannelID, req.ChannelCode)
	if err != nil {
		return nil, err
	}
	products, err := s.products.FindMarketplaceEnabled(ctx, 0)
	if err != nil {
		return nil, err
	}

	plan := &SyncPlan{
		ChannelCode: gw.ChannelCode(),
		Products:    len(products),
		Batches:     (len(products) + s.batchSize - 1) / s.batchSize,
		BatchSize:   s.batchSize,
	}
	for idx := range products {
		if products[idx].LastSyncedAt == nil {
			plan.NeverSynced++
		}
	}
	return plan, nil
}

// SyncOne pushes a single product's offer, used after a price or visibility
// change that should not wait for the next full run
func (s *SyncService) SyncOne(ctx context.Context, productID uuid.UUID, req SyncRequest) error {
	gw, err := s.resolver.Resolve(req.ChannelID, req.ChannelCode)
	if err != nil {
		return err
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return err
	}

	if _, err := s.retry.Do(ctx, "offer.push", func(ctx context.Context) error {
		return gw.PushOffer(ctx, toOffer(product))
	}); err != nil {
		return err
	}

	now := time.Now()
	if err := s.products.MarkSynced(ctx, product.ID, now); err != nil {
		s.logger.Warn("Failed to stamp offer sync time",
			zap.String("sku", product.SKU),
			zap.Error(err),
		)
	}
	if err := s.snapshot.Set(ctx, gw.ChannelCode(), product.SKU, product.StockQty); err != nil {
		s.logger.Warn("Failed to update remote stock snapshot",
			zap.String("sku", product.SKU),
			zap.Error(err),
		)
	}
	return nil
}

// recordBatchSynced stamps the products and refreshes the remote snapshot
// with the quantities just pushed
func (s *SyncService) recordBatchSynced(ctx context.Context, channelCode string, batch []catalog.Product) {
	now := time.Now()
	quantities := make(map[string]int, len(batch))
	for idx := range batch {
		p := &batch[idx]
		quantities[p.SKU] = p.StockQty
		if err := s.products.MarkSynced(ctx, p.ID, now); err != nil {
			s.logger.Warn("Failed to stamp offer sync time",
				zap.String("sku", p.SKU),
				zap.Error(err),
			)
		}
	}
	if err := s.snapshot.SetBatch(ctx, channelCode, quantities); err != nil {
		s.logger.Warn("Failed to update remote stock snapshot", zap.Error(err))
	}
}

func (s *SyncService) finish(ctx context.Context, gw channel.MarketplaceGateway, report *SyncReport, startedAt time.Time) {
	channelID := gw.ChannelID()
	entry := synclog.NewEntry(&channelID, synclog.SyncTypeOffers, synclog.DirectionOutbound,
		report.Processed, report.Succeeded, report.Failed, report.RateLimitedRetries,
		startedAt, time.Now(), strings.Join(report.Errors, "\n"))
	if err := s.syncLog.Append(ctx, entry); err != nil {
		s.logger.Error("Failed to append sync log entry", zap.Error(err))
	}
}

func toOffer(p *catalog.Product) channel.Offer {
	return channel.Offer{
		ProductID:  p.ID,
		SKU:        p.SKU,
		PriceCents: p.PriceCents,
		Currency:   p.Currency,
		Quantity:   p.StockQty,
		Active:     p.MarketplaceEnabled,
	}
}
