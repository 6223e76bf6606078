package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	orderapp "github.com/marketbridge/backend/internal/application/order"
	"github.com/marketbridge/backend/internal/domain/channel"
)

// OrderImporter pulls pending orders for one channel
type OrderImporter interface {
	Import(ctx context.Context, req orderapp.ImportOrdersRequest) (*orderapp.ImportReport, error)
}

// OrderPoller periodically imports waiting orders from every active channel.
// Channels are re-read on each tick so activations and deactivations take
// effect without a restart.
type OrderPoller struct {
	channels channel.ChannelRepository
	importer OrderImporter
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewOrderPoller creates an order poller
func NewOrderPoller(channels channel.ChannelRepository, importer OrderImporter, interval time.Duration, log *zap.Logger) *OrderPoller {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderPoller{
		channels: channels,
		importer: importer,
		interval: interval,
		logger:   log,
	}
}

// Start launches the polling loop. The first poll happens after one full
// interval, not immediately.
func (p *OrderPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(runCtx)
	p.logger.Info("Order poller started", zap.Duration("interval", p.interval))
	return nil
}

// Stop terminates the polling loop and waits for an in-flight poll to finish
func (p *OrderPoller) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *OrderPoller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollAll(ctx)
		}
	}
}

func (p *OrderPoller) pollAll(ctx context.Context) {
	active, err := p.channels.FindActive(ctx)
	if err != nil {
		p.logger.Error("Order poller failed to list active channels", zap.Error(err))
		return
	}

	for i := range active {
		ch := &active[i]
		report, err := p.importer.Import(ctx, orderapp.ImportOrdersRequest{ChannelID: &ch.ID})
		if err != nil {
			p.logger.Warn("Order poll failed",
				zap.String("channel_code", ch.Code),
				zap.Error(err),
			)
			continue
		}
		if report.Imported > 0 || report.Failed > 0 {
			p.logger.Info("Order poll finished",
				zap.String("channel_code", ch.Code),
				zap.Int("imported", report.Imported),
				zap.Int("skipped", report.Skipped),
				zap.Int("failed", report.Failed),
			)
		}
	}
}
