package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marketbridge/backend/internal/domain/catalog"
	"github.com/marketbridge/backend/internal/domain/channel"
	"github.com/marketbridge/backend/internal/domain/inventory"
	"github.com/marketbridge/backend/internal/domain/shared"
	"github.com/marketbridge/backend/internal/domain/synclog"
	"github.com/marketbridge/backend/internal/infrastructure/marketplace"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

// MockQueueRepository is a mock implementation of QueueRepository
type MockQueueRepository struct {
	mock.Mock
}

func (m *MockQueueRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.QueueEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.QueueEntry), args.Error(1)
}

func (m *MockQueueRepository) FindPending(ctx context.Context, limit int) ([]inventory.QueueEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.QueueEntry), args.Error(1)
}

func (m *MockQueueRepository) CountPending(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQueueRepository) FindByProductID(ctx context.Context, productID uuid.UUID, limit int) ([]inventory.QueueEntry, error) {
	args := m.Called(ctx, productID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.QueueEntry), args.Error(1)
}

func (m *MockQueueRepository) Save(ctx context.Context, entry *inventory.QueueEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockQueueRepository) MarkSynced(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

// MockProductRepository is a mock implementation of ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindMarketplaceEnabled(ctx context.Context, limit int) ([]catalog.Product, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (int, int, error) {
	args := m.Called(ctx, id, qty)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockProductRepository) MarkSynced(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockSnapshot is a mock implementation of RemoteStockSnapshot
type MockSnapshot struct {
	mock.Mock
}

func (m *MockSnapshot) Get(ctx context.Context, channelCode, sku string) (int, bool, error) {
	args := m.Called(ctx, channelCode, sku)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *MockSnapshot) Set(ctx context.Context, channelCode, sku string, qty int) error {
	args := m.Called(ctx, channelCode, sku, qty)
	return args.Error(0)
}

func (m *MockSnapshot) SetBatch(ctx context.Context, channelCode string, quantities map[string]int) error {
	args := m.Called(ctx, channelCode, quantities)
	return args.Error(0)
}

// MockSyncLogRepository is a mock implementation of synclog.Repository
type MockSyncLogRepository struct {
	mock.Mock
}

func (m *MockSyncLogRepository) Append(ctx context.Context, entry *synclog.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockSyncLogRepository) FindAll(ctx context.Context, filter synclog.Filter) ([]synclog.Entry, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]synclog.Entry), args.Get(1).(int64), args.Error(2)
}

// MockGateway is a mock implementation of MarketplaceGateway
type MockGateway struct {
	mock.Mock
	id   uuid.UUID
	code string
}

func (m *MockGateway) ChannelID() uuid.UUID { return m.id }
func (m *MockGateway) ChannelCode() string  { return m.code }

func (m *MockGateway) ListOrders(ctx context.Context, query channel.OrderListQuery) ([]channel.RemoteOrder, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]channel.RemoteOrder), args.Error(1)
}

func (m *MockGateway) AcceptOrder(ctx context.Context, remoteOrderID string, decisions []channel.LineAcceptance) error {
	args := m.Called(ctx, remoteOrderID, decisions)
	return args.Error(0)
}

func (m *MockGateway) UpdateTracking(ctx context.Context, remoteOrderID string, tracking channel.TrackingInfo) error {
	args := m.Called(ctx, remoteOrderID, tracking)
	return args.Error(0)
}

func (m *MockGateway) ConfirmShipment(ctx context.Context, remoteOrderID string) error {
	args := m.Called(ctx, remoteOrderID)
	return args.Error(0)
}

func (m *MockGateway) RefundLines(ctx context.Context, remoteOrderID string, lines []channel.RefundLine) error {
	args := m.Called(ctx, remoteOrderID, lines)
	return args.Error(0)
}

func (m *MockGateway) PushOffer(ctx context.Context, offer channel.Offer) error {
	args := m.Called(ctx, offer)
	return args.Error(0)
}

func (m *MockGateway) PushOffers(ctx context.Context, offers []channel.Offer) error {
	args := m.Called(ctx, offers)
	return args.Error(0)
}

func (m *MockGateway) ListOffers(ctx context.Context, offset, limit int) ([]channel.RemoteOffer, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]channel.RemoteOffer), args.Error(1)
}

// stubRegistry serves a single gateway to the resolver
type stubRegistry struct {
	gw channel.MarketplaceGateway
}

func (r *stubRegistry) Get(channelID uuid.UUID) (channel.MarketplaceGateway, bool) {
	if r.gw != nil && r.gw.ChannelID() == channelID {
		return r.gw, true
	}
	return nil, false
}

func (r *stubRegistry) GetByCode(code string) (channel.MarketplaceGateway, bool) {
	if r.gw != nil && r.gw.ChannelCode() == code {
		return r.gw, true
	}
	return nil, false
}

func (r *stubRegistry) All() []channel.MarketplaceGateway {
	if r.gw == nil {
		return nil
	}
	return []channel.MarketplaceGateway{r.gw}
}

func (r *stubRegistry) Reload(ctx context.Context) error { return nil }

// fakeClock records sleeps without blocking
type fakeClock struct {
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return time.Now() }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	return nil
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type inventoryFixture struct {
	service  *Service
	queue    *MockQueueRepository
	products *MockProductRepository
	snapshot *MockSnapshot
	syncLog  *MockSyncLogRepository
	gateway  *MockGateway
	clock    *fakeClock
}

func newInventoryFixture(t *testing.T, itemDelay time.Duration) *inventoryFixture {
	t.Helper()
	f := &inventoryFixture{
		queue:    new(MockQueueRepository),
		products: new(MockProductRepository),
		snapshot: new(MockSnapshot),
		syncLog:  new(MockSyncLogRepository),
		clock:    &fakeClock{},
	}
	f.gateway = &MockGateway{id: uuid.New(), code: "mirakl-eu"}
	resolver := marketplace.NewResolver(&stubRegistry{gw: f.gateway})
	retry := marketplace.NewRetryExecutor(time.Second, 1, f.clock, nil)
	f.service = NewService(f.queue, f.products, f.snapshot, f.syncLog, resolver, retry,
		f.clock, itemDelay, 10, nil)
	return f
}

func testProduct(t *testing.T, sku string, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, "Product "+sku, "apparel", 1999, stock)
	require.NoError(t, err)
	p.EnableMarketplace()
	return p
}

func pendingEntry(t *testing.T, p *catalog.Product, prev, next int) inventory.QueueEntry {
	t.Helper()
	entry, err := inventory.NewQueueEntry(p.ID, p.SKU, prev, next, inventory.ReasonOrderAccept)
	require.NoError(t, err)
	return *entry
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestInventoryService_AdjustStock(t *testing.T) {
	f := newInventoryFixture(t, 0)
	ctx := context.Background()

	p := testProduct(t, "SKU-1", 10)
	f.products.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	f.products.On("Save", mock.Anything, p).Return(nil)
	f.queue.On("Save", mock.Anything, mock.Anything).Return(nil)

	resp, err := f.service.AdjustStock(ctx, AdjustStockRequest{ProductID: p.ID, NewQty: 4})
	require.NoError(t, err)
	assert.Equal(t, 10, resp.PreviousQty)
	assert.Equal(t, 4, resp.NewQty)
	assert.Equal(t, string(inventory.ReasonManualAdjust), resp.Reason)
	assert.Equal(t, 4, p.StockQty)
}

func TestInventoryService_FlushPushesCurrentQuantity(t *testing.T) {
	f := newInventoryFixture(t, 0)
	ctx := context.Background()

	p := testProduct(t, "SKU-1", 7)
	// two stale queued changes; the push carries the current quantity
	first := pendingEntry(t, p, 10, 9)
	second := pendingEntry(t, p, 9, 7)

	f.queue.On("FindPending", mock.Anything, defaultFlushLimit).Return([]inventory.QueueEntry{first, second}, nil)
	f.products.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	f.gateway.On("PushOffer", mock.Anything, mock.MatchedBy(func(o channel.Offer) bool {
		return o.SKU == "SKU-1" && o.Quantity == 7
	})).Return(nil)
	f.queue.On("MarkSynced", mock.Anything, first.ID, mock.Anything).Return(true, nil)
	f.queue.On("MarkSynced", mock.Anything, second.ID, mock.Anything).Return(true, nil)
	f.snapshot.On("Set", mock.Anything, "mirakl-eu", "SKU-1", 7).Return(nil)
	f.syncLog.On("Append", mock.Anything, mock.Anything).Return(nil)

	report, err := f.service.Flush(ctx, FlushRequest{ChannelCode: "mirakl-eu"})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 0, report.Failed)

	f.syncLog.AssertCalled(t, "Append", mock.Anything, mock.MatchedBy(func(e *synclog.Entry) bool {
		return e.Type == synclog.SyncTypeInventory && e.Status == synclog.StatusSuccess
	}))
}

func TestInventoryService_FlushRecordsFailures(t *testing.T) {
	f := newInventoryFixture(t, 0)
	ctx := context.Background()

	p := testProduct(t, "SKU-1", 5)
	entry := pendingEntry(t, p, 6, 5)

	f.queue.On("FindPending", mock.Anything, defaultFlushLimit).Return([]inventory.QueueEntry{entry}, nil)
	f.products.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	f.gateway.On("PushOffer", mock.Anything, mock.Anything).Return(channel.ErrGatewayUnavailable)
	f.queue.On("Save", mock.Anything, mock.MatchedBy(func(e *inventory.QueueEntry) bool {
		return e.LastError != "" && e.IsPending()
	})).Return(nil)
	f.syncLog.On("Append", mock.Anything, mock.Anything).Return(nil)

	report, err := f.service.Flush(ctx, FlushRequest{ChannelCode: "mirakl-eu"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "SKU-1")

	f.queue.AssertNotCalled(t, "MarkSynced", mock.Anything, mock.Anything, mock.Anything)
}

func TestInventoryService_CheckDriftReportsMismatches(t *testing.T) {
	f := newInventoryFixture(t, 0)
	ctx := context.Background()

	matching := testProduct(t, "SKU-OK", 5)
	drifted := testProduct(t, "SKU-DRIFT", 8)
	unknown := testProduct(t, "SKU-NEW", 3)

	f.gateway.On("ListOffers", mock.Anything, 0, offerPageSize).Return([]channel.RemoteOffer{
		{SKU: "SKU-OK", Quantity: 5},
		{SKU: "SKU-DRIFT", Quantity: 2},
	}, nil)
	f.snapshot.On("SetBatch", mock.Anything, "mirakl-eu", mock.Anything).Return(nil)
	f.products.On("FindMarketplaceEnabled", mock.Anything, 0).Return(
		[]catalog.Product{*matching, *drifted, *unknown}, nil)
	f.snapshot.On("Get", mock.Anything, "mirakl-eu", "SKU-OK").Return(5, true, nil)
	f.snapshot.On("Get", mock.Anything, "mirakl-eu", "SKU-DRIFT").Return(2, true, nil)
	f.snapshot.On("Get", mock.Anything, "mirakl-eu", "SKU-NEW").Return(0, false, nil)

	report, err := f.service.CheckDrift(ctx, FlushRequest{ChannelCode: "mirakl-eu"})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Checked)
	require.Len(t, report.Drifts, 2)

	assert.Equal(t, "SKU-DRIFT", report.Drifts[0].SKU)
	assert.Equal(t, 6, report.Drifts[0].Delta())
	assert.True(t, report.Drifts[0].RemoteKnown)

	// the marketplace has never seen this offer
	assert.Equal(t, "SKU-NEW", report.Drifts[1].SKU)
	assert.False(t, report.Drifts[1].RemoteKnown)

	// drift is reported, never corrected
	f.gateway.AssertNotCalled(t, "PushOffer", mock.Anything, mock.Anything)
	f.gateway.AssertNotCalled(t, "PushOffers", mock.Anything, mock.Anything)
}

func TestInventoryService_FlushPacesItems(t *testing.T) {
	f := newInventoryFixture(t, 300*time.Millisecond)
	ctx := context.Background()

	first := testProduct(t, "SKU-1", 4)
	second := testProduct(t, "SKU-2", 9)
	entries := []inventory.QueueEntry{
		pendingEntry(t, first, 5, 4),
		pendingEntry(t, second, 10, 9),
	}

	f.queue.On("FindPending", mock.Anything, defaultFlushLimit).Return(entries, nil)
	f.products.On("FindByID", mock.Anything, first.ID).Return(first, nil)
	f.products.On("FindByID", mock.Anything, second.ID).Return(second, nil)
	f.gateway.On("PushOffer", mock.Anything, mock.Anything).Return(nil)
	f.queue.On("MarkSynced", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.snapshot.On("Set", mock.Anything, "mirakl-eu", mock.Anything, mock.Anything).Return(nil)
	f.syncLog.On("Append", mock.Anything, mock.Anything).Return(nil)

	report, err := f.service.Flush(ctx, FlushRequest{ChannelCode: "mirakl-eu"})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)

	// two items, one pause between them
	assert.Equal(t, []time.Duration{300 * time.Millisecond}, f.clock.sleeps)
}

func TestInventoryService_ForceFullSyncRequiresConfirmation(t *testing.T) {
	f := newInventoryFixture(t, 0)

	f.products.On("FindMarketplaceEnabled", mock.Anything, 0).Return(catalogOfThree(t), nil)

	_, err := f.service.ForceFullSync(context.Background(), ForceFullSyncRequest{ChannelCode: "mirakl-eu"})
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONFIRMATION_REQUIRED", domainErr.Code)
	// the refusal names the blast radius
	assert.Contains(t, domainErr.Message, "3 products")

	f.queue.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.gateway.AssertNotCalled(t, "PushOffer", mock.Anything, mock.Anything)
}

func catalogOfThree(t *testing.T) []catalog.Product {
	t.Helper()
	out := make([]catalog.Product, 0, 3)
	for _, sku := range []string{"SKU-1", "SKU-2", "SKU-3"} {
		out = append(out, *testProduct(t, sku, 5))
	}
	return out
}

func TestInventoryService_ForceFullSyncQueuesAndFlushes(t *testing.T) {
	f := newInventoryFixture(t, 0)
	ctx := context.Background()

	p := testProduct(t, "SKU-1", 5)
	f.products.On("FindMarketplaceEnabled", mock.Anything, 0).Return([]catalog.Product{*p}, nil)

	var queued *inventory.QueueEntry
	f.queue.On("Save", mock.Anything, mock.MatchedBy(func(e *inventory.QueueEntry) bool {
		return e.Reason == inventory.ReasonFullSync
	})).Run(func(args mock.Arguments) {
		queued = args.Get(1).(*inventory.QueueEntry)
	}).Return(nil)

	fullSync, err := inventory.NewQueueEntry(p.ID, p.SKU, 5, 5, inventory.ReasonFullSync)
	require.NoError(t, err)
	f.queue.On("FindPending", mock.Anything, mock.Anything).Return([]inventory.QueueEntry{*fullSync}, nil)
	f.products.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	f.gateway.On("PushOffer", mock.Anything, mock.Anything).Return(nil)
	f.queue.On("MarkSynced", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.snapshot.On("Set", mock.Anything, "mirakl-eu", "SKU-1", 5).Return(nil)
	f.syncLog.On("Append", mock.Anything, mock.Anything).Return(nil)

	report, err := f.service.ForceFullSync(ctx, ForceFullSyncRequest{ChannelCode: "mirakl-eu", Confirm: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	require.NotNil(t, queued)
	assert.Equal(t, inventory.ReasonFullSync, queued.Reason)
}
