package order

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marketbridge/backend/internal/domain/catalog"
	"github.com/marketbridge/backend/internal/domain/channel"
	"github.com/marketbridge/backend/internal/domain/inventory"
	"github.com/marketbridge/backend/internal/domain/order"
	"github.com/marketbridge/backend/internal/domain/shared"
	"github.com/marketbridge/backend/internal/domain/synclog"
	"github.com/marketbridge/backend/internal/infrastructure/marketplace"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

// MockOrderRepository is a mock implementation of OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByRemoteID(ctx context.Context, channelID uuid.UUID, remoteOrderID string) (*order.Order, error) {
	args := m.Called(ctx, channelID, remoteOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByStatus(ctx context.Context, status order.OrderStatus, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, status, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) ExistsByRemoteID(ctx context.Context, channelID uuid.UUID, remoteOrderID string) (bool, error) {
	args := m.Called(ctx, channelID, remoteOrderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

// MockShipmentRepository is a mock implementation of ShipmentRepository
type MockShipmentRepository struct {
	mock.Mock
}

func (m *MockShipmentRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]order.Shipment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Shipment), args.Error(1)
}

func (m *MockShipmentRepository) Save(ctx context.Context, s *order.Shipment) error {
	args := m.Called(ctx, s)
	return args.Error(0)
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

// MockGateway is a mock implementation of MarketplaceGateway bound to a
// fixed channel identity
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

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type syncServiceFixture struct {
	service   *SyncService
	orders    *MockOrderRepository
	shipments *MockShipmentRepository
	products  *MockProductRepository
	queue     *MockQueueRepository
	syncLog   *MockSyncLogRepository
	gateway   *MockGateway
	channelID uuid.UUID
}

func newSyncServiceFixture(t *testing.T) *syncServiceFixture {
	t.Helper()
	f := &syncServiceFixture{
		orders:    new(MockOrderRepository),
		shipments: new(MockShipmentRepository),
		products:  new(MockProductRepository),
		queue:     new(MockQueueRepository),
		syncLog:   new(MockSyncLogRepository),
		channelID: uuid.New(),
	}
	f.gateway = &MockGateway{id: f.channelID, code: "mirakl-eu"}
	resolver := marketplace.NewResolver(&stubRegistry{gw: f.gateway})
	retry := marketplace.NewRetryExecutor(time.Millisecond, 1, nil, nil)
	f.service = NewSyncService(f.orders, f.shipments, f.products, f.queue, f.syncLog,
		resolver, retry, 10, nil)
	return f
}

func (f *syncServiceFixture) newWaitingOrder(t *testing.T, remoteID string) *order.Order {
	t.Helper()
	o, err := order.NewOrder(f.channelID, remoteID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = o.AddLine("L-1", "SKU-A", "Widget A", 2, 1000)
	require.NoError(t, err)
	_, err = o.AddLine("L-2", "SKU-B", "Widget B", 1, 3000)
	require.NoError(t, err)
	return o
}

// ---------------------------------------------------------------------------
// Import
// ---------------------------------------------------------------------------

func TestSyncService_Import(t *testing.T) {
	f := newSyncServiceFixture(t)
	ctx := context.Background()

	remote := channel.RemoteOrder{
		RemoteOrderID:   "ORD-1001",
		State:           channel.RemoteStateWaitingAcceptance,
		CustomerName:    "Jane Doe",
		ShippingCountry: "FR",
		TotalAmount:     decimal.RequireFromString("59.90"),
		ShippingAmount:  decimal.RequireFromString("4.90"),
		Currency:        "EUR",
		OrderDate:       time.Now().Add(-2 * time.Hour),
		Lines: []channel.RemoteOrderLine{
			{RemoteLineID: "L-1", OfferSKU: "SKU-A", ProductName: "Widget A", Quantity: 2, UnitPrice: decimal.RequireFromString("27.50")},
		},
	}
	f.gateway.On("ListOrders", mock.Anything, mock.Anything).Return([]channel.RemoteOrder{remote}, nil)
	f.orders.On("ExistsByRemoteID", mock.Anything, f.channelID, "ORD-1001").Return(false, nil)

	product, err := catalog.NewProduct("SKU-A", "Widget A", "apparel", 2750, 10)
	require.NoError(t, err)
	f.products.On("FindBySKU", mock.Anything, "SKU-A").Return(product, nil)

	var saved *order.Order
	f.orders.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*order.Order)
	}).Return(nil)
	f.syncLog.On("Append", mock.Anything, mock.Anything).Return(nil)

	report, err := f.service.Import(ctx, ImportOrdersRequest{ChannelCode: "mirakl-eu"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Fetched)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 0, report.Skipped)

	require.NotNil(t, saved)
	assert.Equal(t, order.OrderStatusWaitingAcceptance, saved.Status)
	assert.Equal(t, "Jane Doe", saved.CustomerName)
	assert.Equal(t, int64(490), saved.ShippingCents)
	// 2 x 27.50 plus shipping
	assert.Equal(t, int64(5990), saved.TotalCents)
	require.Len(t, saved.Lines, 1)
	require.NotNil(t, saved.Lines[0].ProductID)
	assert.Equal(t, product.ID, *saved.Lines[0].ProductID)
}

func TestSyncService_ImportSkipsExisting(t *testing.T) {
	f := newSyncServiceFixture(t)
	ctx := context.Background()

	remote := channel.RemoteOrder{RemoteOrderID: "ORD-1001", OrderDate: time.Now()}
	f.gateway.On("ListOrders", mock.Anything, mock.Anything).Return([]channel.RemoteOrder{remote}, nil)
	f.orders.On("ExistsByRemoteID", mock.Anything, f.channelID, "ORD-1001").Return(true, nil)
	f.syncLog.On("Append", mock.Anything, mock.Anything).Return(nil)

	report, err := f.service.Import(ctx, ImportOrdersRequest{ChannelCode: "mirakl-eu"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Imported)
	f.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSyncService_ImportNoAdapter(t *testing.T) {
	f := newSyncServiceFixture(t)

	_, err := f.service.Import(context.Background(), ImportOrdersRequest{ChannelCode: "unknown"})
	assert.ErrorIs(t, err, channel.ErrNoAdapter)
}

// ---------------------------------------------------------------------------
// Acceptance
// ---------------------------------------------------------------------------

func TestSyncService_Accept(t *testing.T) {
	f := newSyncServiceFixture(t)
	ctx := context.Background()

	o := f.newWaitingOrder(t, "ORD-2001")
	productID := uuid.New()
	o.Lines[0].ProductID = &productID

	f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	f.gateway.On("AcceptOrder", mock.Anything, "ORD-2001", mock.Anything).Return(nil)
	f.orders.On("Save", mock.Anything, o).Return(nil)
	f.products.On("DecrementStock", mock.Anything, productID, 2).Return(10, 8, nil)
	f.queue.On("Save", mock.Anything, mock.Anything).Return(nil)

	resp, err := f.service.Accept(ctx, o.ID, AcceptOrderRequest{
		Decisions: []LineDecisionInput{
			{RemoteLineID: "L-1", Accepted: true},
			{RemoteLineID: "L-2", Accepted: false},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusShipping.String(), resp.Status)

	f.queue.AssertCalled(t, "Save", mock.Anything, mock.MatchedBy(func(e *inventory.QueueEntry) bool {
		return e.SKU == "SKU-A" && e.PreviousQty == 10 && e.NewQty == 8 && e.Reason == inventory.ReasonOrderAccept
	}))
}

func TestSyncService_AcceptValidatesBeforeRemoteCall(t *testing.T) {
	f := newSyncServiceFixture(t)

	o := f.newWaitingOrder(t, "ORD-2002")
	f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)

	_, err := f.service.Accept(context.Background(), o.ID, AcceptOrderRequest{
		Decisions: []LineDecisionInput{{RemoteLineID: "L-MISSING", Accepted: true}},
	})
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "LINE_NOT_FOUND", domainErr.Code)
	f.gateway.AssertNotCalled(t, "AcceptOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncService_AcceptReconcilesOnStateConflict(t *testing.T) {
	f := newSyncServiceFixture(t)
	ctx := context.Background()

	o := f.newWaitingOrder(t, "ORD-2003")
	f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	f.gateway.On("AcceptOrder", mock.Anything, "ORD-2003", mock.Anything).Return(channel.ErrRemoteStateConflict)
	// targeted reconciliation poll reveals the order was canceled remotely
	f.gateway.On("ListOrders", mock.Anything, mock.MatchedBy(func(q channel.OrderListQuery) bool {
		return len(q.RemoteOrderIDs) == 1 && q.RemoteOrderIDs[0] == "ORD-2003"
	})).Return([]channel.RemoteOrder{{RemoteOrderID: "ORD-2003", State: channel.RemoteStateCanceled}}, nil)
	f.orders.On("Save", mock.Anything, o).Return(nil)

	_, err := f.service.Accept(ctx, o.ID, AcceptOrderRequest{
		Decisions: []LineDecisionInput{{RemoteLineID: "L-1", Accepted: true}},
	})
	assert.ErrorIs(t, err, channel.ErrRemoteStateConflict)
	assert.Equal(t, order.OrderStatusRefused, o.Status)
	f.orders.AssertCalled(t, "Save", mock.Anything, o)
}

func TestSyncService_RefuseAllLines(t *testing.T) {
	f := newSyncServiceFixture(t)

	o := f.newWaitingOrder(t, "ORD-2004")
	f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	f.gateway.On("AcceptOrder", mock.Anything, "ORD-2004", mock.MatchedBy(func(acc []channel.LineAcceptance) bool {
		for _, a := range acc {
			if a.Accepted {
				return false
			}
		}
		return len(acc) == 2
	})).Return(nil)
	f.orders.On("Save", mock.Anything, o).Return(nil)

	resp, err := f.service.Refuse(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusRefused.String(), resp.Status)
	f.products.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncService_BatchDecideContinuesOnFailure(t *testing.T) {
	f := newSyncServiceFixture(t)
	ctx := context.Background()

	good := f.newWaitingOrder(t, "ORD-2005")
	missing := uuid.New()

	f.orders.On("FindByID", mock.Anything, good.ID).Return(good, nil)
	f.orders.On("FindByID", mock.Anything, missing).Return(nil, shared.ErrNotFound)
	f.gateway.On("AcceptOrder", mock.Anything, "ORD-2005", mock.Anything).Return(nil)
	f.orders.On("Save", mock.Anything, good).Return(nil)

	report, err := f.service.BatchDecide(ctx, BatchDecisionRequest{
		OrderIDs: []uuid.UUID{good.ID, missing},
		Decision: "accept",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], missing.String())
	assert.Equal(t, order.OrderStatusShipping, good.Status)
}

func TestSyncService_BatchDecideRefuse(t *testing.T) {
	f := newSyncServiceFixture(t)

	o := f.newWaitingOrder(t, "ORD-2006")
	f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	f.gateway.On("AcceptOrder", mock.Anything, "ORD-2006", mock.Anything).Return(nil)
	f.orders.On("Save", mock.Anything, o).Return(nil)

	report, err := f.service.BatchDecide(context.Background(), BatchDecisionRequest{
		OrderIDs: []uuid.UUID{o.ID},
		Decision: "refuse",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, order.OrderStatusRefused, o.Status)
}

// ---------------------------------------------------------------------------
// Shipment
// ---------------------------------------------------------------------------

func shippingOrder(t *testing.T, f *syncServiceFixture, remoteID string) *order.Order {
	t.Helper()
	o := f.newWaitingOrder(t, remoteID)
	require.NoError(t, o.ApplyDecisions([]order.LineDecision{
		{RemoteLineID: "L-1", Accepted: true},
		{RemoteLineID: "L-2", Accepted: true},
	}))
	return o
}

func TestSyncService_Ship(t *testing.T) {
	f := newSyncServiceFixture(t)
	ctx := context.Background()

	o := shippingOrder(t, f, "ORD-3001")
	f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	f.orders.On("Save", mock.Anything, o).Return(nil)
	f.shipments.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.gateway.On("UpdateTracking", mock.Anything, "ORD-3001", mock.Anything).Return(nil)
	f.gateway.On("ConfirmShipment", mock.Anything, "ORD-3001").Return(nil)

	resp, err := f.service.Ship(ctx, o.ID, ShipOrderRequest{Carrier: "UPS", TrackingNumber: "1Z999"})
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusShipped.String(), resp.Status)
	assert.Empty(t, resp.Warnings)

	// second save flags the shipment as remotely acknowledged
	f.shipments.AssertCalled(t, "Save", mock.Anything, mock.MatchedBy(func(s *order.Shipment) bool {
		return s.RemoteSynced
	}))
}

func TestSyncService_ShipRemoteFailureIsWarning(t *testing.T) {
	f := newSyncServiceFixture(t)
	ctx := context.Background()

	o := shippingOrder(t, f, "ORD-3002")
	f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	f.orders.On("Save", mock.Anything, o).Return(nil)
	f.shipments.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.gateway.On("UpdateTracking", mock.Anything, "ORD-3002", mock.Anything).Return(nil)
	f.gateway.On("ConfirmShipment", mock.Anything, "ORD-3002").Return(channel.ErrGatewayUnavailable)

	resp, err := f.service.Ship(ctx, o.ID, ShipOrderRequest{Carrier: "UPS", TrackingNumber: "1Z999"})
	require.NoError(t, err)
	// local state is authoritative: the parcel already left the warehouse
	assert.Equal(t, order.OrderStatusShipped.String(), resp.Status)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "shipment confirmation failed")
}

// ---------------------------------------------------------------------------
// Refund
// ---------------------------------------------------------------------------

func TestSyncService_RefundRejectsExcessiveAmount(t *testing.T) {
	f := newSyncServiceFixture(t)

	o := shippingOrder(t, f, "ORD-4001")
	f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)

	_, err := f.service.Refund(context.Background(), o.ID, RefundOrderRequest{
		Lines: []RefundLineInput{{RemoteLineID: "L-1", AmountCents: 99999}},
	})
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "REFUND_EXCEEDS_LINE_TOTAL", domainErr.Code)
	f.gateway.AssertNotCalled(t, "RefundLines", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncService_RefundWithRestock(t *testing.T) {
	f := newSyncServiceFixture(t)
	ctx := context.Background()

	o := shippingOrder(t, f, "ORD-4002")
	productID := uuid.New()
	o.Lines[0].ProductID = &productID

	product, err := catalog.NewProduct("SKU-A", "Widget A", "apparel", 1000, 3)
	require.NoError(t, err)
	product.ID = productID

	f.orders.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	f.gateway.On("RefundLines", mock.Anything, "ORD-4002", mock.Anything).Return(nil)
	f.orders.On("Save", mock.Anything, o).Return(nil)
	f.products.On("FindByID", mock.Anything, productID).Return(product, nil)
	f.products.On("Save", mock.Anything, product).Return(nil)
	f.queue.On("Save", mock.Anything, mock.Anything).Return(nil)

	resp, err := f.service.Refund(ctx, o.ID, RefundOrderRequest{
		Lines: []RefundLineInput{
			// full line refund with restock
			{RemoteLineID: "L-1", AmountCents: 2000, Quantity: 2, ReasonCode: "7", Restock: true},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Warnings)
	assert.Equal(t, 5, product.StockQty)

	f.queue.AssertCalled(t, "Save", mock.Anything, mock.MatchedBy(func(e *inventory.QueueEntry) bool {
		return e.Reason == inventory.ReasonRefundRestock && e.PreviousQty == 3 && e.NewQty == 5
	}))

	refunded := o.GetLine("L-1")
	assert.Equal(t, order.LineStatusRefunded, refunded.Status)
	assert.Equal(t, int64(2000), refunded.RefundedCents)
}
