package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marketbridge/backend/internal/domain/order"
	"github.com/marketbridge/backend/internal/domain/shared"
)

func setupOrderTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&order.Order{}, &order.OrderLine{}, &order.Shipment{})
	require.NoError(t, err)

	return db
}

func newTestOrder(t *testing.T, channelID uuid.UUID, remoteID string) *order.Order {
	t.Helper()
	o, err := order.NewOrder(channelID, remoteID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = o.AddLine("L-1", "SKU-A", "Widget A", 2, 1050)
	require.NoError(t, err)
	_, err = o.AddLine("L-2", "SKU-B", "Widget B", 1, 2100)
	require.NoError(t, err)
	return o
}

func TestOrderRepository_SaveAndFind(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	channelID := uuid.New()
	o := newTestOrder(t, channelID, "ORD-1001")
	require.NoError(t, repo.Save(ctx, o))

	t.Run("finds by ID with lines", func(t *testing.T) {
		found, err := repo.FindByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, "ORD-1001", found.RemoteOrderID)
		assert.Equal(t, order.OrderStatusWaitingAcceptance, found.Status)
		assert.Len(t, found.Lines, 2)
		assert.Equal(t, int64(4200), found.TotalCents)
	})

	t.Run("finds by remote ID within channel", func(t *testing.T) {
		found, err := repo.FindByRemoteID(ctx, channelID, "ORD-1001")
		require.NoError(t, err)
		assert.Equal(t, o.ID, found.ID)

		_, err = repo.FindByRemoteID(ctx, uuid.New(), "ORD-1001")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("exists by remote ID", func(t *testing.T) {
		exists, err := repo.ExistsByRemoteID(ctx, channelID, "ORD-1001")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByRemoteID(ctx, channelID, "ORD-MISSING")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestOrderRepository_SavePersistsTransitions(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	o := newTestOrder(t, uuid.New(), "ORD-2001")
	require.NoError(t, repo.Save(ctx, o))

	require.NoError(t, o.ApplyDecisions([]order.LineDecision{
		{RemoteLineID: "L-1", Accepted: true},
		{RemoteLineID: "L-2", Accepted: false},
	}))
	require.NoError(t, repo.Save(ctx, o))

	found, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusShipping, found.Status)

	accepted := found.AcceptedLines()
	require.Len(t, accepted, 1)
	assert.Equal(t, "L-1", accepted[0].RemoteLineID)
	assert.Equal(t, order.LineStatusRefused, found.GetLine("L-2").Status)
}

func TestOrderRepository_FindByStatus(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	channelID := uuid.New()
	waiting := newTestOrder(t, channelID, "ORD-3001")
	require.NoError(t, repo.Save(ctx, waiting))

	shipping := newTestOrder(t, channelID, "ORD-3002")
	require.NoError(t, shipping.ApplyDecisions([]order.LineDecision{
		{RemoteLineID: "L-1", Accepted: true},
	}))
	require.NoError(t, repo.Save(ctx, shipping))

	found, err := repo.FindByStatus(ctx, order.OrderStatusWaitingAcceptance, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "ORD-3001", found[0].RemoteOrderID)

	count, err := repo.Count(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestOrderRepository_FilterByChannel(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	channelA := uuid.New()
	channelB := uuid.New()
	require.NoError(t, repo.Save(ctx, newTestOrder(t, channelA, "ORD-A")))
	require.NoError(t, repo.Save(ctx, newTestOrder(t, channelB, "ORD-B")))

	filter := shared.DefaultFilter()
	filter.Filters["channel_id"] = channelA

	found, err := repo.FindAll(ctx, filter)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "ORD-A", found[0].RemoteOrderID)
}

func TestShipmentRepository_SaveAndFind(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormShipmentRepository(db)
	ctx := context.Background()

	orderID := uuid.New()
	s, err := order.NewShipment(orderID, "1Z999", "UPS")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, s))

	s.MarkRemoteSynced()
	require.NoError(t, repo.Save(ctx, s))

	found, err := repo.FindByOrderID(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "1Z999", found[0].TrackingNumber)
	assert.True(t, found[0].RemoteSynced)
}
