package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/marketbridge/backend/internal/domain/shared"
)

// OrderRepository defines persistence operations for orders
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// FindByRemoteID looks an order up by its marketplace order ID within a
	// channel; remote IDs are unique per channel.
	FindByRemoteID(ctx context.Context, channelID uuid.UUID, remoteOrderID string) (*Order, error)
	FindByStatus(ctx context.Context, status OrderStatus, filter shared.Filter) ([]Order, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	ExistsByRemoteID(ctx context.Context, channelID uuid.UUID, remoteOrderID string) (bool, error)
	Save(ctx context.Context, o *Order) error
}

// ShipmentRepository defines persistence operations for shipment records
type ShipmentRepository interface {
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]Shipment, error)
	Save(ctx context.Context, s *Shipment) error
}
