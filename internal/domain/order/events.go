package order

import (
	"github.com/google/uuid"

	"github.com/marketbridge/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderImported = "OrderImported"
	EventTypeOrderAccepted = "OrderAccepted"
	EventTypeOrderRefused  = "OrderRefused"
	EventTypeOrderShipped  = "OrderShipped"
	EventTypeOrderRefunded = "OrderRefunded"
)

// OrderImportedEvent is raised when a remote order is first stored locally
type OrderImportedEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID `json:"order_id"`
	RemoteOrderID string    `json:"remote_order_id"`
	ChannelID     uuid.UUID `json:"channel_id"`
}

// NewOrderImportedEvent creates a new OrderImportedEvent
func NewOrderImportedEvent(o *Order) *OrderImportedEvent {
	return &OrderImportedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderImported, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		RemoteOrderID:   o.RemoteOrderID,
		ChannelID:       o.ChannelID,
	}
}

// OrderAcceptedEvent is raised when an order moves to SHIPPING.
// It triggers stock decrement and inventory queue entries.
type OrderAcceptedEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID `json:"order_id"`
	RemoteOrderID string    `json:"remote_order_id"`
	AcceptedLines int       `json:"accepted_lines"`
}

// NewOrderAcceptedEvent creates a new OrderAcceptedEvent
func NewOrderAcceptedEvent(o *Order) *OrderAcceptedEvent {
	return &OrderAcceptedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderAccepted, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		RemoteOrderID:   o.RemoteOrderID,
		AcceptedLines:   len(o.AcceptedLines()),
	}
}

// OrderRefusedEvent is raised when an order moves to REFUSED
type OrderRefusedEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID `json:"order_id"`
	RemoteOrderID string    `json:"remote_order_id"`
}

// NewOrderRefusedEvent creates a new OrderRefusedEvent
func NewOrderRefusedEvent(o *Order) *OrderRefusedEvent {
	return &OrderRefusedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderRefused, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		RemoteOrderID:   o.RemoteOrderID,
	}
}

// OrderShippedEvent is raised when an order moves to SHIPPED
type OrderShippedEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID `json:"order_id"`
	RemoteOrderID  string    `json:"remote_order_id"`
	TrackingNumber string    `json:"tracking_number"`
	Carrier        string    `json:"carrier"`
}

// NewOrderShippedEvent creates a new OrderShippedEvent
func NewOrderShippedEvent(o *Order, trackingNumber, carrier string) *OrderShippedEvent {
	return &OrderShippedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderShipped, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		RemoteOrderID:   o.RemoteOrderID,
		TrackingNumber:  trackingNumber,
		Carrier:         carrier,
	}
}

// OrderRefundedEvent is raised when an order moves to REFUNDED
type OrderRefundedEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID `json:"order_id"`
	RemoteOrderID string    `json:"remote_order_id"`
}

// NewOrderRefundedEvent creates a new OrderRefundedEvent
func NewOrderRefundedEvent(o *Order) *OrderRefundedEvent {
	return &OrderRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderRefunded, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		RemoteOrderID:   o.RemoteOrderID,
	}
}
