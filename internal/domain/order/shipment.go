package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketbridge/backend/internal/domain/shared"
)

// ShipmentStatus is the status of a shipment record
type ShipmentStatus string

const (
	// ShipmentStatusShipped is the only status a shipment is created in; the
	// record exists because the physical shipment already happened.
	ShipmentStatusShipped ShipmentStatus = "SHIPPED"
)

// Shipment is the local shipment record created when an order ships. It is
// written before the marketplace is told, so a remote confirmation failure
// never loses the tracking data.
type Shipment struct {
	shared.BaseEntity
	OrderID        uuid.UUID
	TrackingNumber string
	Carrier        string
	Status         ShipmentStatus
	// RemoteSynced is false when either the tracking update or the shipment
	// confirmation failed on the marketplace side
	RemoteSynced bool
	ShippedAt    time.Time
}

// NewShipment creates a shipment record for an order
func NewShipment(orderID uuid.UUID, trackingNumber, carrier string) (*Shipment, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if trackingNumber == "" {
		return nil, shared.NewDomainError("INVALID_TRACKING", "Tracking number is required")
	}
	now := time.Now()
	return &Shipment{
		BaseEntity:     shared.NewBaseEntity(),
		OrderID:        orderID,
		TrackingNumber: trackingNumber,
		Carrier:        carrier,
		Status:         ShipmentStatusShipped,
		ShippedAt:      now,
	}, nil
}

// MarkRemoteSynced records that the marketplace acknowledged the shipment
func (s *Shipment) MarkRemoteSynced() {
	s.RemoteSynced = true
	s.UpdatedAt = time.Now()
}
