package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketbridge/backend/internal/domain/order"
)

// ==================== Requests ====================

// LineDecisionInput is one accept/refuse decision in an acceptance request
type LineDecisionInput struct {
	RemoteLineID string `json:"remote_line_id" binding:"required"`
	Accepted     bool   `json:"accepted"`
}

// AcceptOrderRequest carries per-line decisions for an order acceptance
type AcceptOrderRequest struct {
	Decisions []LineDecisionInput `json:"decisions" binding:"required,min=1,dive"`
}

// ShipOrderRequest carries tracking data for an order shipment
type ShipOrderRequest struct {
	Carrier        string `json:"carrier" binding:"required,min=1,max=50"`
	CarrierName    string `json:"carrier_name"`
	TrackingNumber string `json:"tracking_number" binding:"required,min=1,max=100"`
	TrackingURL    string `json:"tracking_url"`
}

// RefundLineInput is one requested line-level refund
type RefundLineInput struct {
	RemoteLineID string `json:"remote_line_id" binding:"required"`
	AmountCents  int64  `json:"amount_cents" binding:"required,gt=0"`
	Quantity     int    `json:"quantity" binding:"gte=0"`
	ReasonCode   string `json:"reason_code"`
	// Restock returns the refunded quantity to local stock and queues the
	// change for marketplace reconciliation
	Restock bool `json:"restock"`
}

// RefundOrderRequest carries line-level refunds for an order
type RefundOrderRequest struct {
	Lines []RefundLineInput `json:"lines" binding:"required,min=1,dive"`
}

// BatchDecisionRequest accepts or refuses a set of orders in one call. The
// decision applies to every line of every order.
type BatchDecisionRequest struct {
	OrderIDs []uuid.UUID `json:"order_ids" binding:"required,min=1,max=100"`
	Decision string      `json:"decision" binding:"required,oneof=accept refuse"`
}

// BatchDecisionReport summarizes a batch decision run
type BatchDecisionReport struct {
	Decision  string   `json:"decision"`
	Processed int      `json:"processed"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// ImportOrdersRequest scopes a manual order import run
type ImportOrdersRequest struct {
	ChannelID   *uuid.UUID `json:"channel_id"`
	ChannelCode string     `json:"channel_code"`
	// Since restricts the remote listing to orders updated after this time
	Since *time.Time `json:"since"`
}

// OrderListFilter narrows order listings
type OrderListFilter struct {
	ChannelID *uuid.UUID
	Status    string
	Country   string
	Since     *time.Time
	Page      int
	PageSize  int
}

// ==================== Responses ====================

// OrderLineResponse is the API view of one order line
type OrderLineResponse struct {
	ID             uuid.UUID  `json:"id"`
	RemoteLineID   string     `json:"remote_line_id"`
	ProductID      *uuid.UUID `json:"product_id,omitempty"`
	OfferSKU       string     `json:"offer_sku"`
	ProductName    string     `json:"product_name"`
	Quantity       int        `json:"quantity"`
	UnitPriceCents int64      `json:"unit_price_cents"`
	LineTotalCents int64      `json:"line_total_cents"`
	Status         string     `json:"status"`
	TrackingNumber string     `json:"tracking_number,omitempty"`
	Carrier        string     `json:"carrier,omitempty"`
	RefundedCents  int64      `json:"refunded_cents"`
}

// OrderResponse is the API view of an order
type OrderResponse struct {
	ID                 uuid.UUID           `json:"id"`
	RemoteOrderID      string              `json:"remote_order_id"`
	ChannelID          uuid.UUID           `json:"channel_id"`
	Status             string              `json:"status"`
	CustomerName       string              `json:"customer_name"`
	CustomerEmail      string              `json:"customer_email"`
	ShippingCity       string              `json:"shipping_city"`
	ShippingCountry    string              `json:"shipping_country"`
	ShippingZone       string              `json:"shipping_zone"`
	TotalCents         int64               `json:"total_cents"`
	ShippingCents      int64               `json:"shipping_cents"`
	Currency           string              `json:"currency"`
	OrderDate          time.Time           `json:"order_date"`
	AcceptanceDeadline *time.Time          `json:"acceptance_deadline,omitempty"`
	ShippedAt          *time.Time          `json:"shipped_at,omitempty"`
	CanceledAt         *time.Time          `json:"canceled_at,omitempty"`
	Lines              []OrderLineResponse `json:"lines"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	// Warnings reports non-fatal remote failures from the last operation,
	// e.g. a shipment confirmed locally but not yet acknowledged remotely
	Warnings []string `json:"warnings,omitempty"`
}

// ImportReport summarizes one import run
type ImportReport struct {
	ChannelCode        string `json:"channel_code"`
	Fetched            int    `json:"fetched"`
	Imported           int    `json:"imported"`
	Skipped            int    `json:"skipped"`
	Failed             int    `json:"failed"`
	AutoAccepted       int    `json:"auto_accepted"`
	AutoRejected       int    `json:"auto_rejected"`
	RateLimitedRetries int    `json:"rate_limited_retries"`
}

// ToOrderResponse converts an order aggregate to its API view
func ToOrderResponse(o *order.Order) OrderResponse {
	lines := make([]OrderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, OrderLineResponse{
			ID:             l.ID,
			RemoteLineID:   l.RemoteLineID,
			ProductID:      l.ProductID,
			OfferSKU:       l.OfferSKU,
			ProductName:    l.ProductName,
			Quantity:       l.Quantity,
			UnitPriceCents: l.UnitPriceCents,
			LineTotalCents: l.LineTotalCents,
			Status:         l.Status.String(),
			TrackingNumber: l.TrackingNumber,
			Carrier:        l.Carrier,
			RefundedCents:  l.RefundedCents,
		})
	}
	return OrderResponse{
		ID:                 o.ID,
		RemoteOrderID:      o.RemoteOrderID,
		ChannelID:          o.ChannelID,
		Status:             o.Status.String(),
		CustomerName:       o.CustomerName,
		CustomerEmail:      o.CustomerEmail,
		ShippingCity:       o.ShippingCity,
		ShippingCountry:    o.ShippingCountry,
		ShippingZone:       o.ShippingZone,
		TotalCents:         o.TotalCents,
		ShippingCents:      o.ShippingCents,
		Currency:           o.Currency,
		OrderDate:          o.OrderDate,
		AcceptanceDeadline: o.AcceptanceDeadline,
		ShippedAt:          o.ShippedAt,
		CanceledAt:         o.CanceledAt,
		Lines:              lines,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}
