package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marketbridge/backend/internal/domain/shared"
)

// OrderStatus represents the local lifecycle state of a marketplace order
type OrderStatus string

const (
	// OrderStatusWaitingAcceptance is the initial state of an imported order
	OrderStatusWaitingAcceptance OrderStatus = "WAITING_ACCEPTANCE"
	// OrderStatusShipping means the order was accepted and awaits shipment
	OrderStatusShipping OrderStatus = "SHIPPING"
	// OrderStatusShipped is terminal: the order left the warehouse
	OrderStatusShipped OrderStatus = "SHIPPED"
	// OrderStatusRefused is terminal: the order was refused or canceled
	OrderStatusRefused OrderStatus = "REFUSED"
	// OrderStatusRefunded is terminal: the order was refunded
	OrderStatusRefunded OrderStatus = "REFUNDED"
)

// IsValid returns true if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusWaitingAcceptance, OrderStatusShipping, OrderStatusShipped,
		OrderStatusRefused, OrderStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal returns true for soft-terminal states. Terminal orders are kept
// forever and never deleted.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusShipped, OrderStatusRefused, OrderStatusRefunded:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusWaitingAcceptance:
		return target == OrderStatusShipping || target == OrderStatusRefused
	case OrderStatusShipping:
		return target == OrderStatusShipped || target == OrderStatusRefused || target == OrderStatusRefunded
	}
	return false
}

// LineStatus represents the state of a single order line
type LineStatus string

const (
	LineStatusPending  LineStatus = "PENDING"
	LineStatusAccepted LineStatus = "ACCEPTED"
	LineStatusRefused  LineStatus = "REFUSED"
	LineStatusShipped  LineStatus = "SHIPPED"
	LineStatusRefunded LineStatus = "REFUNDED"
)

// String returns the string representation of LineStatus
func (s LineStatus) String() string {
	return string(s)
}

// OrderLine represents one product entry within an order
type OrderLine struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	OrderID      uuid.UUID `gorm:"type:uuid;not null;index"`
	RemoteLineID string    `gorm:"type:varchar(100);not null"`
	// ProductID links the line to a local product; nil when the offer SKU is
	// unknown locally
	ProductID      *uuid.UUID
	OfferSKU       string
	ProductName    string
	Quantity       int
	UnitPriceCents int64
	LineTotalCents int64
	Status         LineStatus
	TrackingNumber string
	Carrier        string
	RefundedCents  int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewOrderLine creates a new pending order line
func NewOrderLine(orderID uuid.UUID, remoteLineID, offerSKU, productName string, quantity int, unitPriceCents int64) (*OrderLine, error) {
	if remoteLineID == "" {
		return nil, shared.NewDomainError("INVALID_LINE", "Remote line ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
	}
	if unitPriceCents < 0 {
		return nil, shared.NewDomainError("INVALID_PRICE", "Line unit price cannot be negative")
	}
	now := time.Now()
	return &OrderLine{
		ID:             uuid.New(),
		OrderID:        orderID,
		RemoteLineID:   remoteLineID,
		OfferSKU:       offerSKU,
		ProductName:    productName,
		Quantity:       quantity,
		UnitPriceCents: unitPriceCents,
		LineTotalCents: unitPriceCents * int64(quantity),
		Status:         LineStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// LinkProduct attaches a local product reference to the line
func (l *OrderLine) LinkProduct(productID uuid.UUID) {
	l.ProductID = &productID
	l.UpdatedAt = time.Now()
}

// LineDecision is one accept/refuse decision keyed by remote line ID
type LineDecision struct {
	RemoteLineID string
	Accepted     bool
}

// RefundRequestLine is one requested line-level refund
type RefundRequestLine struct {
	RemoteLineID string
	AmountCents  int64
	Quantity     int
	ReasonCode   string
}

// Order is the aggregate root for a marketplace order. It owns the local
// state machine; remote calls are orchestrated by the application layer and
// bound to transitions through the methods below.
type Order struct {
	shared.BaseAggregateRoot
	// Remote order IDs are unique per channel, enforced at the database level
	RemoteOrderID string      `gorm:"type:varchar(100);not null;uniqueIndex:idx_orders_channel_remote,priority:2"`
	ChannelID     uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_orders_channel_remote,priority:1"`
	Status        OrderStatus `gorm:"type:varchar(30);not null;index"`
	// Customer snapshot taken at import time
	CustomerName    string
	CustomerEmail   string
	ShippingCity    string
	ShippingCountry string
	ShippingZone    string
	// Monetary fields in integer minor units
	TotalCents    int64
	ShippingCents int64
	Currency      string
	OrderDate     time.Time
	// AcceptanceDeadline is the marketplace's accept-by time, if provided
	AcceptanceDeadline *time.Time
	ShippedAt          *time.Time
	CanceledAt         *time.Time
	Lines              []OrderLine
}

// NewOrder creates a new order in WAITING_ACCEPTANCE
func NewOrder(channelID uuid.UUID, remoteOrderID string, orderDate time.Time) (*Order, error) {
	if channelID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CHANNEL", "Channel ID cannot be empty")
	}
	if remoteOrderID == "" {
		return nil, shared.NewDomainError("INVALID_REMOTE_ID", "Remote order ID cannot be empty")
	}
	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		RemoteOrderID:     remoteOrderID,
		ChannelID:         channelID,
		Status:            OrderStatusWaitingAcceptance,
		Currency:          "EUR",
		OrderDate:         orderDate,
		Lines:             make([]OrderLine, 0),
	}
	o.AddDomainEvent(NewOrderImportedEvent(o))
	return o, nil
}

// AddLine appends a line to the order and updates the total
func (o *Order) AddLine(remoteLineID, offerSKU, productName string, quantity int, unitPriceCents int64) (*OrderLine, error) {
	for _, l := range o.Lines {
		if l.RemoteLineID == remoteLineID {
			return nil, shared.NewDomainError("DUPLICATE_LINE", "Remote line already exists on order")
		}
	}
	line, err := NewOrderLine(o.ID, remoteLineID, offerSKU, productName, quantity, unitPriceCents)
	if err != nil {
		return nil, err
	}
	o.Lines = append(o.Lines, *line)
	o.TotalCents += line.LineTotalCents
	o.UpdatedAt = time.Now()
	return line, nil
}

// GetLine returns a line by remote line ID, or nil
func (o *Order) GetLine(remoteLineID string) *OrderLine {
	for idx := range o.Lines {
		if o.Lines[idx].RemoteLineID == remoteLineID {
			return &o.Lines[idx]
		}
	}
	return nil
}

// ValidateDecisions checks that an acceptance request is well-formed against
// the cached local state: the order must still be WAITING_ACCEPTANCE and
// every referenced line must belong to the order. Called before any remote
// call is made.
func (o *Order) ValidateDecisions(decisions []LineDecision) error {
	if o.Status != OrderStatusWaitingAcceptance {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot accept order in %s status", o.Status))
	}
	if len(decisions) == 0 {
		return shared.NewDomainError("NO_DECISIONS", "At least one line decision is required")
	}
	for _, d := range decisions {
		if o.GetLine(d.RemoteLineID) == nil {
			return shared.NewDomainError("LINE_NOT_FOUND",
				fmt.Sprintf("Line %s does not belong to order %s", d.RemoteLineID, o.RemoteOrderID))
		}
	}
	return nil
}

// ApplyDecisions records accepted/refused per line and moves the order to
// SHIPPING when at least one line was accepted, REFUSED otherwise. The
// remote accept call must have succeeded before this is applied.
func (o *Order) ApplyDecisions(decisions []LineDecision) error {
	if err := o.ValidateDecisions(decisions); err != nil {
		return err
	}
	accepted := 0
	now := time.Now()
	for _, d := range decisions {
		line := o.GetLine(d.RemoteLineID)
		if d.Accepted {
			line.Status = LineStatusAccepted
			accepted++
		} else {
			line.Status = LineStatusRefused
		}
		line.UpdatedAt = now
	}
	// Lines not covered by the request are refused: the marketplace treats a
	// partial accept as a refusal of the remaining lines.
	for idx := range o.Lines {
		if o.Lines[idx].Status == LineStatusPending {
			o.Lines[idx].Status = LineStatusRefused
			o.Lines[idx].UpdatedAt = now
		}
	}
	if accepted > 0 {
		o.Status = OrderStatusShipping
		o.AddDomainEvent(NewOrderAcceptedEvent(o))
	} else {
		o.Status = OrderStatusRefused
		o.CanceledAt = &now
		o.AddDomainEvent(NewOrderRefusedEvent(o))
	}
	o.UpdatedAt = now
	return nil
}

// AcceptedLines returns the lines accepted during acceptance
func (o *Order) AcceptedLines() []OrderLine {
	out := make([]OrderLine, 0, len(o.Lines))
	for _, l := range o.Lines {
		if l.Status == LineStatusAccepted {
			out = append(out, l)
		}
	}
	return out
}

// Ship records the local shipment and moves the order to SHIPPED. It is
// applied regardless of the remote outcome: the physical shipment already
// happened, so a failed remote confirmation is only a warning upstream.
// Every line that is not refused or refunded moves to SHIPPED.
func (o *Order) Ship(trackingNumber, carrier string) error {
	if o.Status != OrderStatusShipping {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot ship order in %s status", o.Status))
	}
	if trackingNumber == "" {
		return shared.NewDomainError("INVALID_TRACKING", "Tracking number is required")
	}
	if carrier == "" {
		return shared.NewDomainError("INVALID_CARRIER", "Carrier is required")
	}
	now := time.Now()
	for idx := range o.Lines {
		switch o.Lines[idx].Status {
		case LineStatusRefused, LineStatusRefunded:
			// untouched
		default:
			o.Lines[idx].Status = LineStatusShipped
			o.Lines[idx].TrackingNumber = trackingNumber
			o.Lines[idx].Carrier = carrier
			o.Lines[idx].UpdatedAt = now
		}
	}
	o.Status = OrderStatusShipped
	o.ShippedAt = &now
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderShippedEvent(o, trackingNumber, carrier))
	return nil
}

// Cancel refuses an order that already entered SHIPPING, e.g. after a
// marketplace-side cancellation
func (o *Order) Cancel(reason string) error {
	if !o.Status.CanTransitionTo(OrderStatusRefused) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot cancel order in %s status", o.Status))
	}
	now := time.Now()
	for idx := range o.Lines {
		if o.Lines[idx].Status != LineStatusRefunded {
			o.Lines[idx].Status = LineStatusRefused
			o.Lines[idx].UpdatedAt = now
		}
	}
	o.Status = OrderStatusRefused
	o.CanceledAt = &now
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderRefusedEvent(o))
	return nil
}

// ValidateRefund checks every requested line before any remote call: the
// line must exist and the requested amount must not exceed the stored line
// total (unit price times quantity).
func (o *Order) ValidateRefund(lines []RefundRequestLine) error {
	if len(lines) == 0 {
		return shared.NewDomainError("NO_LINES", "At least one refund line is required")
	}
	for _, rl := range lines {
		line := o.GetLine(rl.RemoteLineID)
		if line == nil {
			return shared.NewDomainError("LINE_NOT_FOUND",
				fmt.Sprintf("Line %s does not belong to order %s", rl.RemoteLineID, o.RemoteOrderID))
		}
		if rl.AmountCents <= 0 {
			return shared.NewDomainError("INVALID_REFUND_AMOUNT", "Refund amount must be positive")
		}
		if rl.AmountCents > line.LineTotalCents {
			return shared.NewDomainError("REFUND_EXCEEDS_LINE_TOTAL",
				fmt.Sprintf("Refund of %d exceeds line total %d for line %s",
					rl.AmountCents, line.LineTotalCents, rl.RemoteLineID))
		}
	}
	return nil
}

// ApplyRefund records the refunded amounts after the remote refund
// succeeded. When every non-refused line is fully refunded and the order is
// still SHIPPING, the order itself moves to REFUNDED.
func (o *Order) ApplyRefund(lines []RefundRequestLine) error {
	if err := o.ValidateRefund(lines); err != nil {
		return err
	}
	now := time.Now()
	for _, rl := range lines {
		line := o.GetLine(rl.RemoteLineID)
		line.RefundedCents += rl.AmountCents
		if line.RefundedCents >= line.LineTotalCents {
			line.Status = LineStatusRefunded
		}
		line.UpdatedAt = now
	}
	if o.Status == OrderStatusShipping && o.allSettledLinesRefunded() {
		o.Status = OrderStatusRefunded
		o.UpdatedAt = now
		o.AddDomainEvent(NewOrderRefundedEvent(o))
		return nil
	}
	o.UpdatedAt = now
	return nil
}

func (o *Order) allSettledLinesRefunded() bool {
	for _, l := range o.Lines {
		if l.Status != LineStatusRefused && l.Status != LineStatusRefunded {
			return false
		}
	}
	return true
}

// LineCount returns the number of lines on the order
func (o *Order) LineCount() int {
	return len(o.Lines)
}

// MaxLineQuantity returns the largest single-line quantity
func (o *Order) MaxLineQuantity() int {
	max := 0
	for _, l := range o.Lines {
		if l.Quantity > max {
			max = l.Quantity
		}
	}
	return max
}

// TotalQuantity returns the sum of all line quantities
func (o *Order) TotalQuantity() int {
	total := 0
	for _, l := range o.Lines {
		total += l.Quantity
	}
	return total
}
