package channel

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Gateway Errors
// ---------------------------------------------------------------------------

var (
	// ErrGatewayNotConfigured indicates the channel has no usable credentials
	ErrGatewayNotConfigured = errors.New("channel: gateway not configured")
	// ErrGatewayUnavailable indicates a network-level failure reaching the marketplace
	ErrGatewayUnavailable = errors.New("channel: gateway temporarily unavailable")
	// ErrGatewayRequestFailed indicates the marketplace rejected the request
	ErrGatewayRequestFailed = errors.New("channel: gateway request failed")
	// ErrGatewayRateLimited indicates the marketplace throttled the request
	ErrGatewayRateLimited = errors.New("channel: gateway rate limited")
	// ErrGatewayInvalidResponse indicates an unparseable marketplace response
	ErrGatewayInvalidResponse = errors.New("channel: invalid gateway response")
	// ErrRemoteStateConflict indicates the remote order state diverged from the
	// local assumption (e.g. the order already left WAITING_ACCEPTANCE).
	ErrRemoteStateConflict = errors.New("channel: remote order state conflict")
	// ErrRemoteOrderNotFound indicates the order does not exist on the marketplace
	ErrRemoteOrderNotFound = errors.New("channel: remote order not found")
	// ErrNoAdapter is the explicit "no adapter" signal used by the resolver so
	// callers can fall back to a legacy single-channel path. It is not a failure.
	ErrNoAdapter = errors.New("channel: no adapter available")
)

// ---------------------------------------------------------------------------
// Remote Value Objects
// ---------------------------------------------------------------------------

// RemoteOrderState represents an order state on the marketplace
type RemoteOrderState string

const (
	RemoteStateWaitingAcceptance RemoteOrderState = "WAITING_ACCEPTANCE"
	RemoteStateShipping          RemoteOrderState = "SHIPPING"
	RemoteStateShipped           RemoteOrderState = "SHIPPED"
	RemoteStateRefused           RemoteOrderState = "REFUSED"
	RemoteStateRefunded          RemoteOrderState = "REFUNDED"
	RemoteStateCanceled          RemoteOrderState = "CANCELED"
)

// RemoteOrder represents an order as returned by the marketplace API
type RemoteOrder struct {
	RemoteOrderID      string
	State              RemoteOrderState
	CustomerName       string
	CustomerEmail      string
	ShippingCity       string
	ShippingCountry    string
	ShippingZone       string
	TotalAmount        decimal.Decimal
	ShippingAmount     decimal.Decimal
	Currency           string
	OrderDate          time.Time
	AcceptanceDeadline *time.Time
	Lines              []RemoteOrderLine
	// RawData is the original marketplace payload (JSON), kept for diagnostics
	RawData string
}

// RemoteOrderLine represents a line item within a remote order
type RemoteOrderLine struct {
	RemoteLineID string
	OfferSKU     string
	ProductName  string
	Quantity     int
	UnitPrice    decimal.Decimal
	LineTotal    decimal.Decimal
	State        RemoteOrderState
}

// LineAcceptance is one accept/refuse decision for a remote order line
type LineAcceptance struct {
	RemoteLineID string
	Accepted     bool
}

// TrackingInfo carries shipment tracking data pushed to the marketplace
type TrackingInfo struct {
	Carrier        string
	CarrierName    string
	TrackingNumber string
	TrackingURL    string
}

// RefundLine is one line-level refund pushed to the marketplace
type RefundLine struct {
	RemoteLineID string
	AmountCents  int64
	Quantity     int
	ReasonCode   string
}

// Offer is a product offer pushed to the marketplace
type Offer struct {
	ProductID  uuid.UUID
	SKU        string
	PriceCents int64
	Currency   string
	Quantity   int
	Active     bool
}

// RemoteOffer is an offer as known by the marketplace, used for drift checks
type RemoteOffer struct {
	SKU      string
	Quantity int
	Active   bool
}

// OrderListQuery filters the remote order listing
type OrderListQuery struct {
	// States restricts the listing to the given remote states (empty = all)
	States []RemoteOrderState
	// Since restricts to orders updated after this time
	Since *time.Time
	// RemoteOrderIDs restricts to specific orders, used by targeted
	// reconciliation polls after a conflict
	RemoteOrderIDs []string
	Offset         int
	Limit          int
}

// ---------------------------------------------------------------------------
// MarketplaceGateway Port
// ---------------------------------------------------------------------------

// MarketplaceGateway is the port for one marketplace channel. Implementations
// live in the infrastructure layer; one instance is built per active channel
// and held by the registry.
type MarketplaceGateway interface {
	// ChannelID returns the channel this gateway instance is bound to
	ChannelID() uuid.UUID
	// ChannelCode returns the channel code this gateway instance is bound to
	ChannelCode() string

	// ListOrders lists remote orders matching the query
	ListOrders(ctx context.Context, query OrderListQuery) ([]RemoteOrder, error)
	// AcceptOrder sends accept/refuse decisions for the order's lines
	AcceptOrder(ctx context.Context, remoteOrderID string, decisions []LineAcceptance) error
	// UpdateTracking pushes carrier and tracking number for an order
	UpdateTracking(ctx context.Context, remoteOrderID string, tracking TrackingInfo) error
	// ConfirmShipment confirms the order as shipped on the marketplace
	ConfirmShipment(ctx context.Context, remoteOrderID string) error
	// RefundLines processes line-level refunds
	RefundLines(ctx context.Context, remoteOrderID string, lines []RefundLine) error

	// PushOffer uploads or updates a single offer
	PushOffer(ctx context.Context, offer Offer) error
	// PushOffers uploads a batch of offers in one remote call. On failure the
	// whole batch is considered failed; the marketplace gives no per-item detail.
	PushOffers(ctx context.Context, offers []Offer) error
	// ListOffers retrieves the marketplace's view of our offers for reconciliation
	ListOffers(ctx context.Context, offset, limit int) ([]RemoteOffer, error)
}

// GatewayFactory builds a gateway instance from a channel configuration.
// Construction failures (missing credentials, unknown adapter type) abort
// only the requested operation, never the process.
type GatewayFactory interface {
	Build(ch *Channel) (MarketplaceGateway, error)
}

// Registry provides task-safe read access to the gateways of currently
// active channels. Reload is triggered on channel activate/deactivate.
type Registry interface {
	Get(channelID uuid.UUID) (MarketplaceGateway, bool)
	GetByCode(code string) (MarketplaceGateway, bool)
	// All returns the registered gateways in channel-code order
	All() []MarketplaceGateway
	Reload(ctx context.Context) error
}
