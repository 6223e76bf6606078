package marketplace

import (
	"github.com/shopspring/decimal"
)

// Wire types for the Mirakl-compatible marketplace API. Field names follow
// the operator API's JSON contract.

// miraklOrdersResponse is the payload of GET /orders
type miraklOrdersResponse struct {
	Orders     []miraklOrder `json:"orders"`
	TotalCount int64         `json:"total_count"`
}

// miraklOrder is one order in the operator API
type miraklOrder struct {
	OrderID                string            `json:"order_id"`
	OrderState             string            `json:"order_state"`
	CreatedDate            string            `json:"created_date"`
	AcceptanceDecisionDate string            `json:"acceptance_decision_date"`
	CurrencyIsoCode        string            `json:"currency_iso_code"`
	TotalPrice             decimal.Decimal   `json:"total_price"`
	ShippingPrice          decimal.Decimal   `json:"shipping_price"`
	Customer               miraklCustomer    `json:"customer"`
	OrderLines             []miraklOrderLine `json:"order_lines"`
}

// miraklCustomer is the buyer snapshot embedded in an order
type miraklCustomer struct {
	FirstName       string                `json:"firstname"`
	LastName        string                `json:"lastname"`
	Email           string                `json:"email"`
	ShippingAddress miraklShippingAddress `json:"shipping_address"`
}

// miraklShippingAddress is the delivery address of an order
type miraklShippingAddress struct {
	City    string `json:"city"`
	Country string `json:"country_iso_code"`
	Zone    string `json:"shipping_zone_code"`
}

// miraklOrderLine is one line within an order
type miraklOrderLine struct {
	OrderLineID    string          `json:"order_line_id"`
	OrderLineState string          `json:"order_line_state"`
	OfferSKU       string          `json:"offer_sku"`
	ProductTitle   string          `json:"product_title"`
	Quantity       int             `json:"quantity"`
	PriceUnit      decimal.Decimal `json:"price_unit"`
	TotalPrice     decimal.Decimal `json:"total_price"`
}

// miraklAcceptRequest is the payload of PUT /orders/{id}/accept
type miraklAcceptRequest struct {
	OrderLines []miraklAcceptLine `json:"order_lines"`
}

// miraklAcceptLine is one accept/refuse decision
type miraklAcceptLine struct {
	OrderLineID string `json:"id"`
	Accepted    bool   `json:"accepted"`
}

// miraklTrackingRequest is the payload of PUT /orders/{id}/tracking
type miraklTrackingRequest struct {
	CarrierCode    string `json:"carrier_code,omitempty"`
	CarrierName    string `json:"carrier_name,omitempty"`
	CarrierURL     string `json:"carrier_url,omitempty"`
	TrackingNumber string `json:"tracking_number"`
}

// miraklRefundRequest is the payload of PUT /orders/refund
type miraklRefundRequest struct {
	Refunds []miraklRefundLine `json:"refunds"`
}

// miraklRefundLine is one line-level refund
type miraklRefundLine struct {
	OrderLineID string          `json:"order_line_id"`
	Amount      decimal.Decimal `json:"amount"`
	Quantity    int             `json:"quantity"`
	ReasonCode  string          `json:"reason_code,omitempty"`
}

// miraklOfferImportRequest is the payload of POST /offers
type miraklOfferImportRequest struct {
	Offers []miraklOffer `json:"offers"`
}

// miraklOffer is one offer in the import payload and the offer listing
type miraklOffer struct {
	ShopSKU  string          `json:"shop_sku"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency_iso_code,omitempty"`
	Quantity int             `json:"quantity"`
	Active   bool            `json:"active"`
}

// miraklOffersResponse is the payload of GET /offers
type miraklOffersResponse struct {
	Offers     []miraklOffer `json:"offers"`
	TotalCount int64         `json:"total_count"`
}

// miraklErrorResponse is the operator API's error envelope
type miraklErrorResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}
