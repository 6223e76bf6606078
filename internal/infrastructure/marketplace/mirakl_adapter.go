package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketbridge/backend/internal/domain/channel"
)

const (
	// maxMiraklResponseSize limits the response body size to prevent memory exhaustion
	maxMiraklResponseSize = 10 * 1024 * 1024 // 10MB max response
	// centsPerUnit converts between minor units and the API's decimal amounts
	centsPerUnit = 100
	// miraklDateLayout is the timestamp format of the operator API
	miraklDateLayout = "2006-01-02T15:04:05Z"
)

// MiraklAdapter implements MarketplaceGateway for a Mirakl-compatible
// marketplace operator API. One instance is bound to one channel.
type MiraklAdapter struct {
	channelID   uuid.UUID
	channelCode string
	config      *MiraklConfig
	httpClient  *http.Client
}

// NewMiraklAdapter creates an adapter bound to the given channel
func NewMiraklAdapter(channelID uuid.UUID, channelCode string, config *MiraklConfig) (*MiraklAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &MiraklAdapter{
		channelID:   channelID,
		channelCode: channelCode,
		config:      config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// ChannelID returns the channel this gateway instance is bound to
func (a *MiraklAdapter) ChannelID() uuid.UUID {
	return a.channelID
}

// ChannelCode returns the channel code this gateway instance is bound to
func (a *MiraklAdapter) ChannelCode() string {
	return a.channelCode
}

// ---------------------------------------------------------------------------
// Order Operations
// ---------------------------------------------------------------------------

// ListOrders lists remote orders matching the query
func (a *MiraklAdapter) ListOrders(ctx context.Context, query channel.OrderListQuery) ([]channel.RemoteOrder, error) {
	params := url.Values{}
	if len(query.States) > 0 {
		states := make([]string, 0, len(query.States))
		for _, s := range query.States {
			states = append(states, string(s))
		}
		params.Set("order_state_codes", strings.Join(states, ","))
	}
	if query.Since != nil {
		params.Set("start_update_date", query.Since.UTC().Format(miraklDateLayout))
	}
	if len(query.RemoteOrderIDs) > 0 {
		params.Set("order_ids", strings.Join(query.RemoteOrderIDs, ","))
	}
	if query.Offset > 0 {
		params.Set("offset", strconv.Itoa(query.Offset))
	}
	if query.Limit > 0 {
		params.Set("max", strconv.Itoa(query.Limit))
	}

	respBody, err := a.doRequest(ctx, http.MethodGet, "/orders", params, nil)
	if err != nil {
		return nil, err
	}

	var resp miraklOrdersResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", channel.ErrGatewayInvalidResponse, err)
	}

	orders := make([]channel.RemoteOrder, 0, len(resp.Orders))
	for i := range resp.Orders {
		orders = append(orders, a.convertMiraklOrder(&resp.Orders[i]))
	}
	return orders, nil
}

// AcceptOrder sends accept/refuse decisions for the order's lines
func (a *MiraklAdapter) AcceptOrder(ctx context.Context, remoteOrderID string, decisions []channel.LineAcceptance) error {
	if remoteOrderID == "" {
		return channel.ErrRemoteOrderNotFound
	}

	req := miraklAcceptRequest{
		OrderLines: make([]miraklAcceptLine, 0, len(decisions)),
	}
	for _, d := range decisions {
		req.OrderLines = append(req.OrderLines, miraklAcceptLine{
			OrderLineID: d.RemoteLineID,
			Accepted:    d.Accepted,
		})
	}

	path := fmt.Sprintf("/orders/%s/accept", url.PathEscape(remoteOrderID))
	_, err := a.doRequest(ctx, http.MethodPut, path, nil, req)
	return err
}

// UpdateTracking pushes carrier and tracking number for an order
func (a *MiraklAdapter) UpdateTracking(ctx context.Context, remoteOrderID string, tracking channel.TrackingInfo) error {
	if remoteOrderID == "" {
		return channel.ErrRemoteOrderNotFound
	}

	req := miraklTrackingRequest{
		CarrierCode:    tracking.Carrier,
		CarrierName:    tracking.CarrierName,
		CarrierURL:     tracking.TrackingURL,
		TrackingNumber: tracking.TrackingNumber,
	}

	path := fmt.Sprintf("/orders/%s/tracking", url.PathEscape(remoteOrderID))
	_, err := a.doRequest(ctx, http.MethodPut, path, nil, req)
	return err
}

// ConfirmShipment confirms the order as shipped on the marketplace
func (a *MiraklAdapter) ConfirmShipment(ctx context.Context, remoteOrderID string) error {
	if remoteOrderID == "" {
		return channel.ErrRemoteOrderNotFound
	}

	path := fmt.Sprintf("/orders/%s/ship", url.PathEscape(remoteOrderID))
	_, err := a.doRequest(ctx, http.MethodPut, path, nil, nil)
	return err
}

// RefundLines processes line-level refunds
func (a *MiraklAdapter) RefundLines(ctx context.Context, remoteOrderID string, lines []channel.RefundLine) error {
	if remoteOrderID == "" {
		return channel.ErrRemoteOrderNotFound
	}

	req := miraklRefundRequest{
		Refunds: make([]miraklRefundLine, 0, len(lines)),
	}
	for _, l := range lines {
		req.Refunds = append(req.Refunds, miraklRefundLine{
			OrderLineID: l.RemoteLineID,
			Amount:      decimal.NewFromInt(l.AmountCents).Div(decimal.NewFromInt(centsPerUnit)),
			Quantity:    l.Quantity,
			ReasonCode:  l.ReasonCode,
		})
	}

	_, err := a.doRequest(ctx, http.MethodPut, "/orders/refund", nil, req)
	return err
}

// ---------------------------------------------------------------------------
// Offer Operations
// ---------------------------------------------------------------------------

// PushOffer uploads or updates a single offer
func (a *MiraklAdapter) PushOffer(ctx context.Context, offer channel.Offer) error {
	return a.PushOffers(ctx, []channel.Offer{offer})
}

// PushOffers uploads a batch of offers in one remote call
func (a *MiraklAdapter) PushOffers(ctx context.Context, offers []channel.Offer) error {
	if len(offers) == 0 {
		return nil
	}

	req := miraklOfferImportRequest{
		Offers: make([]miraklOffer, 0, len(offers)),
	}
	for _, o := range offers {
		req.Offers = append(req.Offers, miraklOffer{
			ShopSKU:  o.SKU,
			Price:    decimal.NewFromInt(o.PriceCents).Div(decimal.NewFromInt(centsPerUnit)),
			Currency: o.Currency,
			Quantity: o.Quantity,
			Active:   o.Active,
		})
	}

	_, err := a.doRequest(ctx, http.MethodPost, "/offers", nil, req)
	return err
}

// ListOffers retrieves the marketplace's view of our offers
func (a *MiraklAdapter) ListOffers(ctx context.Context, offset, limit int) ([]channel.RemoteOffer, error) {
	params := url.Values{}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	if limit > 0 {
		params.Set("max", strconv.Itoa(limit))
	}

	respBody, err := a.doRequest(ctx, http.MethodGet, "/offers", params, nil)
	if err != nil {
		return nil, err
	}

	var resp miraklOffersResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", channel.ErrGatewayInvalidResponse, err)
	}

	offers := make([]channel.RemoteOffer, 0, len(resp.Offers))
	for _, o := range resp.Offers {
		offers = append(offers, channel.RemoteOffer{
			SKU:      o.ShopSKU,
			Quantity: o.Quantity,
			Active:   o.Active,
		})
	}
	return offers, nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// doRequest performs an HTTP request against the operator API and maps the
// response status to the gateway sentinel errors
func (a *MiraklAdapter) doRequest(ctx context.Context, method, path string, params url.Values, body any) ([]byte, error) {
	endpoint := a.config.APIBaseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("mirakl: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("mirakl: failed to create request: %w", err)
	}

	req.Header.Set("Authorization", a.config.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.config.ShopID != "" {
		req.Header.Set("X-Shop-Id", a.config.ShopID)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", channel.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxMiraklResponseSize))
	if err != nil {
		return nil, fmt.Errorf("mirakl: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, a.mapHTTPError(resp.StatusCode, respBody)
	}

	return respBody, nil
}

// mapHTTPError maps an HTTP error status to the gateway sentinel errors.
// 429 is the only retryable signal; the retry executor keys off it.
func (a *MiraklAdapter) mapHTTPError(status int, body []byte) error {
	message := ""
	var errResp miraklErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		message = errResp.Message
	}

	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP 429 %s", channel.ErrGatewayRateLimited, message)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", channel.ErrRemoteOrderNotFound, message)
	case status == http.StatusConflict:
		return fmt.Errorf("%w: %s", channel.ErrRemoteStateConflict, message)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d %s", channel.ErrGatewayNotConfigured, status, message)
	case status >= 500:
		return fmt.Errorf("%w: HTTP %d %s", channel.ErrGatewayUnavailable, status, message)
	default:
		return fmt.Errorf("%w: HTTP %d %s", channel.ErrGatewayRequestFailed, status, message)
	}
}

// convertMiraklOrder converts an operator API order to the domain value object
func (a *MiraklAdapter) convertMiraklOrder(order *miraklOrder) channel.RemoteOrder {
	remote := channel.RemoteOrder{
		RemoteOrderID:   order.OrderID,
		State:           channel.RemoteOrderState(order.OrderState),
		CustomerName:    strings.TrimSpace(order.Customer.FirstName + " " + order.Customer.LastName),
		CustomerEmail:   order.Customer.Email,
		ShippingCity:    order.Customer.ShippingAddress.City,
		ShippingCountry: order.Customer.ShippingAddress.Country,
		ShippingZone:    order.Customer.ShippingAddress.Zone,
		TotalAmount:     order.TotalPrice,
		ShippingAmount:  order.ShippingPrice,
		Currency:        order.CurrencyIsoCode,
		Lines:           make([]channel.RemoteOrderLine, 0, len(order.OrderLines)),
	}

	if t, err := time.Parse(miraklDateLayout, order.CreatedDate); err == nil {
		remote.OrderDate = t
	}
	if order.AcceptanceDecisionDate != "" {
		if t, err := time.Parse(miraklDateLayout, order.AcceptanceDecisionDate); err == nil {
			remote.AcceptanceDeadline = &t
		}
	}

	for _, line := range order.OrderLines {
		remote.Lines = append(remote.Lines, channel.RemoteOrderLine{
			RemoteLineID: line.OrderLineID,
			OfferSKU:     line.OfferSKU,
			ProductName:  line.ProductTitle,
			Quantity:     line.Quantity,
			UnitPrice:    line.PriceUnit,
			LineTotal:    line.TotalPrice,
			State:        channel.RemoteOrderState(line.OrderLineState),
		})
	}

	if rawBytes, err := json.Marshal(order); err == nil {
		remote.RawData = string(rawBytes)
	}

	return remote
}

// Ensure MiraklAdapter implements the gateway port
var _ channel.MarketplaceGateway = (*MiraklAdapter)(nil)
