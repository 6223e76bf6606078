package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/marketbridge/backend/internal/application/order"
	"github.com/marketbridge/backend/internal/application/rules"
	"github.com/marketbridge/backend/internal/interfaces/http/dto"
)

// OrderHandler exposes order import and lifecycle endpoints
type OrderHandler struct {
	BaseHandler
	orders *order.SyncService
	eval   *rules.EvaluationService
}

// NewOrderHandler creates an order handler
func NewOrderHandler(orders *order.SyncService, eval *rules.EvaluationService) *OrderHandler {
	return &OrderHandler{orders: orders, eval: eval}
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/orders")
	{
		g.GET("", h.List)
		g.GET("/:id", h.Get)
		g.POST("/import", h.Import)
		g.POST("/batch-decision", h.BatchDecide)
		g.POST("/:id/accept", h.Accept)
		g.POST("/:id/refuse", h.Refuse)
		g.POST("/:id/ship", h.Ship)
		g.POST("/:id/refund", h.Refund)
		g.GET("/:id/rule-preview", h.RulePreview)
		g.GET("/:id/rule-triggers", h.RuleTriggers)
	}
}

type orderListQuery struct {
	dto.ListRequest
	ChannelID string `form:"channel_id" binding:"omitempty,uuid"`
	Status    string `form:"status"`
	Country   string `form:"country"`
	Since     string `form:"since"`
}

type importOrdersBody struct {
	ChannelID   string `json:"channel_id" binding:"omitempty,uuid"`
	ChannelCode string `json:"channel_code"`
	Since       string `json:"since"`
}

// List returns orders filtered by channel, status, country and date
func (h *OrderHandler) List(c *gin.Context) {
	query := orderListQuery{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := order.OrderListFilter{
		Status:   query.Status,
		Country:  query.Country,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if query.ChannelID != "" {
		id, err := uuid.Parse(query.ChannelID)
		if err != nil {
			h.BadRequest(c, "invalid channel_id")
			return
		}
		filter.ChannelID = &id
	}
	if query.Since != "" {
		since, err := parseDateTime(query.Since)
		if err != nil {
			h.BadRequest(c, "invalid since datetime")
			return
		}
		filter.Since = &since
	}

	orders, total, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// Get returns one order with its lines
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	resp, err := h.orders.GetByID(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, resp)
}

// Import pulls pending orders from a marketplace channel
func (h *OrderHandler) Import(c *gin.Context) {
	var body importOrdersBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	req := order.ImportOrdersRequest{ChannelCode: body.ChannelCode}
	if body.ChannelID != "" {
		id, err := uuid.Parse(body.ChannelID)
		if err != nil {
			h.BadRequest(c, "invalid channel_id")
			return
		}
		req.ChannelID = &id
	}
	if body.Since != "" {
		since, err := parseDateTime(body.Since)
		if err != nil {
			h.BadRequest(c, "invalid since datetime")
			return
		}
		req.Since = &since
	}

	report, err := h.orders.Import(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, report)
}

// Accept confirms order lines on the marketplace and locally
func (h *OrderHandler) Accept(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	var req order.AcceptOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	resp, err := h.orders.Accept(c.Request.Context(), id, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, resp)
}

// BatchDecide accepts or refuses a set of orders in one call
func (h *OrderHandler) BatchDecide(c *gin.Context) {
	var req order.BatchDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	report, err := h.orders.BatchDecide(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, report)
}

// Refuse rejects every line of an order
func (h *OrderHandler) Refuse(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	resp, err := h.orders.Refuse(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, resp)
}

// Ship records a shipment and confirms it on the marketplace
func (h *OrderHandler) Ship(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	var req order.ShipOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	resp, err := h.orders.Ship(c.Request.Context(), id, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, resp)
}

// Refund refunds order lines on the marketplace and locally
func (h *OrderHandler) Refund(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	var req order.RefundOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	resp, err := h.orders.Refund(c.Request.Context(), id, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, resp)
}

// RulePreview shows which auto rules would fire for an order
func (h *OrderHandler) RulePreview(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	matches, err := h.eval.Preview(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, matches)
}

// RuleTriggers lists recorded rule triggers for an order
func (h *OrderHandler) RuleTriggers(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	logs, err := h.eval.TriggerHistory(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, logs)
}

// parseDateTime accepts the formats clients commonly send
func parseDateTime(value string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	var lastErr error
	for _, format := range formats {
		t, err := time.Parse(format, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
