package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/marketbridge/backend/internal/application/rules"
)

// RuleHandler exposes auto-decision rule management endpoints
type RuleHandler struct {
	BaseHandler
	rules *rules.RuleService
}

// NewRuleHandler creates a rule handler
func NewRuleHandler(ruleService *rules.RuleService) *RuleHandler {
	return &RuleHandler{rules: ruleService}
}

// RegisterRoutes registers rule routes
func (h *RuleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/rules")
	{
		g.POST("", h.Create)
		g.GET("", h.List)
		g.GET("/:id", h.Get)
		g.PUT("/:id", h.Update)
		g.POST("/:id/toggle", h.Toggle)
		g.DELETE("/:id", h.Delete)
	}
}

// Create adds an auto-decision rule
func (h *RuleHandler) Create(c *gin.Context) {
	var req rules.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	resp, err := h.rules.Create(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns all rules ordered by priority
func (h *RuleHandler) List(c *gin.Context) {
	found, err := h.rules.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, found)
}

// Get returns one rule
func (h *RuleHandler) Get(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	resp, err := h.rules.GetByID(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, resp)
}

// Update modifies a rule
func (h *RuleHandler) Update(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	var req rules.UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	resp, err := h.rules.Update(c.Request.Context(), id, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, resp)
}

// Toggle enables or disables a rule
func (h *RuleHandler) Toggle(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	var req rules.ToggleRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	resp, err := h.rules.Toggle(c.Request.Context(), id, req.Enabled)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete removes a rule
func (h *RuleHandler) Delete(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	if err := h.rules.Delete(c.Request.Context(), id); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
