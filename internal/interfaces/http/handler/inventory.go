package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/marketbridge/backend/internal/application/inventory"
)

// InventoryHandler exposes stock adjustment and reconciliation endpoints
type InventoryHandler struct {
	BaseHandler
	inventory *inventory.Service
}

// NewInventoryHandler creates an inventory handler
func NewInventoryHandler(inventoryService *inventory.Service) *InventoryHandler {
	return &InventoryHandler{inventory: inventoryService}
}

// RegisterRoutes registers inventory routes
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/inventory")
	{
		g.POST("/adjust", h.Adjust)
		g.GET("/queue", h.ListPending)
		g.GET("/queue/count", h.PendingCount)
		g.GET("/queue/product/:id", h.ProductHistory)
		g.POST("/flush", h.Flush)
		g.POST("/drift-check", h.CheckDrift)
		g.POST("/full-sync", h.ForceFullSync)
	}
}

type queueListQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// Adjust sets a product's local stock and queues the change for sync
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req inventory.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	resp, err := h.inventory.AdjustStock(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, resp)
}

// ListPending returns unsynced queue entries, oldest first
func (h *InventoryHandler) ListPending(c *gin.Context) {
	var query queueListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	entries, err := h.inventory.ListPending(c.Request.Context(), query.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, entries)
}

// PendingCount returns the number of unsynced queue entries
func (h *InventoryHandler) PendingCount(c *gin.Context) {
	count, err := h.inventory.PendingCount(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, gin.H{"pending": count})
}

// ProductHistory returns recent queue entries for one product
func (h *InventoryHandler) ProductHistory(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	var query queueListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	entries, err := h.inventory.ProductHistory(c.Request.Context(), id, query.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, entries)
}

// Flush pushes pending stock changes to a marketplace channel
func (h *InventoryHandler) Flush(c *gin.Context) {
	var req inventory.FlushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	report, err := h.inventory.Flush(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, report)
}

// CheckDrift compares local stock against the marketplace and reports
// mismatches without correcting anything
func (h *InventoryHandler) CheckDrift(c *gin.Context) {
	var req inventory.FlushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	report, err := h.inventory.CheckDrift(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, report)
}

// ForceFullSync pushes the whole enabled catalog's stock. Requires explicit
// confirmation in the request body.
func (h *InventoryHandler) ForceFullSync(c *gin.Context) {
	var req inventory.ForceFullSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	report, err := h.inventory.ForceFullSync(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, report)
}
