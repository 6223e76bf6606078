package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/marketbridge/backend/internal/application/offer"
)

// OfferHandler exposes offer sync endpoints
type OfferHandler struct {
	BaseHandler
	offers *offer.SyncService
}

// NewOfferHandler creates an offer handler
func NewOfferHandler(offers *offer.SyncService) *OfferHandler {
	return &OfferHandler{offers: offers}
}

// RegisterRoutes registers offer routes
func (h *OfferHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/offers")
	{
		g.POST("/sync", h.SyncAll)
		g.POST("/sync/preview", h.Preview)
		g.POST("/sync/:id", h.SyncOne)
	}
}

// Preview reports what a full sync run would push without pushing anything
func (h *OfferHandler) Preview(c *gin.Context) {
	var req offer.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	plan, err := h.offers.PreviewAll(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, plan)
}

// SyncAll pushes the whole marketplace-enabled catalog to a channel
func (h *OfferHandler) SyncAll(c *gin.Context) {
	var req offer.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	report, err := h.offers.SyncAll(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, report)
}

// SyncOne pushes a single product's offer to a channel
func (h *OfferHandler) SyncOne(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	var req offer.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if err := h.offers.SyncOne(c.Request.Context(), id, req); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
