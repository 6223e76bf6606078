package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/marketbridge/backend/internal/application/channel"
)

// ChannelHandler exposes channel configuration endpoints
type ChannelHandler struct {
	BaseHandler
	channels *channel.Service
}

// NewChannelHandler creates a channel handler
func NewChannelHandler(channels *channel.Service) *ChannelHandler {
	return &ChannelHandler{channels: channels}
}

// RegisterRoutes registers channel routes
func (h *ChannelHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/channels")
	{
		g.POST("", h.Create)
		g.GET("", h.List)
		g.GET("/:id", h.Get)
		g.PUT("/:id", h.Update)
		g.POST("/:id/activate", h.Activate)
		g.POST("/:id/deactivate", h.Deactivate)
	}
}

// Create registers a new marketplace channel
func (h *ChannelHandler) Create(c *gin.Context) {
	var req channel.CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	resp, err := h.channels.Create(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns all channels
func (h *ChannelHandler) List(c *gin.Context) {
	channels, err := h.channels.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, channels)
}

// Get returns one channel
func (h *ChannelHandler) Get(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	resp, err := h.channels.GetByID(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, resp)
}

// Update modifies channel settings
func (h *ChannelHandler) Update(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	var req channel.UpdateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	resp, err := h.channels.Update(c.Request.Context(), id, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, resp)
}

// Activate turns a channel live
func (h *ChannelHandler) Activate(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	resp, err := h.channels.Activate(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, resp)
}

// Deactivate takes a channel offline
func (h *ChannelHandler) Deactivate(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}
	resp, err := h.channels.Deactivate(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, resp)
}
