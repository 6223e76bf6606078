package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/marketbridge/backend/internal/application/synclog"
	"github.com/marketbridge/backend/internal/interfaces/http/dto"
)

// SyncLogHandler exposes sync history endpoints
type SyncLogHandler struct {
	BaseHandler
	history *synclog.Service
}

// NewSyncLogHandler creates a sync history handler
func NewSyncLogHandler(history *synclog.Service) *SyncLogHandler {
	return &SyncLogHandler{history: history}
}

// RegisterRoutes registers sync history routes
func (h *SyncLogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/sync-history", h.List)
}

type syncHistoryQuery struct {
	dto.ListRequest
	ChannelID string `form:"channel_id" binding:"omitempty,uuid"`
	Type      string `form:"type"`
	Status    string `form:"status"`
	Since     string `form:"since"`
}

// List returns sync history entries, newest first
func (h *SyncLogHandler) List(c *gin.Context) {
	query := syncHistoryQuery{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := synclog.HistoryFilter{
		Type:     query.Type,
		Status:   query.Status,
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

	entries, total, err := h.history.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.SuccessWithMeta(c, entries, total, filter.Page, filter.PageSize)
}
