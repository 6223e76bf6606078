package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/marketbridge/backend/internal/domain/channel"
	"github.com/marketbridge/backend/internal/domain/shared"
	"github.com/marketbridge/backend/internal/interfaces/http/dto"
)

// BaseHandler provides common response helpers for all handlers
type BaseHandler struct{}

// Success sends a 200 response with data
func (h *BaseHandler) Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a 200 response with data and pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data interface{}, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 response with data
func (h *BaseHandler) Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends a 400 response, typically for binding failures
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.respond(c, http.StatusBadRequest, dto.ErrCodeValidation, message)
}

// Error maps an application error to its HTTP representation. Domain errors
// carry their own codes; gateway errors map to upstream statuses.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		switch domainErr.Code {
		case "NOT_FOUND":
			h.respond(c, http.StatusNotFound, dto.ErrCodeNotFound, domainErr.Message)
		case "ALREADY_EXISTS":
			h.respond(c, http.StatusConflict, dto.ErrCodeConflict, domainErr.Message)
		case "INVALID_STATE":
			h.respond(c, http.StatusConflict, dto.ErrCodeInvalidState, domainErr.Message)
		case "CONCURRENCY_CONFLICT":
			h.respond(c, http.StatusConflict, dto.ErrCodeConcurrencyConflict, domainErr.Message)
		default:
			// validation-style domain errors keep their domain code
			h.respond(c, http.StatusUnprocessableEntity, domainErr.Code, domainErr.Message)
		}
		return
	}

	switch {
	case errors.Is(err, channel.ErrNoAdapter):
		h.respond(c, http.StatusBadGateway, dto.ErrCodeNoAdapter, "No adapter available for the requested channel")
	case errors.Is(err, channel.ErrGatewayRateLimited):
		h.respond(c, http.StatusTooManyRequests, dto.ErrCodeGatewayRateLimited, "Marketplace rate limit exceeded, retry later")
	case errors.Is(err, channel.ErrRemoteStateConflict):
		h.respond(c, http.StatusConflict, dto.ErrCodeRemoteConflict, "Remote order state diverged from the local state")
	case errors.Is(err, channel.ErrRemoteOrderNotFound):
		h.respond(c, http.StatusNotFound, dto.ErrCodeNotFound, "Order not found on the marketplace")
	case errors.Is(err, channel.ErrGatewayUnavailable),
		errors.Is(err, channel.ErrGatewayRequestFailed),
		errors.Is(err, channel.ErrGatewayInvalidResponse),
		errors.Is(err, channel.ErrGatewayNotConfigured):
		h.respond(c, http.StatusBadGateway, dto.ErrCodeGatewayUnavailable, "Marketplace gateway unavailable")
	default:
		h.respond(c, http.StatusInternalServerError, dto.ErrCodeInternalServer, "An internal error occurred")
	}
}

// bindID parses the :id path parameter as a UUID. On failure it writes a 400
// response and returns false.
func (h *BaseHandler) bindID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *BaseHandler) respond(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}
