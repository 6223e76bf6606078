package dto

import "net/http"

// Error codes used in API responses
const (
	ErrCodeBadRequest          = "ERR_BAD_REQUEST"
	ErrCodeValidation          = "ERR_VALIDATION"
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeInvalidState        = "ERR_INVALID_STATE"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeNoAdapter           = "ERR_NO_ADAPTER"
	ErrCodeGatewayUnavailable  = "ERR_GATEWAY_UNAVAILABLE"
	ErrCodeGatewayRateLimited  = "ERR_GATEWAY_RATE_LIMITED"
	ErrCodeRemoteConflict      = "ERR_REMOTE_STATE_CONFLICT"
	ErrCodeInternalServer      = "ERR_INTERNAL_SERVER"
)

// GetHTTPStatus maps an API error code to its HTTP status code
func GetHTTPStatus(code string) int {
	switch code {
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict, ErrCodeInvalidState, ErrCodeConcurrencyConflict, ErrCodeRemoteConflict:
		return http.StatusConflict
	case ErrCodeGatewayRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeNoAdapter, ErrCodeGatewayUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
