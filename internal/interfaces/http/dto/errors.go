package dto

import "net/http"

// Stable API error codes. Domain errors carry their own short codes; the
// handler layer normalizes them through these before they reach a client.
const (
	ErrCodeBadRequest         = "ERR_BAD_REQUEST"
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeNotFound           = "ERR_NOT_FOUND"
	ErrCodeConflict           = "ERR_CONFLICT"
	ErrCodeUnprocessable      = "ERR_UNPROCESSABLE"
	ErrCodePayloadTooLarge    = "ERR_PAYLOAD_TOO_LARGE"
	ErrCodeUpstreamFailure    = "ERR_UPSTREAM_FAILURE"
	ErrCodeInternal           = "ERR_INTERNAL"
	ErrCodeRequestTimeout     = "ERR_REQUEST_TIMEOUT"
	ErrCodeTooManyRequests    = "ERR_TOO_MANY_REQUESTS"
	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps API error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeUnprocessable:      http.StatusUnprocessableEntity,
	ErrCodePayloadTooLarge:    http.StatusRequestEntityTooLarge,
	ErrCodeUpstreamFailure:    http.StatusBadGateway,
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeRequestTimeout:     http.StatusRequestTimeout,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status for an API error code, defaulting
// to 500 for unknown codes
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainErrorCodeMapping maps domain error codes to API error codes
var domainErrorCodeMapping = map[string]string{
	"NOT_FOUND":          ErrCodeNotFound,
	"INVALID_INPUT":      ErrCodeBadRequest,
	"INVALID_SIGNAL":     ErrCodeBadRequest,
	"EMPTY_BATCH":        ErrCodeBadRequest,
	"BATCH_TOO_LARGE":    ErrCodeBadRequest,
	"EMPTY_QUOTE":        ErrCodeBadRequest,
	"INVALID_LINE":       ErrCodeBadRequest,
	"INVALID_STATE":      ErrCodeUnprocessable,
	"DUPLICATE_IDENTITY": ErrCodeConflict,
	"REMOTE_UNAVAILABLE": ErrCodeUpstreamFailure,
	"INTERNAL_ERROR":     ErrCodeInternal,
}

// NormalizeErrorCode maps a domain error code to its API error code.
// Already-normalized ERR_ codes pass through; anything unknown becomes
// ErrCodeInternal so no raw domain code leaks to a client.
func NormalizeErrorCode(code string) string {
	if _, ok := ErrorCodeHTTPStatus[code]; ok {
		return code
	}
	if normalized, ok := domainErrorCodeMapping[code]; ok {
		return normalized
	}
	return ErrCodeInternal
}
