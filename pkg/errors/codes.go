package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_005"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_006"
	ErrCodeTimeout            ErrorCode = "COMMON_007"
	ErrCodeValidation         ErrorCode = "COMMON_008"
	ErrCodeSerialization      ErrorCode = "COMMON_009"
	ErrCodeDatabaseError      ErrorCode = "COMMON_010"
	ErrCodeCacheError         ErrorCode = "COMMON_011"
	ErrCodeNotImplemented     ErrorCode = "COMMON_012"
)

// Geometry error codes
const (
	// ErrCodeGeometryInvalid covers study areas that fail best-effort
	// validation, most commonly a self-intersecting ring.
	ErrCodeGeometryInvalid     ErrorCode = "GEO_001"
	ErrCodeGeometryParseFailed ErrorCode = "GEO_002"
	ErrCodeGeometryEmpty       ErrorCode = "GEO_003"
	ErrCodeGeometryUnsupported ErrorCode = "GEO_004"
)

// Aggregation error codes
const (
	ErrCodeAggregationFailed   ErrorCode = "AGG_001"
	ErrCodeFieldNotNumeric     ErrorCode = "AGG_002"
	ErrCodeNoUsableRecords     ErrorCode = "AGG_003"
	ErrCodeStrategyUnsupported ErrorCode = "AGG_004"
)

// Data source error codes
const (
	ErrCodeDatasetNotFound     ErrorCode = "DS_001"
	ErrCodeDatasetUnavailable  ErrorCode = "DS_002"
	ErrCodeRecordParseFailed   ErrorCode = "DS_003"
	ErrCodeDatasetVersionStale ErrorCode = "DS_004"
)

// Aliases kept for call-site readability.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeValidation   = ErrCodeValidation
	CodeOK           = ErrorCode("OK")
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeGeometryInvalid:     http.StatusBadRequest,
	ErrCodeGeometryParseFailed: http.StatusBadRequest,
	ErrCodeGeometryEmpty:       http.StatusBadRequest,
	ErrCodeGeometryUnsupported: http.StatusBadRequest,

	ErrCodeAggregationFailed:   http.StatusInternalServerError,
	ErrCodeFieldNotNumeric:     http.StatusUnprocessableEntity,
	ErrCodeNoUsableRecords:     http.StatusOK,
	ErrCodeStrategyUnsupported: http.StatusBadRequest,

	ErrCodeDatasetNotFound:     http.StatusNotFound,
	ErrCodeDatasetUnavailable:  http.StatusServiceUnavailable,
	ErrCodeRecordParseFailed:   http.StatusBadGateway,
	ErrCodeDatasetVersionStale: http.StatusConflict,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeGeometryInvalid:     "invalid study area geometry",
	ErrCodeGeometryParseFailed: "failed to parse study area geometry",
	ErrCodeGeometryEmpty:       "study area geometry is empty",
	ErrCodeGeometryUnsupported: "unsupported geometry type",

	ErrCodeAggregationFailed:   "aggregation failed",
	ErrCodeFieldNotNumeric:     "field value is not numeric",
	ErrCodeNoUsableRecords:     "no usable records in selection",
	ErrCodeStrategyUnsupported: "unsupported aggregation strategy",

	ErrCodeDatasetNotFound:     "dataset not found",
	ErrCodeDatasetUnavailable:  "dataset store unavailable",
	ErrCodeRecordParseFailed:   "failed to parse located record",
	ErrCodeDatasetVersionStale: "dataset version is stale",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode, e.g. "GEO" for GEO_001.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
