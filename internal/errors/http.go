package errors

import (
	"errors"
	"net/http"
)

// HTTPStatus maps an error to the HTTP status code the REST layer should
// return. Unexpected faults map to 500 without leaking internals.
func HTTPStatus(err error) int {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeConflict:
		return http.StatusConflict
	case ErrorTypeDomain:
		return http.StatusUnprocessableEntity
	case ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrorTypeTimeout:
		return http.StatusServiceUnavailable
	case ErrorTypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicPayload is the wire shape for an error response. Internal causes and
// stack context are stripped; only the stable code and message go out.
type PublicPayload struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// Public converts an error to its client-safe payload.
func Public(err error) PublicPayload {
	var appErr *Error
	if !errors.As(err, &appErr) || appErr.Type == ErrorTypeInternal {
		return PublicPayload{
			Code:    CodeInternalError.String(),
			Message: "an unexpected error occurred",
		}
	}
	return PublicPayload{
		Code:    appErr.Code,
		Message: appErr.Message,
		Data:    appErr.Data,
	}
}
