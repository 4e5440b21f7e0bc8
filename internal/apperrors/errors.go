// Package apperrors holds the errors the hub API reports to its clients.
package apperrors

import (
	"errors"
	"net/http"

	stapperrors "github.com/strefethen/soundtouch-hub-go/pkg/soundtouch/apperrors"
)

type ErrorCode string

const (
	ErrorCodeInternalError    ErrorCode = "INTERNAL_ERROR"
	ErrorCodeValidationError  ErrorCode = "VALIDATION_ERROR"
	ErrorCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrorCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrorCodeAuthTokenExpired ErrorCode = "AUTH_TOKEN_EXPIRED"
	ErrorCodeAuthTokenInvalid ErrorCode = "AUTH_TOKEN_INVALID"
	ErrorCodeDeviceNotFound   ErrorCode = "DEVICE_NOT_FOUND"
	ErrorCodeDeviceTimeout    ErrorCode = "DEVICE_TIMEOUT"
	ErrorCodeDeviceOffline    ErrorCode = "DEVICE_UNREACHABLE"
	ErrorCodeDeviceRejected   ErrorCode = "DEVICE_REJECTED"
	ErrorCodeDevicePayload    ErrorCode = "DEVICE_PAYLOAD_INVALID"
	ErrorCodeConflict         ErrorCode = "CONFLICT"
)

// ErrorType groups codes the way API clients branch on them.
type ErrorType string

const (
	ErrorTypeInvalidRequest ErrorType = "invalid_request_error"
	ErrorTypeAPIError       ErrorType = "api_error"
	ErrorTypeAuthError      ErrorType = "authentication_error"
	ErrorTypeDeviceError    ErrorType = "device_error"
)

// ErrorBody is the serialized error payload.
// Format: {"type": "invalid_request_error", "code": "NOT_FOUND", "message": "..."}
type ErrorBody struct {
	Type    ErrorType      `json:"type"`
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// AppError is an error with an HTTP status.
type AppError struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Details    map[string]any
	Err        error
}

func (err *AppError) Error() string {
	if err.Err != nil {
		return err.Message + ": " + err.Err.Error()
	}
	return err.Message
}

func (err *AppError) Unwrap() error {
	return err.Err
}

// Body returns the payload written to the client. The wrapped cause is
// never exposed.
func (err *AppError) Body() ErrorBody {
	errType := ErrorTypeAPIError
	switch {
	case err.StatusCode == http.StatusUnauthorized || err.StatusCode == http.StatusForbidden:
		errType = ErrorTypeAuthError
	case err.StatusCode == http.StatusBadGateway || err.StatusCode == http.StatusGatewayTimeout:
		errType = ErrorTypeDeviceError
	case err.StatusCode >= 400 && err.StatusCode < 500:
		errType = ErrorTypeInvalidRequest
	}
	return ErrorBody{
		Type:    errType,
		Code:    err.Code,
		Message: err.Message,
		Details: err.Details,
	}
}

func NewAppError(code ErrorCode, message string, statusCode int, details map[string]any) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

func NewValidationError(message string, details map[string]any) *AppError {
	return NewAppError(ErrorCodeValidationError, message, http.StatusBadRequest, details)
}

func NewUnauthorizedError(message string, code ...ErrorCode) *AppError {
	errCode := ErrorCodeUnauthorized
	if len(code) > 0 {
		errCode = code[0]
	}
	return NewAppError(errCode, message, http.StatusUnauthorized, nil)
}

// NewNotFoundResource reports a missing resource, optionally by id.
func NewNotFoundResource(resource, id string) *AppError {
	message := resource + " not found"
	details := map[string]any{
		"resource": resource,
	}
	if id != "" {
		message = resource + " not found: " + id
		details["id"] = id
	}
	return NewAppError(ErrorCodeNotFound, message, http.StatusNotFound, details)
}

func NewDeviceNotFoundError(id string) *AppError {
	return NewAppError(ErrorCodeDeviceNotFound, "device not found: "+id, http.StatusNotFound, map[string]any{"id": id})
}

func NewInternalError(message string) *AppError {
	return NewAppError(ErrorCodeInternalError, message, http.StatusInternalServerError, nil)
}

// EnsureAppError converts an arbitrary error into an AppError. Errors from
// the device library keep their meaning as gateway errors.
func EnsureAppError(err error) *AppError {
	if err == nil {
		return NewInternalError("Unknown error")
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	code, ok := stapperrors.CodeOf(err)
	if !ok {
		return wrap(NewInternalError("Internal server error"), err)
	}
	switch code {
	case stapperrors.ErrorCodeTimeout:
		return wrap(NewAppError(ErrorCodeDeviceTimeout, "device did not answer in time", http.StatusGatewayTimeout, nil), err)
	case stapperrors.ErrorCodeTransport:
		return wrap(NewAppError(ErrorCodeDeviceOffline, "device unreachable", http.StatusBadGateway, nil), err)
	case stapperrors.ErrorCodeRejected:
		return wrap(NewAppError(ErrorCodeDeviceRejected, "device rejected the request", http.StatusBadGateway, nil), err)
	case stapperrors.ErrorCodeParse:
		return wrap(NewAppError(ErrorCodeDevicePayload, "device sent an invalid payload", http.StatusBadGateway, nil), err)
	case stapperrors.ErrorCodeNoExistingZone, stapperrors.ErrorCodeNoSlaves,
		stapperrors.ErrorCodeAlreadyRunning, stapperrors.ErrorCodeNotRunning:
		return wrap(NewAppError(ErrorCodeConflict, err.Error(), http.StatusConflict, nil), err)
	case stapperrors.ErrorCodeInvalidURL:
		return wrap(NewValidationError(err.Error(), nil), err)
	}
	return wrap(NewInternalError("Internal server error"), err)
}

func wrap(appErr *AppError, cause error) *AppError {
	appErr.Err = cause
	return appErr
}
