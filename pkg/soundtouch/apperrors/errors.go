package apperrors

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Codes
// =============================================================================

type ErrorCode string

const (
	ErrorCodeTransport      ErrorCode = "TRANSPORT_ERROR"
	ErrorCodeTimeout        ErrorCode = "TIMEOUT"
	ErrorCodeRejected       ErrorCode = "DEVICE_REJECTED"
	ErrorCodeParse          ErrorCode = "PARSE_ERROR"
	ErrorCodeListener       ErrorCode = "LISTENER_ERROR"
	ErrorCodeNoExistingZone ErrorCode = "NO_EXISTING_ZONE"
	ErrorCodeNoSlaves       ErrorCode = "NO_SLAVES"
	ErrorCodeInvalidURL     ErrorCode = "INVALID_URL"
	ErrorCodeAlreadyRunning ErrorCode = "ALREADY_RUNNING"
	ErrorCodeNotRunning     ErrorCode = "NOT_RUNNING"
)

// Sentinel errors for conditions that carry no extra context.
// Compare with errors.Is; an AppError with the same code matches too.
var (
	ErrNoExistingZone = &AppError{Code: ErrorCodeNoExistingZone, Message: "no existing zone"}
	ErrNoSlaves       = &AppError{Code: ErrorCodeNoSlaves, Message: "no slaves given"}
	ErrInvalidURL     = &AppError{Code: ErrorCodeInvalidURL, Message: "only http:// URLs can be played"}
	ErrAlreadyRunning = &AppError{Code: ErrorCodeAlreadyRunning, Message: "notification connection already running"}
	ErrNotRunning     = &AppError{Code: ErrorCodeNotRunning, Message: "notification connection not running"}
)

// AppError is the base error type of the library.
type AppError struct {
	Code    ErrorCode
	Op      string
	Message string
	Err     error
}

func (err *AppError) Error() string {
	switch {
	case err.Op != "" && err.Err != nil:
		return fmt.Sprintf("%s: %s: %v", err.Op, err.Message, err.Err)
	case err.Op != "":
		return fmt.Sprintf("%s: %s", err.Op, err.Message)
	case err.Err != nil:
		return fmt.Sprintf("%s: %v", err.Message, err.Err)
	}
	return err.Message
}

func (err *AppError) Unwrap() error {
	return err.Err
}

// Is reports whether target is an AppError with the same code.
func (err *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == err.Code
}

func NewAppError(code ErrorCode, op, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Op:      op,
		Message: message,
		Err:     cause,
	}
}

// NewTransportError wraps a connection or socket failure.
func NewTransportError(op string, cause error) *AppError {
	return NewAppError(ErrorCodeTransport, op, "transport failure", cause)
}

// NewTimeoutError reports a request that exceeded its deadline.
func NewTimeoutError(op string, cause error) *AppError {
	return NewAppError(ErrorCodeTimeout, op, "request timed out", cause)
}

// NewRejectedError reports a non-2xx answer from the device.
func NewRejectedError(op string, status int) *AppError {
	return NewAppError(ErrorCodeRejected, op, fmt.Sprintf("device answered http %d", status), nil)
}

// NewParseError reports malformed or structurally unexpected XML.
func NewParseError(what string, cause error) *AppError {
	return NewAppError(ErrorCodeParse, "parse "+what, "invalid payload", cause)
}

// ListenerError is produced when an application callback panics during dispatch.
type ListenerError struct {
	Category   string
	ListenerID string
	Recovered  any
}

func (err *ListenerError) Error() string {
	return fmt.Sprintf("%s listener %s panicked: %v", err.Category, err.ListenerID, err.Recovered)
}

// Is lets errors.Is match any ListenerError against a listener-coded AppError.
func (err *ListenerError) Is(target error) bool {
	var other *AppError
	if errors.As(target, &other) {
		return other.Code == ErrorCodeListener
	}
	return false
}

// ErrListener matches every ListenerError via errors.Is.
var ErrListener = &AppError{Code: ErrorCodeListener, Message: "listener fault"}

// CodeOf returns the ErrorCode of the first AppError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}
	var listenerErr *ListenerError
	if errors.As(err, &listenerErr) {
		return ErrorCodeListener, true
	}
	return "", false
}

// IsTransport reports whether err is a transport or timeout failure.
func IsTransport(err error) bool {
	code, ok := CodeOf(err)
	return ok && (code == ErrorCodeTransport || code == ErrorCodeTimeout)
}

// IsParse reports whether err is a parse failure.
func IsParse(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrorCodeParse
}
