package helpers

import (
	"errors"
	"fmt"
	"sync"

	"quake-observer/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type ObserverError struct {
	Message string
	Cause   error
}

func (e *ObserverError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ObserverError) Unwrap() error {
	return e.Cause
}

// NetworkError is a transport failure: the request never produced a response.
type NetworkError struct{ ObserverError }

// DecodeError means the response body did not match the expected shape.
type DecodeError struct{ ObserverError }

// ConfigurationError is returned by config loading and validation.
type ConfigurationError struct{ ObserverError }

// HTTPError is a non-2xx response.
type HTTPError struct {
	ObserverError
	Status int
}

// InvalidFilterValueError is a non-finite filter value. Well-formed controls never produce one.
type InvalidFilterValueError struct {
	ObserverError
	Field string
	Value float64
}

// ErrStaleResponseDiscarded marks a response dropped because a newer request was issued.
// It is a normal outcome, never shown to the user.
var ErrStaleResponseDiscarded = errors.New("stale response discarded")

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func NewNetworkError(operation string, cause error) error {
	return &NetworkError{ObserverError{Message: fmt.Sprintf("%s failed", operation), Cause: cause}}
}

func NewDecodeError(operation string, cause error) error {
	return &DecodeError{ObserverError{Message: fmt.Sprintf("%s: unexpected response body", operation), Cause: cause}}
}

func NewHTTPError(operation string, status int) error {
	return &HTTPError{
		ObserverError: ObserverError{Message: fmt.Sprintf("%s: bad status %d", operation, status)},
		Status:        status,
	}
}

func NewInvalidFilterValueError(field string, value float64) error {
	return &InvalidFilterValueError{
		ObserverError: ObserverError{Message: fmt.Sprintf("invalid filter value for %s: %v", field, value)},
		Field:         field,
		Value:         value,
	}
}

func NewConfigurationError(format string, args ...interface{}) error {
	return &ConfigurationError{ObserverError{Message: fmt.Sprintf(format, args...)}}
}

// -----------------------------------------------------------------------------
// Classification
// -----------------------------------------------------------------------------

// Error kinds reported in status and journal records
const (
	KindNetwork      = "network"
	KindHTTP         = "http"
	KindDecode       = "decode"
	KindStale        = "stale"
	KindInvalidInput = "invalid_filter"
	KindUnknown      = "unknown"
)

// ErrorKind classifies err into one of the Kind constants. Nil maps to "".
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var netErr *NetworkError
	var httpErr *HTTPError
	var decErr *DecodeError
	var invErr *InvalidFilterValueError
	switch {
	case errors.Is(err, ErrStaleResponseDiscarded):
		return KindStale
	case errors.As(err, &httpErr):
		return KindHTTP
	case errors.As(err, &decErr):
		return KindDecode
	case errors.As(err, &netErr):
		return KindNetwork
	case errors.As(err, &invErr):
		return KindInvalidInput
	default:
		return KindUnknown
	}
}

// HTTPStatus returns the status carried by an HTTPError, or 0.
func HTTPStatus(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

// ErrorHandler logs failures and keeps a consecutive-failure count per operation.
type ErrorHandler struct {
	Logger *logger.Logger
	mu     sync.Mutex
	counts map[string]int
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	if log == nil {
		log = logger.NewLogger(nil, "ErrorHandler")
	}
	return &ErrorHandler{
		Logger: log,
		counts: make(map[string]int),
	}
}

// -----------------------------------------------------------------------------

// Handle records a failure of operation and logs it. Returns the consecutive failure count.
func (e *ErrorHandler) Handle(err error, operation string) int {
	if err == nil {
		return 0
	}
	e.mu.Lock()
	e.counts[operation]++
	n := e.counts[operation]
	e.mu.Unlock()

	e.Logger.Error("Error in %s (%s, consecutive=%d): %v", operation, ErrorKind(err), n, err)
	return n
}

// -----------------------------------------------------------------------------

// Recover resets the failure count of operation after a success.
func (e *ErrorHandler) Recover(operation string) {
	e.mu.Lock()
	prev := e.counts[operation]
	delete(e.counts, operation)
	e.mu.Unlock()

	if prev > 0 {
		e.Logger.Info("%s recovered after %d failures", operation, prev)
	}
}

// -----------------------------------------------------------------------------

// ErrorCount returns the consecutive failure count of operation.
func (e *ErrorHandler) ErrorCount(operation string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counts[operation]
}
