package errors

import (
	sterrors "errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrRuntimeRequired     = sterrors.New("lambdaflow: runtime is required")
	ErrHandlerRequired     = sterrors.New("lambdaflow: handler function is required")
	ErrConfigRequired      = sterrors.New("lambdaflow: configuration is required")
	ErrLoggerRequired      = sterrors.New("lambdaflow: logger is required")
	ErrClientRequired      = sterrors.New("lambdaflow: runtime api client is required")
	ErrNoDecodeCapability  = sterrors.New("lambdaflow: input type has no decode capability")
	ErrInvalidHeaderMode   = sterrors.New("lambdaflow: invalid header mode")
	ErrEndpointRequired    = sterrors.New("lambdaflow: runtime api endpoint is required")
	ErrRequestIDRequired   = sterrors.New("lambdaflow: request id is required")
	ErrUnsupportedEncoding = sterrors.New("lambdaflow: value cannot be encoded")
	ErrUnknownSink         = sterrors.New("lambdaflow: unknown notification sink")
	ErrSinkTargetRequired  = sterrors.New("lambdaflow: notification sink target is required")
	ErrPublisherRequired   = sterrors.New("lambdaflow: publisher is required")
	ErrTopicRequired       = sterrors.New("lambdaflow: topic is required")
)

// Messages carried by DeserializationError values produced by the body decoder.
const (
	NoPayloadMessage    = "No payload defined"
	FailedPrefix        = "Failed"
	BadRequestPrefix    = "Bad Request"
	InternalErrorPrefix = "Internal Server Error"
)

// ConfigError reports environment variables that were missing or could not be
// parsed while building the runtime configuration.
type ConfigError struct {
	Missing []string
	Invalid map[string]error
}

func (e *ConfigError) Error() string {
	parts := make([]string, 0, 2)
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		keys := make([]string, 0, len(e.Invalid))
		for k := range e.Invalid {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		invalid := make([]string, 0, len(keys))
		for _, k := range keys {
			invalid = append(invalid, fmt.Sprintf("%s (%v)", k, e.Invalid[k]))
		}
		parts = append(parts, "invalid "+strings.Join(invalid, ", "))
	}
	if len(parts) == 0 {
		return "lambdaflow: invalid configuration"
	}
	return "lambdaflow: invalid configuration: " + strings.Join(parts, "; ")
}

// Unwrap exposes the parse failures so errors.Is can match them.
func (e *ConfigError) Unwrap() []error {
	if len(e.Invalid) == 0 {
		return nil
	}
	errs := make([]error, 0, len(e.Invalid))
	for _, err := range e.Invalid {
		errs = append(errs, err)
	}
	return errs
}

// AddInvalid records a value that could not be parsed.
func (e *ConfigError) AddInvalid(key string, err error) {
	if e.Invalid == nil {
		e.Invalid = make(map[string]error)
	}
	e.Invalid[key] = err
}

// Empty reports whether the error carries any problem at all.
func (e *ConfigError) Empty() bool {
	return e == nil || (len(e.Missing) == 0 && len(e.Invalid) == 0)
}

// APIErrorKind classifies control-plane failures.
type APIErrorKind string

const (
	KindNetwork  APIErrorKind = "network"
	KindStatus   APIErrorKind = "status"
	KindProtocol APIErrorKind = "protocol"
	KindEncoding APIErrorKind = "encoding"
)

// APIError is returned by every control-plane operation. It terminates the
// invocation loop.
type APIError struct {
	Kind       APIErrorKind
	Op         string
	StatusCode int
	RequestID  string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return fmt.Sprintf("lambdaflow: %s error during %s", e.Kind, e.Op)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsProtocol reports whether err is a protocol violation by the control plane.
func IsProtocol(err error) bool {
	var apiErr *APIError
	return sterrors.As(err, &apiErr) && apiErr.Kind == KindProtocol
}

// DeserializationError is reported when an incoming event cannot be turned
// into the handler input type.
type DeserializationError struct {
	Message string
	Err     error
}

func (e *DeserializationError) Error() string {
	return e.Message
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}

// ErrorType tags the error report sent to the control plane.
func (e *DeserializationError) ErrorType() string {
	return "Runtime.DeserializationError"
}

// NewNoPayloadError builds the error returned when an event has no body.
func NewNoPayloadError() *DeserializationError {
	return &DeserializationError{Message: NoPayloadMessage}
}

// NewDecodeError wraps a parse failure.
func NewDecodeError(cause error) *DeserializationError {
	return &DeserializationError{
		Message: fmt.Sprintf("%s: %v", FailedPrefix, cause),
		Err:     cause,
	}
}

// HandlerPanicError carries a recovered handler panic.
type HandlerPanicError struct {
	Value any
}

func (e *HandlerPanicError) Error() string {
	return fmt.Sprintf("handler panicked: %v", e.Value)
}

func (e *HandlerPanicError) ErrorType() string {
	return "Runtime.HandlerPanic"
}
