package runtime

import (
	"context"
	"time"

	loggingpkg "github.com/drblury/lambdaflow/internal/runtime/logging"
)

// Outcome classifies how an invocation ended.
type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeHandlerError Outcome = "handler_error"
	OutcomeDecodeError  Outcome = "decode_error"
)

// InvocationInfo describes one invocation to hooks.
type InvocationInfo struct {
	// RequestID is the control plane's id for the invocation.
	RequestID   string
	FunctionARN string
	TraceID     string
	// FunctionName comes from the runtime configuration.
	FunctionName string
	// Context is the context the handler runs with.
	Context   context.Context
	StartedAt time.Time
	// Duration is only set in OnInvocationDone and OnInvocationError.
	Duration time.Duration
	// Deadline is informational; the loop never enforces it.
	Deadline time.Time
	// Outcome is only set in OnInvocationDone and OnInvocationError.
	Outcome Outcome
}

// InvocationHooks defines callbacks for the invocation lifecycle.
// All hooks are optional - nil hooks are simply not called.
type InvocationHooks struct {
	// OnInvocationStart is called after the event has been fetched and before
	// it is decoded.
	OnInvocationStart func(info InvocationInfo)

	// OnInvocationDone is called after a successful invocation has been
	// published.
	OnInvocationDone func(info InvocationInfo)

	// OnInvocationError is called after a failed invocation has been
	// published. The decode or handler failure is the second argument.
	OnInvocationError func(info InvocationInfo, err error)
}

// Merge combines two InvocationHooks. The hooks from other run after the
// hooks from h.
func (h InvocationHooks) Merge(other InvocationHooks) InvocationHooks {
	return InvocationHooks{
		OnInvocationStart: chainInfoHooks(h.OnInvocationStart, other.OnInvocationStart),
		OnInvocationDone:  chainInfoHooks(h.OnInvocationDone, other.OnInvocationDone),
		OnInvocationError: chainErrorHooks(h.OnInvocationError, other.OnInvocationError),
	}
}

func (h InvocationHooks) start(info InvocationInfo) {
	if h.OnInvocationStart != nil {
		h.OnInvocationStart(info)
	}
}

func (h InvocationHooks) finish(info InvocationInfo, err error) {
	if err != nil {
		if h.OnInvocationError != nil {
			h.OnInvocationError(info, err)
		}
		return
	}
	if h.OnInvocationDone != nil {
		h.OnInvocationDone(info)
	}
}

func chainInfoHooks(a, b func(InvocationInfo)) func(InvocationInfo) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(info InvocationInfo) {
		a(info)
		b(info)
	}
}

func chainErrorHooks(a, b func(InvocationInfo, error)) func(InvocationInfo, error) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(info InvocationInfo, err error) {
		a(info, err)
		b(info, err)
	}
}

// LoggingHooks returns hooks that log the invocation lifecycle at debug level
// and failures at error level.
func LoggingHooks(logger loggingpkg.ServiceLogger) InvocationHooks {
	return InvocationHooks{
		OnInvocationStart: func(info InvocationInfo) {
			logger.Debug("Invocation started", infoFields(info))
		},
		OnInvocationDone: func(info InvocationInfo) {
			fields := infoFields(info)
			fields[loggingpkg.FieldOutcome] = string(info.Outcome)
			fields[loggingpkg.FieldDuration] = info.Duration.Milliseconds()
			logger.Debug("Invocation completed", fields)
		},
		OnInvocationError: func(info InvocationInfo, err error) {
			fields := infoFields(info)
			fields[loggingpkg.FieldOutcome] = string(info.Outcome)
			fields[loggingpkg.FieldDuration] = info.Duration.Milliseconds()
			logger.Error("Invocation failed", err, fields)
		},
	}
}

func infoFields(info InvocationInfo) loggingpkg.LogFields {
	return loggingpkg.LogFields{
		loggingpkg.FieldRequestID:    info.RequestID,
		loggingpkg.FieldFunctionARN:  info.FunctionARN,
		loggingpkg.FieldTraceID:      info.TraceID,
		loggingpkg.FieldFunctionName: info.FunctionName,
	}
}

// MetricsHooks returns hooks that record invocation outcomes on m. A nil m
// yields hooks that do nothing.
func MetricsHooks(m *Metrics) InvocationHooks {
	return InvocationHooks{
		OnInvocationDone: func(info InvocationInfo) {
			m.ObserveInvocation(info.Outcome, info.Duration)
		},
		OnInvocationError: func(info InvocationInfo, _ error) {
			m.ObserveInvocation(info.Outcome, info.Duration)
		},
	}
}

// AlertingHooks returns hooks that call alertFunc on failed invocations.
func AlertingHooks(alertFunc func(info InvocationInfo, err error)) InvocationHooks {
	return InvocationHooks{
		OnInvocationError: alertFunc,
	}
}
