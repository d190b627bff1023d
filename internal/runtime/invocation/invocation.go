// Package invocation holds the per-invocation values exchanged between the
// control-plane client and the invocation loop.
package invocation

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/drblury/lambdaflow/internal/runtime/config"
)

// ExecutionContext describes one invocation. It is built from the headers of
// a fetch-next response and must not be retained once the invocation ends.
type ExecutionContext struct {
	RequestID string
	// Deadline is the epoch time in milliseconds by which the invocation
	// should finish. The loop never enforces it.
	Deadline           int64
	InvokedFunctionARN string
	XRayTraceID        string
	ClientContext      *lambdacontext.ClientContext
	Identity           *lambdacontext.CognitoIdentity
	Config             *config.Config
}

// DeadlineTime converts Deadline into a time.Time.
func (ec *ExecutionContext) DeadlineTime() time.Time {
	return time.UnixMilli(ec.Deadline)
}

// RemainingTime reports how long is left before the deadline, never negative.
func (ec *ExecutionContext) RemainingTime(now time.Time) time.Duration {
	left := ec.DeadlineTime().Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// FunctionName returns the configured function name, if any.
func (ec *ExecutionContext) FunctionName() string {
	if ec == nil || ec.Config == nil {
		return ""
	}
	return ec.Config.FunctionName
}

func (ec *ExecutionContext) String() string {
	return fmt.Sprintf("request_id=%s arn=%s trace=%s deadline=%d",
		ec.RequestID, ec.InvokedFunctionARN, ec.XRayTraceID, ec.Deadline)
}

// RawInvocation is an undecoded event together with its context.
type RawInvocation struct {
	Payload []byte
	Context *ExecutionContext
}

// ErrorReport is the body posted to the error endpoint.
type ErrorReport struct {
	ErrorType    string `json:"errorType"`
	ErrorMessage string `json:"errorMessage"`
}

// ErrorTyper lets an error choose the errorType reported for it.
type ErrorTyper interface {
	ErrorType() string
}

// ErrorTag returns err's ErrorType when it implements ErrorTyper and its Go
// type name otherwise.
func ErrorTag(err error) string {
	if typed, ok := err.(ErrorTyper); ok {
		if tag := typed.ErrorType(); tag != "" {
			return tag
		}
	}
	return fmt.Sprintf("%T", err)
}

// NewErrorReport builds the report for err.
func NewErrorReport(err error) ErrorReport {
	if err == nil {
		return ErrorReport{}
	}
	return ErrorReport{ErrorType: ErrorTag(err), ErrorMessage: err.Error()}
}

type contextKey struct{}

// NewContext attaches ec to ctx. The deadline is not applied; callers that
// want one use context.WithDeadline(ctx, ec.DeadlineTime()).
func NewContext(ctx context.Context, ec *ExecutionContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ec)
}

// FromContext returns the ExecutionContext stored by NewContext.
func FromContext(ctx context.Context) (*ExecutionContext, bool) {
	ec, ok := ctx.Value(contextKey{}).(*ExecutionContext)
	return ec, ok && ec != nil
}

// LambdaContext converts ec into the aws-lambda-go context value so code
// written against lambdacontext.FromContext keeps working.
func (ec *ExecutionContext) LambdaContext() *lambdacontext.LambdaContext {
	lc := &lambdacontext.LambdaContext{
		AwsRequestID:       ec.RequestID,
		InvokedFunctionArn: ec.InvokedFunctionARN,
	}
	if ec.ClientContext != nil {
		lc.ClientContext = *ec.ClientContext
	}
	if ec.Identity != nil {
		lc.Identity = *ec.Identity
	}
	return lc
}
