package invocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/lambdaflow/internal/runtime/config"
	errspkg "github.com/drblury/lambdaflow/internal/runtime/errors"
)

func TestDeadlineHelpers(t *testing.T) {
	start := time.UnixMilli(1_700_000_000_000)
	ec := &ExecutionContext{Deadline: start.Add(3 * time.Second).UnixMilli()}

	assert.True(t, ec.DeadlineTime().Equal(start.Add(3*time.Second)))
	assert.Equal(t, 3*time.Second, ec.RemainingTime(start))
	assert.Equal(t, time.Duration(0), ec.RemainingTime(start.Add(time.Minute)))
}

func TestFunctionName(t *testing.T) {
	var nilCtx *ExecutionContext
	assert.Equal(t, "", nilCtx.FunctionName())

	ec := &ExecutionContext{Config: &config.Config{FunctionName: "orders"}}
	assert.Equal(t, "orders", ec.FunctionName())
}

func TestContextRoundTrip(t *testing.T) {
	ec := &ExecutionContext{RequestID: "0000-0001"}
	ctx := NewContext(context.Background(), ec)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, ec, got)

	_, deadlineSet := ctx.Deadline()
	assert.False(t, deadlineSet, "the deadline must stay informational")

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}

type taggedError struct{}

func (taggedError) Error() string     { return "not implemented" }
func (taggedError) ErrorType() string { return "Orders.NotImplemented" }

func TestErrorReport(t *testing.T) {
	report := NewErrorReport(errors.New("Not implemented"))
	assert.Equal(t, "*errors.errorString", report.ErrorType)
	assert.Equal(t, "Not implemented", report.ErrorMessage)

	report = NewErrorReport(taggedError{})
	assert.Equal(t, "Orders.NotImplemented", report.ErrorType)

	report = NewErrorReport(errspkg.NewNoPayloadError())
	assert.Equal(t, "Runtime.DeserializationError", report.ErrorType)
	assert.Equal(t, "No payload defined", report.ErrorMessage)

	assert.Equal(t, ErrorReport{}, NewErrorReport(nil))
}

func TestLambdaContext(t *testing.T) {
	ec := &ExecutionContext{
		RequestID:          "req",
		InvokedFunctionARN: "arn:aws:lambda:eu-west-1:123:function:orders",
		Identity:           &lambdacontext.CognitoIdentity{CognitoIdentityID: "id-1"},
	}
	lc := ec.LambdaContext()
	assert.Equal(t, "req", lc.AwsRequestID)
	assert.Equal(t, ec.InvokedFunctionARN, lc.InvokedFunctionArn)
	assert.Equal(t, "id-1", lc.Identity.CognitoIdentityID)
}
