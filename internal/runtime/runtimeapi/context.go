package runtimeapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/drblury/lambdaflow/internal/runtime/config"
	errspkg "github.com/drblury/lambdaflow/internal/runtime/errors"
	"github.com/drblury/lambdaflow/internal/runtime/invocation"
	"github.com/drblury/lambdaflow/internal/runtime/jsoncodec"
)

// Headers sent by the control plane with every fetch-next response.
const (
	HeaderRequestID          = "Lambda-Runtime-Aws-Request-Id"
	HeaderDeadlineMS         = "Lambda-Runtime-Deadline-Ms"
	HeaderInvokedFunctionARN = "Lambda-Runtime-Invoked-Function-Arn"
	HeaderTraceID            = "Lambda-Runtime-Trace-Id"
	HeaderClientContext      = "Lambda-Runtime-Client-Context"
	HeaderCognitoIdentity    = "Lambda-Runtime-Cognito-Identity"
)

// ExtractContext builds the ExecutionContext from fetch-next headers. A
// missing or malformed header is a protocol error carrying the request id
// when one was sent.
func ExtractContext(h http.Header, cfg *config.Config) (*invocation.ExecutionContext, error) {
	requestID := strings.TrimSpace(h.Get(HeaderRequestID))
	protocolErr := func(msg string, err error) error {
		return &errspkg.APIError{
			Kind:      errspkg.KindProtocol,
			Op:        opNext,
			RequestID: requestID,
			Message:   msg,
			Err:       err,
		}
	}

	if requestID == "" {
		return nil, protocolErr("missing header "+HeaderRequestID, errspkg.ErrRequestIDRequired)
	}

	ec := &invocation.ExecutionContext{RequestID: requestID, Config: cfg}

	rawDeadline := strings.TrimSpace(h.Get(HeaderDeadlineMS))
	if rawDeadline == "" {
		return nil, protocolErr("missing header "+HeaderDeadlineMS, nil)
	}
	deadline, err := strconv.ParseInt(rawDeadline, 10, 64)
	if err != nil {
		return nil, protocolErr("invalid header "+HeaderDeadlineMS, err)
	}
	ec.Deadline = deadline

	if ec.InvokedFunctionARN = h.Get(HeaderInvokedFunctionARN); ec.InvokedFunctionARN == "" {
		return nil, protocolErr("missing header "+HeaderInvokedFunctionARN, nil)
	}
	if ec.XRayTraceID = h.Get(HeaderTraceID); ec.XRayTraceID == "" {
		return nil, protocolErr("missing header "+HeaderTraceID, nil)
	}

	if raw := h.Get(HeaderClientContext); raw != "" {
		var cc lambdacontext.ClientContext
		if err := jsoncodec.Unmarshal([]byte(raw), &cc); err != nil {
			return nil, protocolErr("invalid header "+HeaderClientContext, err)
		}
		ec.ClientContext = &cc
	}
	if raw := h.Get(HeaderCognitoIdentity); raw != "" {
		var identity lambdacontext.CognitoIdentity
		if err := jsoncodec.Unmarshal([]byte(raw), &identity); err != nil {
			return nil, protocolErr("invalid header "+HeaderCognitoIdentity, err)
		}
		ec.Identity = &identity
	}

	return ec, nil
}
