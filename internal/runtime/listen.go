package runtime

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/events"

	errspkg "github.com/drblury/lambdaflow/internal/runtime/errors"
	"github.com/drblury/lambdaflow/internal/runtime/handlers"
	"github.com/drblury/lambdaflow/internal/runtime/invocation"
	"github.com/drblury/lambdaflow/internal/runtime/response"
)

// HandlerFunc handles one decoded event. A returned error is reported to the
// control plane as an invocation error.
type HandlerFunc[I, O any] func(ctx context.Context, in I, ec *invocation.ExecutionContext) (O, error)

// ALBHandlerFunc handles one load-balancer request. Its output is turned
// into a response by the encoder for O.
type ALBHandlerFunc[I, O any] func(ctx context.Context, in I) O

// ListenEvents runs the loop with payloads decoded as JSON into I. Decode
// failures and handler errors are published as invocation errors and polling
// continues.
func ListenEvents[I, O any](ctx context.Context, rt *Runtime, handler HandlerFunc[I, O]) error {
	if rt == nil {
		return errspkg.ErrRuntimeRequired
	}
	if handler == nil {
		return errspkg.ErrHandlerRequired
	}

	return rt.serve(ctx, func(ctx context.Context, raw *invocation.RawInvocation) processed {
		in, err := handlers.DecodeJSON[I](raw.Payload)
		if err != nil {
			return failed(OutcomeDecodeError, err)
		}
		out, err := safeCall(func() (O, error) { return handler(ctx, in, raw.Context) })
		if err != nil {
			return failed(OutcomeHandlerError, err)
		}
		return processed{payload: out, outcome: OutcomeSuccess}
	})
}

// ListenALBEvents runs the loop for load-balancer targets, resolving the
// decode strategy for I and the encode strategy for O up front.
func ListenALBEvents[I, O any](ctx context.Context, rt *Runtime, handler ALBHandlerFunc[I, O]) error {
	dec, err := handlers.DecoderFor[I]()
	if err != nil {
		return err
	}
	return ListenALBEventsWith(ctx, rt, dec, handlers.EncoderFor[O](), handler)
}

// ListenALBEventsWith is ListenALBEvents with explicit strategies. A request
// body that cannot be decoded is answered with a 400 response; a handler
// panic with a 500 response.
func ListenALBEventsWith[I, O any](ctx context.Context, rt *Runtime, dec handlers.Decoder[I], enc handlers.Encoder[O], handler ALBHandlerFunc[I, O]) error {
	if rt == nil {
		return errspkg.ErrRuntimeRequired
	}
	if handler == nil {
		return errspkg.ErrHandlerRequired
	}
	builder := enc.Builder()

	return rt.serve(ctx, func(ctx context.Context, raw *invocation.RawInvocation) processed {
		req, err := handlers.DecodeJSON[events.ALBTargetGroupRequest](raw.Payload)
		if err != nil {
			return failed(OutcomeDecodeError, err)
		}

		in, err := dec.FromRawEvent(req, raw.Context)
		if err != nil {
			resp := builder.AsPlainText(400, response.Text(errspkg.BadRequestPrefix+" "+err.Error()))
			return processed{payload: resp, outcome: OutcomeDecodeError, err: err}
		}

		out, err := safeCall(func() (O, error) { return handler(ctx, in), nil })
		if err != nil {
			resp := builder.AsPlainText(500, response.Text(fmt.Sprintf("%s: %v", errspkg.InternalErrorPrefix, err)))
			return processed{payload: resp, outcome: OutcomeHandlerError, err: err}
		}
		return processed{payload: enc.ToResponse(out), outcome: OutcomeSuccess}
	})
}

// safeCall runs fn and turns a panic into *errors.HandlerPanicError.
func safeCall[O any](fn func() (O, error)) (out O, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero O
			out, err = zero, &errspkg.HandlerPanicError{Value: r}
		}
	}()
	return fn()
}
