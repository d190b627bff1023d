// Package handlers turns raw load-balancer events into handler inputs and
// handler outputs into normalized responses. Strategies are picked once per
// handler type when it is registered.
package handlers

import (
	"encoding/base64"
	"fmt"
	"reflect"

	"github.com/aws/aws-lambda-go/events"

	errspkg "github.com/drblury/lambdaflow/internal/runtime/errors"
	"github.com/drblury/lambdaflow/internal/runtime/invocation"
	"github.com/drblury/lambdaflow/internal/runtime/jsoncodec"
)

// DecodeKind names a deserialization strategy.
type DecodeKind uint8

const (
	// DecodePassthrough hands the ALB request to the handler as is.
	DecodePassthrough DecodeKind = iota + 1
	// DecodeBody parses the request body as JSON into the input type.
	DecodeBody
)

func (k DecodeKind) String() string {
	switch k {
	case DecodePassthrough:
		return "passthrough"
	case DecodeBody:
		return "body"
	default:
		return fmt.Sprintf("DecodeKind(%d)", uint8(k))
	}
}

// RPCRequest marks input types whose value is carried in the request body.
type RPCRequest interface {
	RPCRequest()
}

var (
	albRequestType = reflect.TypeFor[events.ALBTargetGroupRequest]()
	rpcRequestType = reflect.TypeFor[RPCRequest]()
)

// Decoder converts an ALB request into T.
type Decoder[T any] struct {
	kind DecodeKind
}

func (d Decoder[T]) Kind() DecodeKind {
	return d.kind
}

// DecoderFor resolves the strategy for T: passthrough for the ALB request
// type itself, body decoding for RPCRequest implementations.
func DecoderFor[T any]() (Decoder[T], error) {
	typ := reflect.TypeFor[T]()
	switch {
	case typ == albRequestType:
		return Decoder[T]{kind: DecodePassthrough}, nil
	case implements(typ, rpcRequestType):
		return Decoder[T]{kind: DecodeBody}, nil
	default:
		return Decoder[T]{}, fmt.Errorf("%w: %s", errspkg.ErrNoDecodeCapability, typ)
	}
}

// BodyDecoder selects body decoding for T without the RPCRequest marker.
func BodyDecoder[T any]() Decoder[T] {
	return Decoder[T]{kind: DecodeBody}
}

// PassthroughDecoder returns the identity decoder.
func PassthroughDecoder() Decoder[events.ALBTargetGroupRequest] {
	return Decoder[events.ALBTargetGroupRequest]{kind: DecodePassthrough}
}

// FromRawEvent never touches ec beyond reading it; errors are always
// *errors.DeserializationError.
func (d Decoder[T]) FromRawEvent(raw events.ALBTargetGroupRequest, _ *invocation.ExecutionContext) (T, error) {
	var zero T
	switch d.kind {
	case DecodePassthrough:
		out, ok := any(raw).(T)
		if !ok {
			return zero, errspkg.NewDecodeError(fmt.Errorf("%T is not %s", zero, albRequestType))
		}
		return out, nil
	case DecodeBody:
		return decodeBody[T](raw)
	default:
		return zero, errspkg.NewDecodeError(errspkg.ErrNoDecodeCapability)
	}
}

func decodeBody[T any](raw events.ALBTargetGroupRequest) (T, error) {
	var zero T
	// The event carries the body as a plain string, so empty means absent.
	if raw.Body == "" {
		return zero, errspkg.NewNoPayloadError()
	}

	data := []byte(raw.Body)
	if raw.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(raw.Body)
		if err != nil {
			return zero, errspkg.NewDecodeError(err)
		}
		data = decoded
	}

	return DecodeJSON[T](data)
}

// DecodeJSON parses data into T with protojson for proto messages and sonic
// otherwise. Empty input is reported as a missing payload.
func DecodeJSON[T any](data []byte) (T, error) {
	var zero T
	if len(data) == 0 {
		return zero, errspkg.NewNoPayloadError()
	}
	out, target := newTarget[T]()
	if err := jsoncodec.UnmarshalValue(data, target); err != nil {
		return zero, errspkg.NewDecodeError(err)
	}
	return out(), nil
}

// newTarget allocates storage for T and returns the value to hand to the
// decoder together with an accessor for the result. Pointer types get a fresh
// element so proto messages decode into a usable message.
func newTarget[T any]() (func() T, any) {
	typ := reflect.TypeFor[T]()
	if typ.Kind() == reflect.Pointer {
		ptr := reflect.New(typ.Elem())
		return func() T { return ptr.Interface().(T) }, ptr.Interface()
	}
	v := new(T)
	return func() T { return *v }, v
}

func implements(typ, iface reflect.Type) bool {
	if typ.Implements(iface) {
		return true
	}
	return typ.Kind() != reflect.Pointer && reflect.PointerTo(typ).Implements(iface)
}
