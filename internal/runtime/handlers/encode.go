package handlers

import (
	"fmt"
	"reflect"

	errspkg "github.com/drblury/lambdaflow/internal/runtime/errors"
	"github.com/drblury/lambdaflow/internal/runtime/response"
)

// EncodeKind names a serialization strategy.
type EncodeKind uint8

const (
	EncodePassthrough EncodeKind = iota + 1
	EncodeResultWrapper
	EncodeCustom
	EncodeErrorCarrier
	EncodeGenericSerializable
)

func (k EncodeKind) String() string {
	switch k {
	case EncodePassthrough:
		return "passthrough"
	case EncodeResultWrapper:
		return "result"
	case EncodeCustom:
		return "custom"
	case EncodeErrorCarrier:
		return "error"
	case EncodeGenericSerializable:
		return "serializable"
	default:
		return fmt.Sprintf("EncodeKind(%d)", uint8(k))
	}
}

// ResponseSerializer lets an output type build its own response.
type ResponseSerializer interface {
	ToResponse() response.Response
}

var (
	responseType   = reflect.TypeFor[response.Response]()
	serializerType = reflect.TypeFor[ResponseSerializer]()
	errorType      = reflect.TypeFor[error]()
	resultType     = reflect.TypeFor[resultCarrier]()
)

// Encoder converts handler outputs of type O into responses.
type Encoder[O any] struct {
	kind    EncodeKind
	builder response.Builder
}

// EncoderFor resolves the strategy for O with the default header mode.
func EncoderFor[O any]() Encoder[O] {
	return EncoderWith[O](response.Default())
}

// EncoderWith resolves the strategy for O and builds responses with b.
func EncoderWith[O any](b response.Builder) Encoder[O] {
	typ := reflect.TypeFor[O]()
	var kind EncodeKind
	switch {
	case typ == responseType:
		kind = EncodePassthrough
	case typ.Implements(resultType):
		kind = EncodeResultWrapper
	case implements(typ, serializerType):
		kind = EncodeCustom
	case typ.Implements(errorType):
		kind = EncodeErrorCarrier
	default:
		kind = EncodeGenericSerializable
	}
	return Encoder[O]{kind: kind, builder: b}
}

func (e Encoder[O]) Kind() EncodeKind {
	return e.kind
}

// Builder returns the response builder the encoder writes with.
func (e Encoder[O]) Builder() response.Builder {
	return e.builder
}

// ToResponse always returns a valid response. A panic while encoding becomes
// a 500 plain-text response.
func (e Encoder[O]) ToResponse(v O) (resp response.Response) {
	defer func() {
		if r := recover(); r != nil {
			resp = e.builder.AsPlainText(500, response.Text(fmt.Sprintf("%s: %v", errspkg.InternalErrorPrefix, r)))
		}
	}()

	switch e.kind {
	case EncodePassthrough:
		return any(v).(response.Response)
	case EncodeResultWrapper:
		value, err := any(v).(resultCarrier).parts()
		if err != nil {
			return e.builder.AsPlainText(500, response.Text(fmt.Sprintf("%s: %#v", errspkg.InternalErrorPrefix, err)))
		}
		return e.serialize(value)
	case EncodeCustom:
		if s, ok := any(v).(ResponseSerializer); ok && !isNil(s) {
			return s.ToResponse()
		}
		if s, ok := any(&v).(ResponseSerializer); ok {
			return s.ToResponse()
		}
		return e.builder.Build(200, nil, nil)
	case EncodeErrorCarrier:
		err, _ := any(v).(error)
		if err == nil || isNil(err) {
			return e.builder.Build(200, nil, nil)
		}
		return e.builder.AsPlainText(500, response.Text(err.Error()))
	default:
		return e.serialize(v)
	}
}

// serialize always produces a JSON body; nil values encode as null.
func (e Encoder[O]) serialize(v any) response.Response {
	return e.builder.FromSerializable(200, v)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
