package lambdaflow

import (
	"context"

	runtimepkg "github.com/drblury/lambdaflow/internal/runtime"
	configpkg "github.com/drblury/lambdaflow/internal/runtime/config"
	errspkg "github.com/drblury/lambdaflow/internal/runtime/errors"
	handlerpkg "github.com/drblury/lambdaflow/internal/runtime/handlers"
	headerspkg "github.com/drblury/lambdaflow/internal/runtime/headers"
	idspkg "github.com/drblury/lambdaflow/internal/runtime/ids"
	"github.com/drblury/lambdaflow/internal/runtime/invocation"
	jsoncodec "github.com/drblury/lambdaflow/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/lambdaflow/internal/runtime/logging"
	responsepkg "github.com/drblury/lambdaflow/internal/runtime/response"
	transportpkg "github.com/drblury/lambdaflow/internal/runtime/transport"
)

type (
	Config              = configpkg.Config
	Runtime             = runtimepkg.Runtime
	RuntimeDependencies = runtimepkg.RuntimeDependencies
	ControlPlane        = runtimepkg.ControlPlane
	TransportFactory    = transportpkg.Factory

	HandlerFunc[I, O any]    = runtimepkg.HandlerFunc[I, O]
	ALBHandlerFunc[I, O any] = runtimepkg.ALBHandlerFunc[I, O]

	ExecutionContext = invocation.ExecutionContext
	RawInvocation    = invocation.RawInvocation
	ErrorReport      = invocation.ErrorReport

	Result[T any]      = handlerpkg.Result[T]
	Decoder[T any]     = handlerpkg.Decoder[T]
	Encoder[O any]     = handlerpkg.Encoder[O]
	RPCRequest         = handlerpkg.RPCRequest
	ResponseSerializer = handlerpkg.ResponseSerializer

	Response     = responsepkg.Response
	Body         = responsepkg.Body
	Builder      = responsepkg.Builder
	HeaderMode   = responsepkg.HeaderMode
	Headers      = headerspkg.Single
	MultiHeaders = headerspkg.Multi

	LogFields                 = loggingpkg.LogFields
	ServiceLogger             = loggingpkg.ServiceLogger
	LoggerOptions             = loggingpkg.Options
	EntryLoggerAdapter[T any] = loggingpkg.EntryLoggerAdapter[T]

	// Invocation lifecycle hooks
	Outcome         = runtimepkg.Outcome
	InvocationInfo  = runtimepkg.InvocationInfo
	InvocationHooks = runtimepkg.InvocationHooks
	Metrics         = runtimepkg.Metrics

	// Outcome notifications
	InvocationRecord    = runtimepkg.InvocationRecord
	NotificationOptions = runtimepkg.NotificationOptions

	ConfigError          = errspkg.ConfigError
	APIError             = errspkg.APIError
	APIErrorKind         = errspkg.APIErrorKind
	DeserializationError = errspkg.DeserializationError
	HandlerPanicError    = errspkg.HandlerPanicError
)

var (
	LoadConfig     = configpkg.Load
	ValidateConfig = configpkg.ValidateConfig
	NewRuntime     = runtimepkg.NewRuntime

	LoggingHooks      = runtimepkg.LoggingHooks
	MetricsHooks      = runtimepkg.MetricsHooks
	AlertingHooks     = runtimepkg.AlertingHooks
	NotificationHooks = runtimepkg.NotificationHooks
	NewMetrics        = runtimepkg.NewMetrics

	DefaultTransportFactory = transportpkg.DefaultFactory

	NewBuilder         = responsepkg.NewBuilder
	DefaultBuilder     = responsepkg.Default
	Text               = responsepkg.Text
	Build              = responsepkg.Build
	WithContentType    = responsepkg.WithContentType
	AsJSON             = responsepkg.AsJSON
	AsPlainText        = responsepkg.AsPlainText
	FromSerializable   = responsepkg.FromSerializable
	PassthroughDecoder = handlerpkg.PassthroughDecoder

	NewHeaders = headerspkg.New

	NewErrorReport = invocation.NewErrorReport
	IsProtocol     = errspkg.IsProtocol

	Marshal   = jsoncodec.Marshal
	Unmarshal = jsoncodec.Unmarshal

	ErrRuntimeRequired    = errspkg.ErrRuntimeRequired
	ErrHandlerRequired    = errspkg.ErrHandlerRequired
	ErrConfigRequired     = errspkg.ErrConfigRequired
	ErrNoDecodeCapability = errspkg.ErrNoDecodeCapability
	ErrInvalidHeaderMode  = errspkg.ErrInvalidHeaderMode
	ErrUnknownSink        = errspkg.ErrUnknownSink
	ErrPublisherRequired  = errspkg.ErrPublisherRequired
	ErrTopicRequired      = errspkg.ErrTopicRequired

	NewDefaultLogger     = loggingpkg.NewDefaultLogger
	NewLogrusLogger      = loggingpkg.NewLogrusLogger
	NewSlogServiceLogger = loggingpkg.NewSlogServiceLogger
	NopLogger            = loggingpkg.Nop

	CreateULID = idspkg.CreateULID
)

// Header modes for NewBuilder.
const (
	SingleValueHeaders = responsepkg.SingleValue
	MultiValueHeaders  = responsepkg.MultiValue
)

const (
	OutcomeSuccess      = runtimepkg.OutcomeSuccess
	OutcomeHandlerError = runtimepkg.OutcomeHandlerError
	OutcomeDecodeError  = runtimepkg.OutcomeDecodeError
)

func Ok[T any](v T) Result[T] {
	return handlerpkg.Ok(v)
}

func Err[T any](cause error) Result[T] {
	return handlerpkg.Err[T](cause)
}

func DecoderFor[T any]() (Decoder[T], error) {
	return handlerpkg.DecoderFor[T]()
}

func BodyDecoder[T any]() Decoder[T] {
	return handlerpkg.BodyDecoder[T]()
}

func EncoderFor[O any]() Encoder[O] {
	return handlerpkg.EncoderFor[O]()
}

func EncoderWith[O any](b Builder) Encoder[O] {
	return handlerpkg.EncoderWith[O](b)
}

func FromOptional[T any](status int, value *T) Response {
	return responsepkg.FromOptional(status, value)
}

func NewEntryServiceLogger[T EntryLoggerAdapter[T]](entry T) ServiceLogger {
	return loggingpkg.NewEntryServiceLogger(entry)
}

func ListenEvents[I, O any](ctx context.Context, rt *Runtime, handler HandlerFunc[I, O]) error {
	return runtimepkg.ListenEvents(ctx, rt, handler)
}

func ListenALBEvents[I, O any](ctx context.Context, rt *Runtime, handler ALBHandlerFunc[I, O]) error {
	return runtimepkg.ListenALBEvents(ctx, rt, handler)
}

func ListenALBEventsWith[I, O any](ctx context.Context, rt *Runtime, dec Decoder[I], enc Encoder[O], handler ALBHandlerFunc[I, O]) error {
	return runtimepkg.ListenALBEventsWith(ctx, rt, dec, enc, handler)
}

// Start loads the configuration from the environment, serves handler until
// the context is cancelled or the runtime API fails, and closes the runtime.
func Start[I, O any](ctx context.Context, handler HandlerFunc[I, O]) error {
	rt, err := newEnvRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()
	return ListenEvents(ctx, rt, handler)
}

// StartALB is Start for load balancer target group handlers.
func StartALB[I, O any](ctx context.Context, handler ALBHandlerFunc[I, O]) error {
	rt, err := newEnvRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()
	return ListenALBEvents(ctx, rt, handler)
}

func newEnvRuntime() (*Runtime, error) {
	conf, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return NewRuntime(conf, nil, RuntimeDependencies{})
}
