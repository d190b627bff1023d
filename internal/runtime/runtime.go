package runtime

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	configpkg "github.com/drblury/lambdaflow/internal/runtime/config"
	errspkg "github.com/drblury/lambdaflow/internal/runtime/errors"
	"github.com/drblury/lambdaflow/internal/runtime/invocation"
	loggingpkg "github.com/drblury/lambdaflow/internal/runtime/logging"
	"github.com/drblury/lambdaflow/internal/runtime/runtimeapi"
	transportpkg "github.com/drblury/lambdaflow/internal/runtime/transport"
)

// InvalidInvocationContextType is the error type reported for events whose
// headers could not be turned into an execution context.
const InvalidInvocationContextType = "Runtime.InvalidInvocationContext"

// ControlPlane is the subset of the runtime API the loop drives.
// *runtimeapi.Client implements it.
type ControlPlane interface {
	FetchNext(ctx context.Context) (*invocation.RawInvocation, error)
	PublishResponse(ctx context.Context, requestID string, payload any) error
	PublishError(ctx context.Context, requestID string, report invocation.ErrorReport) error
}

// RuntimeDependencies holds the optional collaborators of a Runtime. Leave
// fields nil to get the defaults.
type RuntimeDependencies struct {
	// Client replaces the runtime API client built from the configuration.
	Client ControlPlane
	// HTTPClient is handed to the default client. Ignored when Client is set.
	HTTPClient *http.Client
	// Hooks run after the built-in logging and metrics hooks.
	Hooks InvocationHooks
	// MetricsRegisterer enables prometheus metrics when set.
	MetricsRegisterer prometheus.Registerer
	// TracerProvider defaults to the global otel provider.
	TracerProvider trace.TracerProvider
	// Notifier receives invocation outcome records. When nil and
	// Conf.NotifySink is set, one is built by TransportFactory.
	Notifier         message.Publisher
	TransportFactory transportpkg.Factory
	// SingleShot makes the loop return after one fetch/publish cycle.
	SingleShot bool
}

// Runtime drives the invocation loop for one execution environment.
type Runtime struct {
	Conf   *configpkg.Config
	Logger loggingpkg.ServiceLogger

	client     ControlPlane
	hooks      InvocationHooks
	metrics    *Metrics
	tracer     trace.Tracer
	singleShot bool

	notifier     message.Publisher
	ownsNotifier bool
}

// NewRuntime validates conf and wires the loop collaborators. A nil logger is
// replaced by the default slog logger configured from conf.
func NewRuntime(conf *configpkg.Config, log loggingpkg.ServiceLogger, deps RuntimeDependencies) (*Runtime, error) {
	if err := configpkg.ValidateConfig(conf); err != nil {
		return nil, err
	}
	if log == nil {
		log = loggingpkg.NewDefaultLogger(loggingpkg.Options{Level: conf.LogLevel, JSON: conf.LogJSON})
	}
	log = log.With(loggingpkg.LogFields{
		loggingpkg.FieldFunctionName: conf.FunctionName,
		loggingpkg.FieldVersion:      conf.Version,
	})

	client := deps.Client
	if client == nil {
		opts := []runtimeapi.Option{runtimeapi.WithLogger(log)}
		if deps.HTTPClient != nil {
			opts = append(opts, runtimeapi.WithHTTPClient(deps.HTTPClient))
		}
		c, err := runtimeapi.NewClient(conf, opts...)
		if err != nil {
			return nil, err
		}
		client = c
	}

	var metrics *Metrics
	if deps.MetricsRegisterer != nil {
		metrics = NewMetrics(deps.MetricsRegisterer)
		if err := metrics.Register(); err != nil {
			return nil, err
		}
	}

	provider := deps.TracerProvider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}

	hooks := LoggingHooks(log).Merge(MetricsHooks(metrics))

	notifier, owns, err := buildNotifier(conf, log, deps)
	if err != nil {
		return nil, err
	}
	if notifier != nil {
		topic := conf.NotifyTopic
		if topic == "" {
			topic = configpkg.DefaultNotifyTopic
		}
		notifyHooks, err := NotificationHooks(notifier, NotificationOptions{
			Topic:      topic,
			ErrorsOnly: conf.NotifyErrorsOnly,
			Logger:     log,
		})
		if err != nil {
			return nil, err
		}
		hooks = hooks.Merge(notifyHooks)
	}

	log.Info("Creating lambda runtime", loggingpkg.LogFields{
		"config":      conf.String(),
		"notify_sink": conf.NotifySink,
	})

	return &Runtime{
		Conf:         conf,
		Logger:       log,
		client:       client,
		hooks:        hooks.Merge(deps.Hooks),
		metrics:      metrics,
		tracer:       provider.Tracer(TracerName),
		singleShot:   deps.SingleShot,
		notifier:     notifier,
		ownsNotifier: owns,
	}, nil
}

func buildNotifier(conf *configpkg.Config, log loggingpkg.ServiceLogger, deps RuntimeDependencies) (message.Publisher, bool, error) {
	if deps.Notifier != nil {
		return deps.Notifier, false, nil
	}
	if conf.NotifySink == "" {
		return nil, false, nil
	}
	factory := deps.TransportFactory
	if factory == nil {
		factory = transportpkg.DefaultFactory()
	}
	pub, err := factory.Build(context.Background(), conf, loggingpkg.NewWatermillAdapter(log))
	if err != nil {
		return nil, false, err
	}
	return pub, true, nil
}

// Close releases the notification publisher when the runtime created it.
func (r *Runtime) Close() error {
	if r == nil || !r.ownsNotifier || r.notifier == nil {
		return nil
	}
	return r.notifier.Close()
}

// Metrics returns the collectors, or nil when metrics are disabled.
func (r *Runtime) Metrics() *Metrics {
	return r.metrics
}

// processed is what handling one event produced.
type processed struct {
	// payload is published as the response when report is nil.
	payload any
	report  *invocation.ErrorReport
	outcome Outcome
	// err is handed to hooks and the span; it does not stop the loop.
	err error
}

type processFunc func(ctx context.Context, raw *invocation.RawInvocation) processed

func failed(outcome Outcome, err error) processed {
	report := invocation.NewErrorReport(err)
	return processed{report: &report, outcome: outcome, err: err}
}

// serve polls until the context is cancelled or the control plane fails.
func (r *Runtime) serve(ctx context.Context, process processFunc) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.iterate(ctx, process); err != nil {
			return err
		}
		if r.singleShot {
			return nil
		}
	}
}

func (r *Runtime) iterate(ctx context.Context, process processFunc) error {
	raw, err := r.client.FetchNext(ctx)
	if err != nil {
		return r.fetchFailed(ctx, err)
	}
	ec := raw.Context
	if ec.Config == nil {
		ec.Config = r.Conf
	}

	info := InvocationInfo{
		RequestID:    ec.RequestID,
		FunctionARN:  ec.InvokedFunctionARN,
		TraceID:      ec.XRayTraceID,
		FunctionName: ec.FunctionName(),
		StartedAt:    time.Now(),
		Deadline:     ec.DeadlineTime(),
	}

	handlerCtx := invocation.NewContext(ctx, ec)
	handlerCtx = lambdacontext.NewContext(handlerCtx, ec.LambdaContext())
	handlerCtx, span := startInvokeSpan(handlerCtx, r.tracer, ec)
	info.Context = handlerCtx
	r.hooks.start(info)

	out := process(handlerCtx, raw)

	// The outcome of a fetched event is always published; cancellation only
	// stops the next poll.
	pubCtx := context.WithoutCancel(ctx)
	var pubErr error
	if out.report != nil {
		pubErr = r.client.PublishError(pubCtx, ec.RequestID, *out.report)
	} else {
		pubErr = r.client.PublishResponse(pubCtx, ec.RequestID, out.payload)
	}

	info.Duration = time.Since(info.StartedAt)
	info.Outcome = out.outcome
	r.hooks.finish(info, out.err)
	endInvokeSpan(span, out.outcome, out.err)

	if pubErr != nil {
		return r.controlPlaneFailed(ctx, pubErr, ec.RequestID)
	}
	return nil
}

func (r *Runtime) fetchFailed(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var apiErr *errspkg.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != errspkg.KindProtocol || apiErr.RequestID == "" {
		return r.controlPlaneFailed(ctx, err, "")
	}

	r.metrics.ControlPlaneError(apiErr.Op)
	r.Logger.Error("Rejecting invocation with invalid context", err, loggingpkg.LogFields{
		loggingpkg.FieldRequestID: apiErr.RequestID,
		loggingpkg.FieldErrorType: InvalidInvocationContextType,
	})
	report := invocation.ErrorReport{ErrorType: InvalidInvocationContextType, ErrorMessage: err.Error()}
	pubCtx := context.WithoutCancel(ctx)
	if pubErr := r.client.PublishError(pubCtx, apiErr.RequestID, report); pubErr != nil {
		return r.controlPlaneFailed(ctx, pubErr, apiErr.RequestID)
	}
	return nil
}

func (r *Runtime) controlPlaneFailed(ctx context.Context, err error, requestID string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	op := "unknown"
	var apiErr *errspkg.APIError
	if errors.As(err, &apiErr) && apiErr.Op != "" {
		op = apiErr.Op
	}
	r.metrics.ControlPlaneError(op)
	r.Logger.Error("Runtime API request failed", err, loggingpkg.LogFields{
		loggingpkg.FieldRequestID: requestID,
		"operation":               op,
	})
	return err
}
