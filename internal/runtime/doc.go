/*
Package runtime implements the invocation loop behind lambdaflow.

# Loop (runtime.go, listen.go)

Runtime owns the control plane client and repeats fetch, process and publish
until the context is cancelled or the runtime API returns an error.
A context cancelled mid-invocation still lets that invocation publish its
outcome. Protocol errors that carry a request id are reported against that
invocation and the loop keeps polling; every other control plane failure
ends it.

ListenEvents decodes the payload as JSON into the handler input.
ListenALBEvents adds the load balancer capability dispatch from the handlers
sub-package and always answers with a response envelope: decode failures
become 400 responses and panics become 500 responses.

# Hooks (hooks.go)

InvocationHooks run around every invocation. LoggingHooks and MetricsHooks
are installed by NewRuntime; callers merge their own through
RuntimeDependencies.Hooks.

# Metrics and tracing (metrics.go, tracing.go)

Prometheus counters and a duration histogram in the lambdaflow namespace.
An OpenTelemetry server span named Invoke wraps each handler call.

# Notifications (notify.go)

NotificationHooks publish an InvocationRecord per invocation through any
watermill publisher. NewRuntime builds one from Config.NotifySink with the
transport sub-package.

# Sub-packages

  - config/: environment configuration read through viper
  - errors/: sentinel errors and error types
  - handlers/: decode and encode capability dispatch
  - headers/: single and multi-value header maps
  - ids/: ULID generation
  - invocation/: execution context and error reports
  - jsoncodec/: JSON marshaling built on sonic
  - logging/: logger interface and slog, logrus and watermill adapters
  - response/: load balancer response envelopes
  - runtimeapi/: HTTP client for the runtime API
  - transport/: notification publishers (channel, HTTP, SNS, SQS, Kafka, NATS, AMQP)

# Usage Example

	conf, err := config.Load()
	if err != nil {
		return err
	}
	rt, err := runtime.NewRuntime(conf, nil, runtime.RuntimeDependencies{
		MetricsRegisterer: prometheus.DefaultRegisterer,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	return runtime.ListenALBEvents(ctx, rt, func(ctx context.Context, req createOrder) handlers.Result[order] {
		return handlers.Ok(place(req))
	})
*/
package runtime
