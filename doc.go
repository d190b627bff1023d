// Package lambdaflow is a custom AWS Lambda runtime. It long-polls the runtime
// API for the next invocation, hands the event to a typed handler and posts
// the result or an error report back, one invocation at a time.
//
// Start reads Config from the process environment, builds a Runtime and serves
// a HandlerFunc until the context is cancelled or the runtime API fails.
// Handler errors never stop the loop; they are reported as ErrorReport values
// with an errorType derived from the error.
//
// # Load balancer targets
//
// StartALB and ListenALBEvents serve application load balancer target groups.
// The handler input is decoded from the event by capability: the raw
// events.ALBTargetGroupRequest is passed through unchanged, while a type that
// implements RPCRequest has the request body decoded as JSON. The handler
// output is encoded the same way: a Response is sent as is, a Result becomes
// a 200 or a 500, an error becomes a plain text 500 and any other value is
// serialized as JSON. Builders choose between single and multi-value headers;
// the default follows the multiheader build tag.
//
// # Hooks, metrics and tracing
//
// Every invocation runs through InvocationHooks. The runtime always logs and,
// when RuntimeDependencies.MetricsRegisterer is set, records Prometheus
// metrics. Spans are started from the configured OpenTelemetry tracer
// provider with the X-Ray trace id attached.
//
// # Notifications
//
// Setting LAMBDAFLOW_NOTIFY_SINK publishes an InvocationRecord for each
// finished invocation through a Watermill publisher. Supported sinks are
// channel, http, sns, sqs, kafka, nats and amqp.
//
// Tests can drive a Runtime against the fake control plane in the runtimetest
// package.
package lambdaflow
