// Package runtimetest provides an in-process fake of the Lambda runtime API
// for tests of code built on lambdaflow.
package runtimetest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/drblury/lambdaflow/internal/runtime/config"
	"github.com/drblury/lambdaflow/internal/runtime/headers"
	"github.com/drblury/lambdaflow/internal/runtime/ids"
	"github.com/drblury/lambdaflow/internal/runtime/jsoncodec"
)

// DrainedStatus is returned by the next route once the queue is empty, which
// makes a running loop stop with a status error instead of blocking forever.
const (
	DrainedStatus  = http.StatusGone
	DrainedMessage = "no more invocations queued"
)

const routePrefix = "/2018-06-01/runtime/invocation/"

// Event is one queued invocation.
type Event struct {
	RequestID       string
	Deadline        int64
	FunctionARN     string
	TraceID         string
	ClientContext   string
	CognitoIdentity string
	Payload         []byte

	omit      map[string]bool
	overrides map[string]string
	status    int
	body      string
}

// EventOption tweaks a queued event.
type EventOption func(*Event)

func WithRequestID(id string) EventOption {
	return func(e *Event) { e.RequestID = id }
}

func WithDeadline(epochMS int64) EventOption {
	return func(e *Event) { e.Deadline = epochMS }
}

func WithFunctionARN(arn string) EventOption {
	return func(e *Event) { e.FunctionARN = arn }
}

func WithTraceID(id string) EventOption {
	return func(e *Event) { e.TraceID = id }
}

// WithClientContext sets the raw JSON of the client-context header.
func WithClientContext(raw string) EventOption {
	return func(e *Event) { e.ClientContext = raw }
}

// WithCognitoIdentity sets the raw JSON of the cognito-identity header.
func WithCognitoIdentity(raw string) EventOption {
	return func(e *Event) { e.CognitoIdentity = raw }
}

// WithoutHeader drops a header that would otherwise be sent.
func WithoutHeader(name string) EventOption {
	return func(e *Event) {
		if e.omit == nil {
			e.omit = make(map[string]bool)
		}
		e.omit[http.CanonicalHeaderKey(name)] = true
	}
}

// WithHeaderValue sends value for name verbatim, replacing the generated one.
func WithHeaderValue(name, value string) EventOption {
	return func(e *Event) {
		if e.overrides == nil {
			e.overrides = make(map[string]string)
		}
		e.overrides[http.CanonicalHeaderKey(name)] = value
	}
}

// Publication is a response or error body posted by the runtime.
type Publication struct {
	RequestID string
	Body      []byte
	Headers   headers.Multi
}

// Decode unmarshals the publication body into v.
func (p Publication) Decode(v any) error {
	return jsoncodec.Unmarshal(p.Body, v)
}

// ControlPlane is a fake runtime API served by httptest.
type ControlPlane struct {
	server *httptest.Server

	mu           sync.Mutex
	queue        []Event
	responses    []Publication
	errors       []Publication
	fetches      int
	rejectStatus int
	rejectBody   string
}

// NewControlPlane starts the fake and closes it when the test ends.
func NewControlPlane(t testing.TB) *ControlPlane {
	t.Helper()
	cp := &ControlPlane{}
	cp.server = httptest.NewServer(http.HandlerFunc(cp.serveHTTP))
	t.Cleanup(cp.server.Close)
	return cp
}

// Endpoint returns host:port, the format of AWS_LAMBDA_RUNTIME_API.
func (cp *ControlPlane) Endpoint() string {
	return strings.TrimPrefix(cp.server.URL, "http://")
}

// Config returns a complete configuration pointing at the fake.
func (cp *ControlPlane) Config() *config.Config {
	return &config.Config{
		Endpoint:     cp.Endpoint(),
		FunctionName: "runtimetest",
		Memory:       128,
		Version:      "$LATEST",
		LogStream:    "runtimetest/stream",
		LogGroup:     "/aws/lambda/runtimetest",
		LogLevel:     "info",
	}
}

// Enqueue queues payload and returns its request id, a ULID unless set with
// WithRequestID.
func (cp *ControlPlane) Enqueue(payload []byte, opts ...EventOption) string {
	ev := Event{
		RequestID:   ids.CreateRequestID(),
		Deadline:    time.Now().Add(time.Minute).UnixMilli(),
		FunctionARN: "arn:aws:lambda:eu-central-1:000000000000:function:runtimetest",
		TraceID:     "Root=1-" + ids.CreateULID(),
		Payload:     payload,
	}
	for _, opt := range opts {
		opt(&ev)
	}
	cp.mu.Lock()
	cp.queue = append(cp.queue, ev)
	cp.mu.Unlock()
	return ev.RequestID
}

// EnqueueJSON queues the JSON encoding of v.
func (cp *ControlPlane) EnqueueJSON(t testing.TB, v any, opts ...EventOption) string {
	t.Helper()
	data, err := jsoncodec.Marshal(v)
	if err != nil {
		t.Fatalf("runtimetest: encode event: %v", err)
	}
	return cp.Enqueue(data, opts...)
}

// FailNext makes the next fetch answer with status and body.
func (cp *ControlPlane) FailNext(status int, body string) {
	cp.mu.Lock()
	cp.queue = append(cp.queue, Event{status: status, body: body})
	cp.mu.Unlock()
}

// RejectPublications makes every response and error post fail with status.
// A zero status accepts them again.
func (cp *ControlPlane) RejectPublications(status int, body string) {
	cp.mu.Lock()
	cp.rejectStatus, cp.rejectBody = status, body
	cp.mu.Unlock()
}

func (cp *ControlPlane) Responses() []Publication {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return append([]Publication(nil), cp.responses...)
}

func (cp *ControlPlane) Errors() []Publication {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return append([]Publication(nil), cp.errors...)
}

// Fetches counts next requests, including failed ones.
func (cp *ControlPlane) Fetches() int {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return cp.fetches
}

// Pending counts queued events not fetched yet.
func (cp *ControlPlane) Pending() int {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return len(cp.queue)
}

const (
	headerRequestID     = "Lambda-Runtime-Aws-Request-Id"
	headerDeadline      = "Lambda-Runtime-Deadline-Ms"
	headerARN           = "Lambda-Runtime-Invoked-Function-Arn"
	headerTrace         = "Lambda-Runtime-Trace-Id"
	headerClientContext = "Lambda-Runtime-Client-Context"
	headerCognito       = "Lambda-Runtime-Cognito-Identity"
)

func (cp *ControlPlane) serveHTTP(w http.ResponseWriter, r *http.Request) {
	rest, ok := strings.CutPrefix(r.URL.Path, routePrefix)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if rest == "next" && r.Method == http.MethodGet {
		cp.serveNext(w)
		return
	}

	requestID, kind, ok := strings.Cut(rest, "/")
	if !ok || r.Method != http.MethodPost || (kind != "response" && kind != "error") {
		http.NotFound(w, r)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cp.mu.Lock()
	defer cp.mu.Unlock()
	if cp.rejectStatus != 0 {
		http.Error(w, cp.rejectBody, cp.rejectStatus)
		return
	}
	pub := Publication{RequestID: requestID, Body: body, Headers: headers.FromHTTP(r.Header)}
	if kind == "response" {
		cp.responses = append(cp.responses, pub)
	} else {
		cp.errors = append(cp.errors, pub)
	}
	w.WriteHeader(http.StatusAccepted)
}

func (cp *ControlPlane) serveNext(w http.ResponseWriter) {
	cp.mu.Lock()
	cp.fetches++
	if len(cp.queue) == 0 {
		cp.mu.Unlock()
		http.Error(w, DrainedMessage, DrainedStatus)
		return
	}
	ev := cp.queue[0]
	cp.queue = cp.queue[1:]
	cp.mu.Unlock()

	if ev.status != 0 {
		http.Error(w, ev.body, ev.status)
		return
	}

	h := w.Header()
	set := func(name, value string) {
		if value != "" && !ev.omit[name] {
			h.Set(name, value)
		}
	}
	set(headerRequestID, ev.RequestID)
	set(headerDeadline, strconv.FormatInt(ev.Deadline, 10))
	set(headerARN, ev.FunctionARN)
	set(headerTrace, ev.TraceID)
	set(headerClientContext, ev.ClientContext)
	set(headerCognito, ev.CognitoIdentity)
	for name, value := range ev.overrides {
		h.Set(name, value)
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(ev.Payload)
}
