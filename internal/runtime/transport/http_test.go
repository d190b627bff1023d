package transport

import (
	"context"
	"errors"
	"io"
	net_http "net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	wmhttp "github.com/ThreeDotsLabs/watermill-http/v2/pkg/http"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/lambdaflow/internal/runtime/config"
)

func TestHTTPSinkPostsToTopicPath(t *testing.T) {
	var (
		mu      sync.Mutex
		paths   []string
		body    string
		headers net_http.Header
	)
	srv := httptest.NewServer(net_http.HandlerFunc(func(w net_http.ResponseWriter, r *net_http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		paths = append(paths, r.URL.Path)
		body = string(data)
		headers = r.Header.Clone()
		mu.Unlock()
		w.WriteHeader(net_http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	conf := &config.Config{NotifySink: SinkHTTP, NotifyURL: srv.URL + "/hooks/", FunctionName: "orders"}
	pub, err := DefaultFactory().Build(context.Background(), conf, watermill.NopLogger{})
	if err != nil {
		t.Fatalf("failed to create http sink: %v", err)
	}
	t.Cleanup(func() { _ = pub.Close() })

	if err := pub.Publish("outcomes", message.NewMessage(watermill.NewUUID(), []byte(`{"ok":true}`))); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(paths) != 1 || paths[0] != "/hooks/outcomes" {
		t.Fatalf("unexpected request paths %v", paths)
	}
	if body != `{"ok":true}` {
		t.Fatalf("unexpected body %q", body)
	}
	if ct := headers.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if ua := headers.Get("User-Agent"); ua != "lambdaflow-orders" {
		t.Fatalf("unexpected user agent %q", ua)
	}
	if headers.Get(wmhttp.HeaderUUID) == "" {
		t.Fatal("expected the message uuid header")
	}
}

func TestHTTPSinkJoinsURLWithoutTrailingSlash(t *testing.T) {
	var got wmhttp.PublisherConfig
	orig := HTTPPublisherFactory
	t.Cleanup(func() { HTTPPublisherFactory = orig })
	HTTPPublisherFactory = func(cfg wmhttp.PublisherConfig, _ watermill.LoggerAdapter) (message.Publisher, error) {
		got = cfg
		return &testPublisher{}, nil
	}

	if _, err := httpPublisher(&config.Config{NotifyURL: "https://hooks.example.com/v1"}, watermill.NopLogger{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req, err := got.MarshalMessageFunc("outcomes", message.NewMessage(watermill.NewUUID(), []byte(`{}`)))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if req.URL.String() != "https://hooks.example.com/v1/outcomes" {
		t.Fatalf("unexpected url %s", req.URL)
	}
	if req.Header.Get("User-Agent") != "lambdaflow" {
		t.Fatalf("unexpected user agent %q", req.Header.Get("User-Agent"))
	}
}

func TestHTTPSinkFactoryError(t *testing.T) {
	orig := HTTPPublisherFactory
	t.Cleanup(func() { HTTPPublisherFactory = orig })
	HTTPPublisherFactory = func(_ wmhttp.PublisherConfig, _ watermill.LoggerAdapter) (message.Publisher, error) {
		return nil, errBoom
	}

	if _, err := httpPublisher(&config.Config{NotifyURL: "http://localhost"}, watermill.NopLogger{}); !errors.Is(err, errBoom) {
		t.Fatalf("expected factory error, got %v", err)
	}
}
