// Package runtimeapi talks to the Lambda runtime API: it fetches the next
// invocation and posts its outcome back.
package runtimeapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/drblury/lambdaflow/internal/runtime/config"
	errspkg "github.com/drblury/lambdaflow/internal/runtime/errors"
	"github.com/drblury/lambdaflow/internal/runtime/headers"
	"github.com/drblury/lambdaflow/internal/runtime/invocation"
	"github.com/drblury/lambdaflow/internal/runtime/jsoncodec"
	"github.com/drblury/lambdaflow/internal/runtime/logging"
	"github.com/drblury/lambdaflow/internal/runtime/response"
)

// APIVersion is the path prefix of every runtime API route.
const APIVersion = "2018-06-01"

const (
	opNext     = "next"
	opResponse = "response"
	opError    = "error"
)

// Cap on how much of an error body is read back from the control plane.
const maxErrorBody = 64 << 10

// Client is a runtime API client bound to one endpoint. It is used by a single
// goroutine; the underlying http.Client is reused across invocations.
type Client struct {
	baseURL    string
	cfg        *config.Config
	httpClient *http.Client
	logger     logging.ServiceLogger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l logging.ServiceLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient builds a client for cfg.Endpoint, which is host:port or a full
// http(s) URL.
func NewClient(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errspkg.ErrConfigRequired
	}
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, errspkg.ErrEndpointRequired
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "http://" + endpoint
	}

	c := &Client{
		baseURL:    endpoint + "/" + APIVersion + "/runtime/invocation",
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the invocation route prefix.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchNext blocks until the control plane hands out the next event.
func (c *Client) FetchNext(ctx context.Context) (*invocation.RawInvocation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/next", nil)
	if err != nil {
		return nil, &errspkg.APIError{Kind: errspkg.KindNetwork, Op: opNext, Message: "build next request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &errspkg.APIError{Kind: errspkg.KindNetwork, Op: opNext, Message: "fetch next invocation", Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, statusError(opNext, "", resp)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errspkg.APIError{Kind: errspkg.KindNetwork, Op: opNext, Message: "read next invocation", Err: err}
	}

	ec, err := ExtractContext(resp.Header, c.cfg)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Fetched invocation", logging.LogFields{
		logging.FieldRequestID: ec.RequestID,
		logging.FieldTraceID:   ec.XRayTraceID,
		"bytes":                len(payload),
	})
	return &invocation.RawInvocation{Payload: payload, Context: ec}, nil
}

// PublishResponse posts the JSON encoding of payload as the invocation result.
// Protobuf messages are encoded with protojson.
func (c *Client) PublishResponse(ctx context.Context, requestID string, payload any) error {
	return c.postMessage(ctx, requestID, opResponse, payload)
}

// PublishError reports a failed invocation.
func (c *Client) PublishError(ctx context.Context, requestID string, report invocation.ErrorReport) error {
	return c.postMessage(ctx, requestID, opError, report)
}

func (c *Client) postMessage(ctx context.Context, requestID, path string, payload any) error {
	if requestID == "" {
		return &errspkg.APIError{Kind: errspkg.KindProtocol, Op: path, Err: errspkg.ErrRequestIDRequired}
	}

	body, err := jsoncodec.MarshalValue(payload)
	if err != nil {
		return &errspkg.APIError{
			Kind:      errspkg.KindEncoding,
			Op:        path,
			RequestID: requestID,
			Message:   "encode " + path + " payload",
			Err:       err,
		}
	}

	url := fmt.Sprintf("%s/%s/%s", c.baseURL, requestID, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &errspkg.APIError{Kind: errspkg.KindNetwork, Op: path, RequestID: requestID, Message: "build " + path + " request", Err: err}
	}
	req.Header.Set(headers.ContentType, response.ContentTypeJSON)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &errspkg.APIError{Kind: errspkg.KindNetwork, Op: path, RequestID: requestID, Message: "publish " + path, Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return statusError(path, requestID, resp)
	}
	// Drain so the connection goes back to the pool.
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.Debug("Published invocation "+path, logging.LogFields{
		logging.FieldRequestID: requestID,
		"bytes":                len(body),
	})
	return nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

func statusError(op, requestID string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(raw))
	if !utf8.ValidString(msg) {
		msg = strings.ToValidUTF8(msg, "�")
	}
	if msg == "" {
		msg = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return &errspkg.APIError{
		Kind:       errspkg.KindStatus,
		Op:         op,
		StatusCode: resp.StatusCode,
		RequestID:  requestID,
		Message:    msg,
	}
}
