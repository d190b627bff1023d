// Package response builds the normalized envelope returned to an application
// load balancer. Every constructor yields a Response whose body is set and
// whose headers live in exactly one of the two header slots.
package response

import (
	"fmt"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	errspkg "github.com/drblury/lambdaflow/internal/runtime/errors"
	"github.com/drblury/lambdaflow/internal/runtime/headers"
	"github.com/drblury/lambdaflow/internal/runtime/jsoncodec"
)

// Content types used by the convenience constructors.
const (
	ContentTypeJSON      = "application/json"
	ContentTypePlainText = "text/plain"
)

// HeaderMode selects which header slot a Builder populates.
type HeaderMode uint8

const (
	SingleValue HeaderMode = iota
	MultiValue
)

func (m HeaderMode) Valid() bool {
	return m == SingleValue || m == MultiValue
}

func (m HeaderMode) String() string {
	switch m {
	case SingleValue:
		return "single-value"
	case MultiValue:
		return "multi-value"
	default:
		return "unknown(" + strconv.Itoa(int(m)) + ")"
	}
}

// Response is the normalized ALB response envelope.
type Response struct {
	StatusCode        int            `json:"statusCode"`
	StatusDescription *string        `json:"statusDescription,omitempty"`
	Headers           headers.Single `json:"headers,omitempty"`
	MultiValueHeaders headers.Multi  `json:"multiValueHeaders,omitempty"`
	Body              Body           `json:"body"`
	IsBase64Encoded   bool           `json:"isBase64Encoded"`
}

type wireResponse struct {
	StatusCode        int             `json:"statusCode"`
	StatusDescription *string         `json:"statusDescription,omitempty"`
	Headers           *headers.Single `json:"headers,omitempty"`
	MultiValueHeaders *headers.Multi  `json:"multiValueHeaders,omitempty"`
	Body              Body            `json:"body"`
	IsBase64Encoded   bool            `json:"isBase64Encoded"`
}

// MarshalJSON always writes statusCode, body and isBase64Encoded, plus the
// key of the active header slot even when that map is empty.
func (r Response) MarshalJSON() ([]byte, error) {
	wire := wireResponse{
		StatusCode:        r.StatusCode,
		StatusDescription: r.StatusDescription,
		Body:              r.Body,
		IsBase64Encoded:   r.IsBase64Encoded,
	}
	if r.Mode() == MultiValue {
		multi := r.MultiValueHeaders
		if multi == nil {
			multi = headers.Multi{}
		}
		wire.MultiValueHeaders = &multi
	} else {
		single := r.Headers
		if single == nil {
			single = headers.Single{}
		}
		wire.Headers = &single
	}
	return jsoncodec.Marshal(wire)
}

// Mode reports which header slot is active. A response with neither slot
// set, typically built by hand, follows DefaultMode.
func (r Response) Mode() HeaderMode {
	switch {
	case r.MultiValueHeaders != nil:
		return MultiValue
	case r.Headers != nil:
		return SingleValue
	default:
		return DefaultMode
	}
}

// Header returns the first value stored under name in whichever slot is active.
func (r Response) Header(name string) (string, bool) {
	if r.Mode() == MultiValue {
		values := r.MultiValueHeaders[name]
		if len(values) == 0 {
			return "", false
		}
		return values[0], true
	}
	v, ok := r.Headers[name]
	return v, ok
}

// ToALB converts the envelope into the aws-lambda-go response type.
func (r Response) ToALB() events.ALBTargetGroupResponse {
	out := events.ALBTargetGroupResponse{
		StatusCode:      r.StatusCode,
		Body:            r.Body.String(),
		IsBase64Encoded: r.IsBase64Encoded,
	}
	if r.StatusDescription != nil {
		out.StatusDescription = *r.StatusDescription
	}
	if r.Mode() == MultiValue {
		out.MultiValueHeaders = map[string][]string(r.MultiValueHeaders.Clone())
	} else {
		out.Headers = map[string]string(r.Headers.Clone())
	}
	return out
}

// Builder constructs responses for one header mode.
type Builder struct {
	Mode HeaderMode
}

// NewBuilder rejects unknown modes.
func NewBuilder(mode HeaderMode) (Builder, error) {
	if !mode.Valid() {
		return Builder{}, fmt.Errorf("%w: %s", errspkg.ErrInvalidHeaderMode, mode)
	}
	return Builder{Mode: mode}, nil
}

var defaultBuilder = Builder{Mode: DefaultMode}

// Default returns the builder used by the package-level constructors.
func Default() Builder {
	return defaultBuilder
}

func (b Builder) mode() HeaderMode {
	if b.Mode.Valid() {
		return b.Mode
	}
	return DefaultMode
}

// Build copies hdrs into the active header slot. A nil body becomes Empty.
func (b Builder) Build(status int, body *string, hdrs headers.Single) Response {
	resp := Response{
		StatusCode: status,
		Body:       BodyFrom(body),
	}
	if b.mode() == MultiValue {
		resp.MultiValueHeaders = hdrs.Multi()
		desc := fmt.Sprintf("%d Response", status)
		resp.StatusDescription = &desc
		return resp
	}
	resp.Headers = hdrs.Clone()
	return resp
}

func (b Builder) WithContentType(status int, body *string, contentType string) Response {
	return b.Build(status, body, headers.New(headers.ContentType, contentType))
}

func (b Builder) AsJSON(status int, body *string) Response {
	return b.WithContentType(status, body, ContentTypeJSON)
}

func (b Builder) AsPlainText(status int, body *string) Response {
	return b.WithContentType(status, body, ContentTypePlainText)
}

// FromSerializable encodes value as a JSON response. Encoding failures and
// encoder panics become a 500 plain-text response.
func (b Builder) FromSerializable(status int, value any) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			resp = b.AsPlainText(500, Text(fmt.Sprintf("%v: %v", errspkg.ErrUnsupportedEncoding, r)))
		}
	}()

	data, err := jsoncodec.MarshalValue(value)
	if err != nil {
		return b.AsPlainText(500, Text(err.Error()))
	}
	return b.AsJSON(status, Text(string(data)))
}

// Text returns a pointer to s for the optional body parameters.
func Text(s string) *string {
	return &s
}

func Build(status int, body *string, hdrs headers.Single) Response {
	return defaultBuilder.Build(status, body, hdrs)
}

func WithContentType(status int, body *string, contentType string) Response {
	return defaultBuilder.WithContentType(status, body, contentType)
}

func AsJSON(status int, body *string) Response {
	return defaultBuilder.AsJSON(status, body)
}

func AsPlainText(status int, body *string) Response {
	return defaultBuilder.AsPlainText(status, body)
}

func FromSerializable(status int, value any) Response {
	return defaultBuilder.FromSerializable(status, value)
}

// FromOptional builds an empty response for nil and serializes anything else.
func FromOptional[T any](status int, value *T) Response {
	return FromOptionalWith(defaultBuilder, status, value)
}

func FromOptionalWith[T any](b Builder, status int, value *T) Response {
	if value == nil {
		return b.Build(status, nil, nil)
	}
	return b.FromSerializable(status, *value)
}
