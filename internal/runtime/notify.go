package runtime

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/drblury/lambdaflow/internal/runtime/errors"
	idspkg "github.com/drblury/lambdaflow/internal/runtime/ids"
	"github.com/drblury/lambdaflow/internal/runtime/invocation"
	"github.com/drblury/lambdaflow/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/lambdaflow/internal/runtime/logging"
	transportpkg "github.com/drblury/lambdaflow/internal/runtime/transport"
)

// Metadata keys set on notification messages.
const (
	MetadataKeyOutcome   = "lambdaflow_outcome"
	MetadataKeyRequestID = "lambdaflow_request_id"
	MetadataKeyFunction  = transportpkg.MetadataKeyFunction
)

// InvocationRecord is the payload of an outcome notification.
type InvocationRecord struct {
	RequestID    string    `json:"requestId"`
	FunctionName string    `json:"functionName"`
	FunctionARN  string    `json:"functionArn"`
	TraceID      string    `json:"traceId,omitempty"`
	Outcome      Outcome   `json:"outcome"`
	ErrorType    string    `json:"errorType,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	DurationMS   int64     `json:"durationMs"`
	FinishedAt   time.Time `json:"finishedAt"`
}

// NewInvocationRecord summarises a finished invocation. err may be nil.
func NewInvocationRecord(info InvocationInfo, err error) InvocationRecord {
	rec := InvocationRecord{
		RequestID:    info.RequestID,
		FunctionName: info.FunctionName,
		FunctionARN:  info.FunctionARN,
		TraceID:      info.TraceID,
		Outcome:      info.Outcome,
		DurationMS:   info.Duration.Milliseconds(),
		FinishedAt:   info.StartedAt.Add(info.Duration).UTC(),
	}
	if err != nil {
		report := invocation.NewErrorReport(err)
		rec.ErrorType, rec.ErrorMessage = report.ErrorType, report.ErrorMessage
	}
	return rec
}

// NewRecordMessage encodes rec as a watermill message with a ULID id.
func NewRecordMessage(rec InvocationRecord) (*message.Message, error) {
	payload, err := jsoncodec.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal invocation record: %w", err)
	}
	msg := message.NewMessage(idspkg.CreateULID(), payload)
	msg.Metadata.Set(MetadataKeyOutcome, string(rec.Outcome))
	msg.Metadata.Set(MetadataKeyRequestID, rec.RequestID)
	msg.Metadata.Set(MetadataKeyFunction, rec.FunctionName)
	return msg, nil
}

// NotificationOptions configures NotificationHooks.
type NotificationOptions struct {
	Topic string
	// ErrorsOnly skips successful invocations.
	ErrorsOnly bool
	// Logger receives publish failures. Defaults to a no-op logger.
	Logger loggingpkg.ServiceLogger
}

// NotificationHooks publish an InvocationRecord for every finished
// invocation. Publish failures are logged and never affect the loop.
func NotificationHooks(publisher message.Publisher, opts NotificationOptions) (InvocationHooks, error) {
	if publisher == nil {
		return InvocationHooks{}, errspkg.ErrPublisherRequired
	}
	if opts.Topic == "" {
		return InvocationHooks{}, errspkg.ErrTopicRequired
	}
	logger := opts.Logger
	if logger == nil {
		logger = loggingpkg.Nop()
	}

	notify := func(info InvocationInfo, err error) {
		msg, encErr := NewRecordMessage(NewInvocationRecord(info, err))
		if encErr == nil {
			if info.Context != nil {
				msg.SetContext(info.Context)
			}
			encErr = publisher.Publish(opts.Topic, msg)
		}
		if encErr != nil {
			logger.Error("Failed to publish invocation notification", encErr, loggingpkg.LogFields{
				loggingpkg.FieldRequestID: info.RequestID,
				"topic":                   opts.Topic,
			})
		}
	}

	hooks := InvocationHooks{OnInvocationError: notify}
	if !opts.ErrorsOnly {
		hooks.OnInvocationDone = func(info InvocationInfo) { notify(info, nil) }
	}
	return hooks, nil
}
