// Package transport builds the watermill publisher that invocation outcome
// notifications are sent through.
package transport

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/lambdaflow/internal/runtime/config"
	errspkg "github.com/drblury/lambdaflow/internal/runtime/errors"
)

// Sink kinds accepted in config.Config.NotifySink.
const (
	SinkChannel = "channel"
	SinkHTTP    = "http"
	SinkSNS     = "sns"
	SinkSQS     = "sqs"
	SinkKafka   = "kafka"
	SinkNATS    = "nats"
	SinkAMQP    = "amqp"
)

// MetadataKeyFunction is the message metadata key holding the function name.
// Kafka records are partitioned by it.
const MetadataKeyFunction = "lambdaflow_function"

// Factory abstracts how the notification publisher is created.
type Factory interface {
	Build(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (message.Publisher, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (message.Publisher, error)

func (f FactoryFunc) Build(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return f(ctx, conf, logger)
}

// DefaultFactory returns the factory that picks the sink from conf.NotifySink.
func DefaultFactory() Factory {
	return FactoryFunc(build)
}

func build(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	if conf == nil {
		return nil, errspkg.ErrConfigRequired
	}
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	switch conf.NotifySink {
	case SinkChannel:
		return channelPublisher(logger), nil
	case SinkHTTP:
		if conf.NotifyURL == "" {
			return nil, targetRequired(SinkHTTP, config.EnvNotifyURL)
		}
		return httpPublisher(conf, logger)
	case SinkSNS:
		cfg, err := createAWSConfig(ctx, conf, logger)
		if err != nil {
			return nil, err
		}
		return createSNSPublisher(conf, logger, cfg)
	case SinkSQS:
		cfg, err := createAWSConfig(ctx, conf, logger)
		if err != nil {
			return nil, err
		}
		return createSQSPublisher(conf, logger, cfg)
	case SinkKafka:
		if len(conf.NotifyBrokers) == 0 {
			return nil, targetRequired(SinkKafka, config.EnvNotifyBrokers)
		}
		return kafkaPublisher(conf, logger)
	case SinkNATS:
		if conf.NotifyURL == "" {
			return nil, targetRequired(SinkNATS, config.EnvNotifyURL)
		}
		return natsPublisher(conf, logger)
	case SinkAMQP:
		if conf.NotifyURL == "" {
			return nil, targetRequired(SinkAMQP, config.EnvNotifyURL)
		}
		return amqpPublisher(conf, logger)
	default:
		return nil, fmt.Errorf("%w: %q", errspkg.ErrUnknownSink, conf.NotifySink)
	}
}

func targetRequired(sink, env string) error {
	return fmt.Errorf("%w: %s sink needs %s", errspkg.ErrSinkTargetRequired, sink, env)
}

// clientName identifies this function towards a broker.
func clientName(conf *config.Config) string {
	if conf.FunctionName == "" {
		return "lambdaflow"
	}
	return "lambdaflow-" + conf.FunctionName
}
