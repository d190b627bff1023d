package transport

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/lambdaflow/internal/runtime/config"
)

var (
	AmqpConnectionFactory = func(cfg amqp.ConnectionConfig, logger watermill.LoggerAdapter) (*amqp.ConnectionWrapper, error) {
		return amqp.NewConnection(cfg, logger)
	}
	AmqpPublisherFactory = func(cfg amqp.Config, logger watermill.LoggerAdapter, conn *amqp.ConnectionWrapper) (message.Publisher, error) {
		return amqp.NewPublisherWithConnection(cfg, logger, conn)
	}
)

// amqpPublisher publishes outcome records to a durable fanout exchange named
// after the topic. The queue name generator is only read by subscribers
// sharing this config; it suffixes the client name so every function gets its
// own queue on the exchange.
func amqpPublisher(conf *config.Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	amqpConfig := amqp.NewDurablePubSubConfig(
		conf.NotifyURL,
		amqp.GenerateQueueNameTopicNameWithSuffix("."+clientName(conf)),
	)
	conn, err := AmqpConnectionFactory(amqp.ConnectionConfig{
		AmqpURI:   conf.NotifyURL,
		Reconnect: amqp.DefaultReconnectConfig(),
	}, logger)
	if err != nil {
		return nil, err
	}
	return AmqpPublisherFactory(amqpConfig, logger, conn)
}
