package transport

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/drblury/lambdaflow/internal/runtime/config"
)

var (
	NATSPublisherFactory = func(cfg nats.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		return nats.NewPublisher(cfg, logger)
	}
)

// natsPublisher publishes outcome records as core NATS messages with the
// topic as subject. The connection is named after the function and retries
// the initial connect instead of failing runtime construction.
func natsPublisher(conf *config.Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return NATSPublisherFactory(
		nats.PublisherConfig{
			URL: conf.NotifyURL,
			NatsOptions: []natsgo.Option{
				natsgo.Name(clientName(conf)),
				natsgo.RetryOnFailedConnect(true),
			},
			Marshaler: &nats.NATSMarshaler{},
		},
		logger,
	)
}
