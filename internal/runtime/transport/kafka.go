package transport

import (
	"time"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/lambdaflow/internal/runtime/config"
)

// kafkaProduceTimeout bounds a single notification write. Publishing happens
// between invocations, so a stuck broker must not hold the next poll.
const kafkaProduceTimeout = 5 * time.Second

var (
	KafkaPublisherFactory = func(cfg kafka.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		return kafka.NewPublisher(cfg, logger)
	}
)

// kafkaPublisher writes notifications to conf.NotifyBrokers. Records are keyed
// by the function name so that one function's outcomes stay on one partition
// in publish order.
func kafkaPublisher(conf *config.Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return KafkaPublisherFactory(
		kafka.PublisherConfig{
			Brokers:               conf.NotifyBrokers,
			Marshaler:             kafka.NewWithPartitioningMarshaler(functionPartitionKey),
			OverwriteSaramaConfig: kafkaSaramaConfig(conf),
		},
		logger,
	)
}

func kafkaSaramaConfig(conf *config.Config) *sarama.Config {
	saramaConfig := kafka.DefaultSaramaSyncPublisherConfig()
	saramaConfig.ClientID = clientName(conf)
	saramaConfig.Producer.Timeout = kafkaProduceTimeout
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	return saramaConfig
}

func functionPartitionKey(_ string, msg *message.Message) (string, error) {
	return msg.Metadata.Get(MetadataKeyFunction), nil
}
