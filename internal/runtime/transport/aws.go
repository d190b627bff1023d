package transport

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-aws/sns"
	"github.com/ThreeDotsLabs/watermill-aws/sqs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	amazonsns "github.com/aws/aws-sdk-go-v2/service/sns"
	amazonsqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	smithyendpoints "github.com/aws/smithy-go/endpoints"

	"github.com/drblury/lambdaflow/internal/runtime/config"
)

var (
	AWSDefaultConfigLoader  = awsconfig.LoadDefaultConfig
	SNSTopicResolverFactory = sns.NewGenerateArnTopicResolver
	SNSPublisherFactory     = func(cfg sns.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		return sns.NewPublisher(cfg, logger)
	}
	SQSPublisherFactory = func(cfg sqs.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		return sqs.NewPublisher(cfg, logger)
	}
)

const (
	localstackAccountID = "000000000000"
	awsAccountIDLength  = 12
)

// createAWSConfig loads the default SDK configuration. Inside Lambda this
// picks up the execution role credentials from the environment.
func createAWSConfig(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (*aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if conf.AWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(conf.AWSRegion))
	}

	cfg, err := AWSDefaultConfigLoader(ctx, opts...)
	if err != nil {
		logger.Error("Failed to load AWS default config", err, watermill.LogFields{"requested_region": conf.AWSRegion})
		return nil, err
	}
	if conf.AWSRegion != "" {
		cfg.Region = conf.AWSRegion
	}
	logger.Debug("Loaded AWS config", watermill.LogFields{
		"region":          cfg.Region,
		"custom_endpoint": conf.AWSEndpoint != "",
	})
	return &cfg, nil
}

// createSNSPublisher publishes notifications to the SNS topic named by the
// message topic, resolved to an ARN from the account and region.
func createSNSPublisher(conf *config.Config, logger watermill.LoggerAdapter, cfg *aws.Config) (message.Publisher, error) {
	accountID, region := resolveAccountAndRegion(conf, logger, cfg.Region)
	topicResolver, err := SNSTopicResolverFactory(accountID, region)
	if err != nil {
		logger.Error("Failed to create SNS topic resolver", err, watermill.LogFields{
			"accountID": accountID,
			"region":    region,
		})
		return nil, err
	}

	endpoint, err := awsEndpointURL(conf)
	if err != nil {
		return nil, err
	}

	publisherConfig := sns.PublisherConfig{
		TopicResolver: topicResolver,
		AWSConfig:     *cfg,
		Marshaler:     sns.DefaultMarshalerUnmarshaler{},
	}
	if endpoint != nil {
		publisherConfig.OptFns = []func(*amazonsns.Options){
			amazonsns.WithEndpointResolverV2(sns.OverrideEndpointResolver{
				Endpoint: smithyendpoints.Endpoint{URI: *endpoint},
			}),
		}
	}
	return SNSPublisherFactory(publisherConfig, logger)
}

// createSQSPublisher sends notifications to the queue named by the message
// topic, creating it when missing.
func createSQSPublisher(conf *config.Config, logger watermill.LoggerAdapter, cfg *aws.Config) (message.Publisher, error) {
	endpoint, err := awsEndpointURL(conf)
	if err != nil {
		return nil, err
	}

	publisherConfig := sqs.PublisherConfig{AWSConfig: *cfg}
	if endpoint != nil {
		publisherConfig.OptFns = []func(*amazonsqs.Options){
			amazonsqs.WithEndpointResolverV2(sqs.OverrideEndpointResolver{
				Endpoint: smithyendpoints.Endpoint{URI: *endpoint},
			}),
		}
	}
	return SQSPublisherFactory(publisherConfig, logger)
}

func resolveAccountAndRegion(conf *config.Config, logger watermill.LoggerAdapter, fallbackRegion string) (string, string) {
	accountID := strings.Trim(conf.AWSAccountID, "\"' ")
	region := conf.AWSRegion
	if region == "" {
		region = fallbackRegion
	}

	if conf.AWSEndpoint != "" && len(accountID) != awsAccountIDLength {
		logger.Info("Using LocalStack default account ID", watermill.LogFields{"configured": accountID})
		accountID = localstackAccountID
	}
	return accountID, region
}

func awsEndpointURL(conf *config.Config) (*url.URL, error) {
	if conf.AWSEndpoint == "" {
		return nil, nil
	}
	parsed, err := url.Parse(conf.AWSEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to parse AWS endpoint: %w", err)
	}
	return parsed, nil
}
