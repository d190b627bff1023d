package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-aws/sns"
	"github.com/ThreeDotsLabs/watermill-aws/sqs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/drblury/lambdaflow/internal/runtime/config"
)

func stubAWSLoader(t *testing.T, cfg aws.Config, err error) {
	t.Helper()
	orig := AWSDefaultConfigLoader
	t.Cleanup(func() { AWSDefaultConfigLoader = orig })
	AWSDefaultConfigLoader = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return cfg, err
	}
}

func TestCreateAWSConfigSetsRegion(t *testing.T) {
	stubAWSLoader(t, aws.Config{Region: "us-east-1"}, nil)

	cfg, err := createAWSConfig(context.Background(), &config.Config{AWSRegion: "ap-southeast-2"}, watermill.NopLogger{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Region != "ap-southeast-2" {
		t.Fatalf("expected region override, got %s", cfg.Region)
	}
}

func TestCreateAWSConfigReturnsError(t *testing.T) {
	stubAWSLoader(t, aws.Config{}, errors.New("boom"))

	if _, err := createAWSConfig(context.Background(), &config.Config{}, watermill.NopLogger{}); err == nil {
		t.Fatal("expected error when config loader fails")
	}
}

func TestSNSSinkResolvesAccount(t *testing.T) {
	stubAWSLoader(t, aws.Config{Region: "eu-central-1"}, nil)
	origTopic := SNSTopicResolverFactory
	origPub := SNSPublisherFactory
	t.Cleanup(func() {
		SNSTopicResolverFactory = origTopic
		SNSPublisherFactory = origPub
	})

	var accounts []string
	SNSTopicResolverFactory = func(accountID, region string) (*sns.GenerateArnTopicResolver, error) {
		accounts = append(accounts, accountID)
		return origTopic(accountID, region)
	}
	var got []sns.PublisherConfig
	pub := &testPublisher{}
	SNSPublisherFactory = func(cfg sns.PublisherConfig, _ watermill.LoggerAdapter) (message.Publisher, error) {
		got = append(got, cfg)
		return pub, nil
	}

	conf := &config.Config{NotifySink: SinkSNS, AWSAccountID: " '123456789012' "}
	publisher, err := DefaultFactory().Build(context.Background(), conf, watermill.NopLogger{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if publisher != pub {
		t.Fatal("publisher not returned")
	}

	conf.AWSEndpoint = "http://localhost:4566"
	conf.AWSAccountID = "bad"
	if _, err := DefaultFactory().Build(context.Background(), conf, watermill.NopLogger{}); err != nil {
		t.Fatalf("unexpected error with local endpoint: %v", err)
	}

	if len(accounts) != 2 || accounts[0] != "123456789012" || accounts[1] != localstackAccountID {
		t.Fatalf("unexpected account ids %v", accounts)
	}
	if len(got[0].OptFns) != 0 {
		t.Fatal("expected no endpoint override without a custom endpoint")
	}
	if len(got[1].OptFns) != 1 {
		t.Fatalf("expected endpoint override, got %d option funcs", len(got[1].OptFns))
	}
	if got[1].AWSConfig.Region != "eu-central-1" {
		t.Fatalf("unexpected region %q", got[1].AWSConfig.Region)
	}
}

func TestSNSSinkInvalidEndpoint(t *testing.T) {
	conf := &config.Config{AWSAccountID: "123456789012", AWSEndpoint: "://bad"}
	if _, err := createSNSPublisher(conf, watermill.NopLogger{}, &aws.Config{Region: "eu-central-1"}); err == nil {
		t.Fatal("expected error for invalid endpoint")
	}
}

func TestSQSSink(t *testing.T) {
	stubAWSLoader(t, aws.Config{Region: "eu-west-1"}, nil)
	orig := SQSPublisherFactory
	t.Cleanup(func() { SQSPublisherFactory = orig })

	var got sqs.PublisherConfig
	SQSPublisherFactory = func(cfg sqs.PublisherConfig, _ watermill.LoggerAdapter) (message.Publisher, error) {
		got = cfg
		return &testPublisher{}, nil
	}

	conf := &config.Config{NotifySink: SinkSQS, AWSEndpoint: "http://localhost:4566"}
	if _, err := DefaultFactory().Build(context.Background(), conf, watermill.NopLogger{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AWSConfig.Region != "eu-west-1" {
		t.Fatalf("unexpected region %q", got.AWSConfig.Region)
	}
	if len(got.OptFns) != 1 {
		t.Fatalf("expected endpoint override, got %d option funcs", len(got.OptFns))
	}
}

func TestSQSSinkLoaderError(t *testing.T) {
	stubAWSLoader(t, aws.Config{}, errBoom)

	_, err := DefaultFactory().Build(context.Background(), &config.Config{NotifySink: SinkSQS}, watermill.NopLogger{})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected loader error, got %v", err)
	}
}
