package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	errspkg "github.com/drblury/lambdaflow/internal/runtime/errors"
)

// Environment variables read at process start.
const (
	EnvRuntimeAPI      = "AWS_LAMBDA_RUNTIME_API"
	EnvFunctionName    = "AWS_LAMBDA_FUNCTION_NAME"
	EnvFunctionMemory  = "AWS_LAMBDA_FUNCTION_MEMORY_SIZE"
	EnvFunctionVersion = "AWS_LAMBDA_FUNCTION_VERSION"
	EnvLogStreamName   = "AWS_LAMBDA_LOG_STREAM_NAME"
	EnvLogGroupName    = "AWS_LAMBDA_LOG_GROUP_NAME"

	EnvLogLevel = "LAMBDAFLOW_LOG_LEVEL"
	EnvLogJSON  = "LAMBDAFLOW_LOG_JSON"

	// Invocation notifications, all optional.
	EnvNotifySink       = "LAMBDAFLOW_NOTIFY_SINK"
	EnvNotifyTopic      = "LAMBDAFLOW_NOTIFY_TOPIC"
	EnvNotifyURL        = "LAMBDAFLOW_NOTIFY_URL"
	EnvNotifyBrokers    = "LAMBDAFLOW_NOTIFY_BROKERS"
	EnvNotifyErrorsOnly = "LAMBDAFLOW_NOTIFY_ERRORS_ONLY"
	EnvAWSRegion        = "AWS_REGION"
	EnvAWSAccountID     = "LAMBDAFLOW_AWS_ACCOUNT_ID"
	EnvAWSEndpoint      = "LAMBDAFLOW_AWS_ENDPOINT"
)

const (
	defaultLogLevel    = "info"
	DefaultNotifyTopic = "lambdaflow-invocations"
)

// Config describes the execution environment. It is built once at startup and
// shared read-only by every invocation.
type Config struct {
	// Endpoint is the host:port of the runtime API. A leading http:// or
	// https:// scheme is accepted for local testing.
	Endpoint     string
	FunctionName string
	// Memory is the configured function memory in MB.
	Memory    int
	Version   string
	LogStream string
	LogGroup  string

	// LogLevel and LogJSON tune the default logger. Both are optional.
	LogLevel string
	LogJSON  bool

	// NotifySink selects where invocation outcomes are published: one of
	// channel, http, sns, sqs, kafka, nats or amqp. Empty disables it.
	NotifySink  string
	NotifyTopic string
	// NotifyURL is the base URL for http, nats and amqp sinks.
	NotifyURL        string
	NotifyBrokers    []string
	NotifyErrorsOnly bool

	AWSRegion    string
	AWSAccountID string
	// AWSEndpoint overrides the SNS/SQS endpoint, e.g. for LocalStack.
	AWSEndpoint string
}

func (c Config) String() string {
	return fmt.Sprintf("function=%s version=%s memory=%dMB endpoint=%s log_group=%s log_stream=%s",
		c.FunctionName, c.Version, c.Memory, c.Endpoint, c.LogGroup, c.LogStream)
}

// Validate checks that every required field is present.
func (c *Config) Validate() error {
	var errs []error
	required := []struct {
		name  string
		value string
	}{
		{"endpoint", c.Endpoint},
		{"function name", c.FunctionName},
		{"version", c.Version},
		{"log stream", c.LogStream},
		{"log group", c.LogGroup},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			errs = append(errs, fmt.Errorf("config: %s is required", field.name))
		}
	}
	if c.Memory <= 0 {
		errs = append(errs, fmt.Errorf("config: invalid memory size %d", c.Memory))
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("config: invalid log level %q", c.LogLevel))
	}
	return errors.Join(errs...)
}

// ValidateConfig is a convenience function to validate a config pointer.
func ValidateConfig(c *Config) error {
	if c == nil {
		return errspkg.ErrConfigRequired
	}
	return c.Validate()
}

// LookupFunc resolves an environment variable.
type LookupFunc func(key string) (string, bool)

// Load builds the configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(viperLookup(newEnvViper()))
}

// LoadFrom builds the configuration from an arbitrary lookup, which keeps
// tests free of environment mutation.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	cfgErr := &errspkg.ConfigError{}
	required := func(key string) string {
		value, ok := lookup(key)
		if !ok || strings.TrimSpace(value) == "" {
			cfgErr.Missing = append(cfgErr.Missing, key)
			return ""
		}
		return value
	}

	cfg := &Config{
		Endpoint:     required(EnvRuntimeAPI),
		FunctionName: required(EnvFunctionName),
		Version:      required(EnvFunctionVersion),
		LogStream:    required(EnvLogStreamName),
		LogGroup:     required(EnvLogGroupName),
		LogLevel:     defaultLogLevel,
	}

	if raw := required(EnvFunctionMemory); raw != "" {
		memory, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			cfgErr.AddInvalid(EnvFunctionMemory, err)
		} else {
			cfg.Memory = memory
		}
	}

	if level, ok := lookup(EnvLogLevel); ok && level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}
	if raw, ok := lookup(EnvLogJSON); ok && raw != "" {
		asJSON, err := strconv.ParseBool(raw)
		if err != nil {
			cfgErr.AddInvalid(EnvLogJSON, err)
		}
		cfg.LogJSON = asJSON
	}

	optional := func(key string) string {
		value, _ := lookup(key)
		return strings.TrimSpace(value)
	}
	cfg.NotifySink = strings.ToLower(optional(EnvNotifySink))
	cfg.NotifyTopic = optional(EnvNotifyTopic)
	if cfg.NotifySink != "" && cfg.NotifyTopic == "" {
		cfg.NotifyTopic = DefaultNotifyTopic
	}
	cfg.NotifyURL = optional(EnvNotifyURL)
	cfg.NotifyBrokers = splitList(optional(EnvNotifyBrokers))
	if raw := optional(EnvNotifyErrorsOnly); raw != "" {
		errorsOnly, err := strconv.ParseBool(raw)
		if err != nil {
			cfgErr.AddInvalid(EnvNotifyErrorsOnly, err)
		}
		cfg.NotifyErrorsOnly = errorsOnly
	}
	cfg.AWSRegion = optional(EnvAWSRegion)
	cfg.AWSAccountID = optional(EnvAWSAccountID)
	cfg.AWSEndpoint = optional(EnvAWSEndpoint)

	if !cfgErr.Empty() {
		return nil, cfgErr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newEnvViper() *viper.Viper {
	v := viper.New()
	for _, key := range []string{
		EnvRuntimeAPI,
		EnvFunctionName,
		EnvFunctionMemory,
		EnvFunctionVersion,
		EnvLogStreamName,
		EnvLogGroupName,
		EnvLogLevel,
		EnvLogJSON,
		EnvNotifySink,
		EnvNotifyTopic,
		EnvNotifyURL,
		EnvNotifyBrokers,
		EnvNotifyErrorsOnly,
		EnvAWSRegion,
		EnvAWSAccountID,
		EnvAWSEndpoint,
	} {
		// BindEnv only fails when called without a key.
		_ = v.BindEnv(key)
	}
	return v
}

func viperLookup(v *viper.Viper) LookupFunc {
	return func(key string) (string, bool) {
		if !v.IsSet(key) {
			return "", false
		}
		return v.GetString(key), true
	}
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
