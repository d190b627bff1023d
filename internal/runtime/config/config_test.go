package config

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	errspkg "github.com/drblury/lambdaflow/internal/runtime/errors"
)

func fullEnv() map[string]string {
	return map[string]string{
		EnvRuntimeAPI:      "127.0.0.1:9001",
		EnvFunctionName:    "orders",
		EnvFunctionMemory:  "512",
		EnvFunctionVersion: "$LATEST",
		EnvLogStreamName:   "2026/10/14/[$LATEST]abc",
		EnvLogGroupName:    "/aws/lambda/orders",
	}
}

func lookupFrom(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoadFromAllPresent(t *testing.T) {
	cfg, err := LoadFrom(lookupFrom(fullEnv()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Endpoint != "127.0.0.1:9001" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.FunctionName != "orders" {
		t.Errorf("FunctionName = %q", cfg.FunctionName)
	}
	if cfg.Memory != 512 {
		t.Errorf("Memory = %d, want 512", cfg.Memory)
	}
	if cfg.Version != "$LATEST" {
		t.Errorf("Version = %q", cfg.Version)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default info", cfg.LogLevel)
	}
	if cfg.LogJSON {
		t.Error("LogJSON should default to false")
	}
}

func TestLoadFromMissingKeys(t *testing.T) {
	env := fullEnv()
	delete(env, EnvRuntimeAPI)
	env[EnvLogGroupName] = "  "

	_, err := LoadFrom(lookupFrom(env))
	var cfgErr *errspkg.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T (%v)", err, err)
	}
	if len(cfgErr.Missing) != 2 {
		t.Fatalf("expected 2 missing keys, got %v", cfgErr.Missing)
	}
	if cfgErr.Missing[0] != EnvRuntimeAPI || cfgErr.Missing[1] != EnvLogGroupName {
		t.Errorf("unexpected missing keys %v", cfgErr.Missing)
	}
}

func TestLoadFromInvalidMemory(t *testing.T) {
	env := fullEnv()
	env[EnvFunctionMemory] = "lots"

	_, err := LoadFrom(lookupFrom(env))
	var cfgErr *errspkg.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if _, ok := cfgErr.Invalid[EnvFunctionMemory]; !ok {
		t.Fatalf("expected %s to be invalid: %v", EnvFunctionMemory, err)
	}
	if !errors.Is(err, strconv.ErrSyntax) {
		t.Error("expected errors.Is to reach strconv.ErrSyntax")
	}
}

func TestLoadFromLoggingOptions(t *testing.T) {
	t.Run("parsed", func(t *testing.T) {
		env := fullEnv()
		env[EnvLogLevel] = "DEBUG"
		env[EnvLogJSON] = "true"

		cfg, err := LoadFrom(lookupFrom(env))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.LogLevel != "debug" || !cfg.LogJSON {
			t.Errorf("unexpected logging options level=%q json=%v", cfg.LogLevel, cfg.LogJSON)
		}
	})

	t.Run("bad json flag", func(t *testing.T) {
		env := fullEnv()
		env[EnvLogJSON] = "sometimes"

		_, err := LoadFrom(lookupFrom(env))
		assertErrorContains(t, err, "invalid "+EnvLogJSON)
	})

	t.Run("unknown level", func(t *testing.T) {
		env := fullEnv()
		env[EnvLogLevel] = "chatty"

		_, err := LoadFrom(lookupFrom(env))
		assertErrorContains(t, err, `config: invalid log level "chatty"`)
	})
}

func TestLoadReadsProcessEnvironment(t *testing.T) {
	for k, v := range fullEnv() {
		t.Setenv(k, v)
	}
	t.Setenv(EnvFunctionMemory, "128")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Memory != 128 {
		t.Errorf("Memory = %d, want 128", cfg.Memory)
	}
	if cfg.LogGroup != "/aws/lambda/orders" {
		t.Errorf("LogGroup = %q", cfg.LogGroup)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("zero config", func(t *testing.T) {
		err := (&Config{}).Validate()
		assertErrorContains(t, err, "config: endpoint is required")
		assertErrorContains(t, err, "config: invalid memory size 0")
	})

	t.Run("valid", func(t *testing.T) {
		cfg := Config{
			Endpoint:     "localhost:9001",
			FunctionName: "fn",
			Memory:       128,
			Version:      "1",
			LogStream:    "s",
			LogGroup:     "g",
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestValidateConfigNil(t *testing.T) {
	if err := ValidateConfig(nil); !errors.Is(err, errspkg.ErrConfigRequired) {
		t.Errorf("expected ErrConfigRequired, got %v", err)
	}
}

func TestConfigString(t *testing.T) {
	cfg := Config{FunctionName: "orders", Version: "7", Memory: 256, Endpoint: "localhost:9001"}
	str := cfg.String()
	for _, want := range []string{"function=orders", "version=7", "memory=256MB", "endpoint=localhost:9001"} {
		if !strings.Contains(str, want) {
			t.Errorf("String() = %q, missing %q", str, want)
		}
	}
}

func assertErrorContains(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Errorf("expected error containing %q, got nil", want)
		return
	}
	if !strings.Contains(err.Error(), want) {
		t.Errorf("expected error containing %q, got %q", want, err.Error())
	}
}

func TestLoadFromNotifyOptions(t *testing.T) {
	env := fullEnv()
	env[EnvNotifySink] = " SNS "
	env[EnvNotifyBrokers] = "b1:9092, b2:9092,,"
	env[EnvNotifyErrorsOnly] = "true"
	env[EnvAWSRegion] = "eu-central-1"
	env[EnvAWSEndpoint] = "http://localhost:4566"

	cfg, err := LoadFrom(lookupFrom(env))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.NotifySink != "sns" {
		t.Errorf("NotifySink = %q", cfg.NotifySink)
	}
	if cfg.NotifyTopic != DefaultNotifyTopic {
		t.Errorf("NotifyTopic = %q, want default", cfg.NotifyTopic)
	}
	if len(cfg.NotifyBrokers) != 2 || cfg.NotifyBrokers[1] != "b2:9092" {
		t.Errorf("NotifyBrokers = %v", cfg.NotifyBrokers)
	}
	if !cfg.NotifyErrorsOnly {
		t.Error("NotifyErrorsOnly not set")
	}
	if cfg.AWSRegion != "eu-central-1" || cfg.AWSEndpoint != "http://localhost:4566" {
		t.Errorf("AWS settings = %q %q", cfg.AWSRegion, cfg.AWSEndpoint)
	}
}

func TestLoadFromNotifyDisabledByDefault(t *testing.T) {
	cfg, err := LoadFrom(lookupFrom(fullEnv()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.NotifySink != "" || cfg.NotifyTopic != "" {
		t.Errorf("notifications should be off, got sink=%q topic=%q", cfg.NotifySink, cfg.NotifyTopic)
	}
}

func TestLoadFromInvalidNotifyErrorsOnly(t *testing.T) {
	env := fullEnv()
	env[EnvNotifyErrorsOnly] = "sometimes"

	_, err := LoadFrom(lookupFrom(env))
	var cfgErr *errspkg.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if _, ok := cfgErr.Invalid[EnvNotifyErrorsOnly]; !ok {
		t.Fatalf("expected %s to be invalid, got %v", EnvNotifyErrorsOnly, cfgErr)
	}
}
