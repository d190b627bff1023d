package errors

import (
	"errors"
	"strconv"
	"strings"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"ErrRuntimeRequired", ErrRuntimeRequired, "lambdaflow: runtime is required"},
		{"ErrHandlerRequired", ErrHandlerRequired, "lambdaflow: handler function is required"},
		{"ErrConfigRequired", ErrConfigRequired, "lambdaflow: configuration is required"},
		{"ErrLoggerRequired", ErrLoggerRequired, "lambdaflow: logger is required"},
		{"ErrClientRequired", ErrClientRequired, "lambdaflow: runtime api client is required"},
		{"ErrNoDecodeCapability", ErrNoDecodeCapability, "lambdaflow: input type has no decode capability"},
		{"ErrEndpointRequired", ErrEndpointRequired, "lambdaflow: runtime api endpoint is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestConfigError(t *testing.T) {
	t.Run("lists missing and invalid keys", func(t *testing.T) {
		_, parseErr := strconv.Atoi("abc")
		err := &ConfigError{
			Missing: []string{"AWS_LAMBDA_RUNTIME_API", "AWS_LAMBDA_FUNCTION_NAME"},
			Invalid: map[string]error{"AWS_LAMBDA_FUNCTION_MEMORY_SIZE": parseErr},
		}

		msg := err.Error()
		if !strings.HasPrefix(msg, "lambdaflow: invalid configuration: missing AWS_LAMBDA_RUNTIME_API, AWS_LAMBDA_FUNCTION_NAME") {
			t.Fatalf("unexpected message: %s", msg)
		}
		if !strings.Contains(msg, "invalid AWS_LAMBDA_FUNCTION_MEMORY_SIZE") {
			t.Fatalf("expected invalid key in message: %s", msg)
		}
		if !errors.Is(err, strconv.ErrSyntax) {
			t.Fatal("expected errors.Is to reach the parse failure")
		}
	})

	t.Run("empty", func(t *testing.T) {
		var nilErr *ConfigError
		if !nilErr.Empty() {
			t.Fatal("nil config error should be empty")
		}
		if !(&ConfigError{}).Empty() {
			t.Fatal("zero config error should be empty")
		}
	})
}

func TestAPIError(t *testing.T) {
	inner := errors.New("dial tcp 127.0.0.1:4312: connect: connection refused")
	err := &APIError{Kind: KindNetwork, Op: "next", Message: "fetch next invocation", Err: inner}

	if got := err.Error(); got != "fetch next invocation: "+inner.Error() {
		t.Fatalf("unexpected message %q", got)
	}
	if !errors.Is(err, inner) {
		t.Fatal("errors.Is should match wrapped error")
	}
	if IsProtocol(err) {
		t.Fatal("network error must not be classified as protocol error")
	}

	statusErr := &APIError{Kind: KindStatus, Op: "next", Message: "service unavailable"}
	if statusErr.Error() != "service unavailable" {
		t.Fatalf("unexpected message %q", statusErr.Error())
	}

	bare := &APIError{Kind: KindProtocol, Op: "next"}
	if bare.Error() != "lambdaflow: protocol error during next" {
		t.Fatalf("unexpected message %q", bare.Error())
	}
	if !IsProtocol(bare) {
		t.Fatal("expected protocol classification")
	}
}

func TestDeserializationErrors(t *testing.T) {
	if got := NewNoPayloadError().Error(); got != "No payload defined" {
		t.Fatalf("unexpected no payload message %q", got)
	}

	cause := errors.New("unexpected end of JSON input")
	err := NewDecodeError(cause)
	if !strings.HasPrefix(err.Error(), "Failed") {
		t.Fatalf("expected Failed prefix, got %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatal("decode error should unwrap to its cause")
	}
	if err.ErrorType() != "Runtime.DeserializationError" {
		t.Fatalf("unexpected error type %q", err.ErrorType())
	}
}

func TestHandlerPanicError(t *testing.T) {
	err := &HandlerPanicError{Value: "boom"}
	if err.Error() != "handler panicked: boom" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
