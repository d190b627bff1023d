package handlers

// Result is a handler output that is either a value or a failure.
type Result[T any] struct {
	value T
	err   error
}

func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Err builds a failed result. A nil cause yields an Ok result with the zero
// value.
func Err[T any](cause error) Result[T] {
	return Result[T]{err: cause}
}

func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// Get returns the value and the failure cause.
func (r Result[T]) Get() (T, error) {
	return r.value, r.err
}

type resultCarrier interface {
	parts() (any, error)
}

func (r Result[T]) parts() (any, error) {
	return r.value, r.err
}
