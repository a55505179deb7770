package generic

import "fmt"

// Result holds the (T, error) pair returned by a function, so it can be passed around as one value, e.g. over a
// channel.
type Result[T any] struct {
	Value T
	Error error
}

func NewResult[T any](value T, err error) Result[T] {
	return Result[T]{Value: value, Error: err}
}

func Ok[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

func Err[T any](err error) Result[T] {
	return Result[T]{Error: err}
}

func (r *Result[T]) IsErr() bool {
	return r.Error != nil
}

// Parts splits the Result back into (T, error).
func (r Result[T]) Parts() (T, error) {
	return r.Value, r.Error
}

// Expect returns the value, or panics with msg if there is an error.
func (r Result[T]) Expect(msg string) T {
	if r.IsErr() {
		panic(fmt.Errorf("%s: %w", msg, r.Error))
	}
	return r.Value
}

// Unwrap is for calls that can only fail because of a programming error: it returns the value, or panics.
func Unwrap[T any](value T, err error) T {
	return NewResult(value, err).Expect("unexpected error")
}

// Unwrap_ is like Unwrap, for functions that only return an error.
func Unwrap_(err error) {
	NewResult(NewVoid(), err).Expect("unexpected error")
}
