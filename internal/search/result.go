package search

// Result carries either a value or the error that prevented it. Service
// methods return results so that only the tool boundary decides how a
// failure is presented.
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a successful value
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Fail wraps an error
func Fail[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// Unwrap returns the value and error
func (r Result[T]) Unwrap() (T, error) {
	return r.value, r.err
}

// Err returns the error, nil on success
func (r Result[T]) Err() error {
	return r.err
}

// Failed reports whether the result holds an error
func (r Result[T]) Failed() bool {
	return r.err != nil
}
