// Package result holds a tagged value-or-error type for batch operations, where each
// item of a batch succeeds or fails on its own and the caller decides how to combine them.
package result

import "github.com/pkg/errors"

// Result is either a value or an error.
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err wraps an error. A nil error is replaced by ErrNil so that an error result never
// looks successful.
func Err[T any](err error) Result[T] {
	if err == nil {
		err = ErrNil
	}
	return Result[T]{err: err}
}

// ErrNil marks an error result constructed from a nil error.
var ErrNil = errors.New("nil error")

// Of builds a result from a (value, error) pair.
func Of[T any](value T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return Ok(value)
}

func (r Result[T]) IsOk() bool { return r.err == nil }

func (r Result[T]) Error() error { return r.err }

// Get returns the value and the error.
func (r Result[T]) Get() (T, error) {
	return r.value, r.err
}

// ValueOr returns the value, or fallback for an error result.
func (r Result[T]) ValueOr(fallback T) T {
	if r.err != nil {
		return fallback
	}
	return r.value
}

// Map applies f to the value of a successful result.
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if r.err != nil {
		return Err[U](r.err)
	}
	return Ok(f(r.value))
}

// AndThen chains a fallible step onto a successful result.
func AndThen[T, U any](r Result[T], f func(T) (U, error)) Result[U] {
	if r.err != nil {
		return Err[U](r.err)
	}
	return Of(f(r.value))
}

// Fold collects the values of results in order, stopping at the first error.
func Fold[T any](results []Result[T]) ([]T, error) {
	values := make([]T, 0, len(results))
	for i, r := range results {
		if r.err != nil {
			return nil, errors.Wrapf(r.err, "item %d", i)
		}
		values = append(values, r.value)
	}
	return values, nil
}

// Collect splits results into the values of the successful ones and the errors of the
// others, keeping their order.
func Collect[T any](results []Result[T]) ([]T, []error) {
	var values []T
	var errs []error
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		values = append(values, r.value)
	}
	return values, errs
}
