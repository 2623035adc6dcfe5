package core

import "errors"

// Result is the outcome of a pipeline call: either Data or Error is set.
// When Error is non-nil, Data is the zero value.
type Result[T any] struct {
	Data  T
	Error *Error
}

// OK reports whether the call succeeded.
func (r *Result[T]) OK() bool {
	return r != nil && r.Error == nil
}

// Unwrap returns the result in (value, error) form.
func (r *Result[T]) Unwrap() (T, error) {
	if r.Error != nil {
		var zero T
		return zero, r.Error
	}
	return r.Data, nil
}

// Settle folds a call outcome into the Result-or-error contract.
//
// Classified errors land in Result.Error, or are returned as the Go error
// when throwOnError is set. Anything that is not a classified error is always
// returned as the Go error, so unrelated failures are never disguised as
// results.
func Settle[T any](throwOnError bool, data T, err error) (*Result[T], error) {
	if err == nil {
		return &Result[T]{Data: data}, nil
	}
	var e *Error
	if !errors.As(err, &e) {
		return nil, err
	}
	if throwOnError {
		return nil, e
	}
	return &Result[T]{Error: e}, nil
}

// MapResult converts the data of a successful result. Failures pass through
// unchanged, so facades can reshape wire types without touching errors.
func MapResult[T, U any](res *Result[T], err error, f func(T) U) (*Result[U], error) {
	if err != nil {
		return nil, err
	}
	if res.Error != nil {
		return &Result[U]{Error: res.Error}, nil
	}
	return &Result[U]{Data: f(res.Data)}, nil
}
