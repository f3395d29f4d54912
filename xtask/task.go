// Package xtask provides a deferred computation type. A Task describes work
// that yields either a value or an error, and does nothing until it is run.
// Tasks compose with Chain and Map without starting any of the steps.
package xtask

import (
	"context"
	"errors"
	"fmt"
)

// ErrNilTask is returned when running a Task that was never constructed.
var ErrNilTask = errors.New("task is nil")

// Task is a lazily started computation that succeeds with a T or fails with
// an error.
type Task[T any] func(ctx context.Context) (T, error)

// PanicError is the failure of a Task whose computation panicked.
type PanicError struct {
	Value any
}

// Error returns the panic value formatted as a string.
func (e PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(e.Value)
}

// Unwrap returns the panic value if it was an error.
func (e PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Of returns a Task that succeeds with v.
func Of[T any](v T) Task[T] {
	return func(context.Context) (T, error) {
		return v, nil
	}
}

// Fail returns a Task that fails with err.
func Fail[T any](err error) Task[T] {
	return func(context.Context) (T, error) {
		var zero T
		return zero, err
	}
}

// Run starts the computation and waits for its result. A panic inside the
// computation is recovered and returned as a PanicError.
func (t Task[T]) Run(ctx context.Context) (v T, err error) {
	if t == nil {
		return v, ErrNilTask
	}

	defer func() {
		if r := recover(); r != nil {
			var zero T
			v, err = zero, PanicError{Value: r}
		}
	}()

	return t(ctx)
}

// Chain returns a Task that runs t and, if it succeeds, runs the Task produced
// by fn from its value. A failure of t is propagated unchanged and fn is never
// called.
func Chain[T, U any](t Task[T], fn func(T) Task[U]) Task[U] {
	return func(ctx context.Context) (U, error) {
		v, err := t.Run(ctx)
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v).Run(ctx)
	}
}

// Map returns a Task that transforms the successful value of t with fn.
func Map[T, U any](t Task[T], fn func(T) U) Task[U] {
	return func(ctx context.Context) (U, error) {
		v, err := t.Run(ctx)
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v), nil
	}
}

// Fold runs t and branches on its outcome.
func Fold[T, R any](
	ctx context.Context, t Task[T], onFailure func(error) R, onSuccess func(T) R,
) R {
	v, err := t.Run(ctx)
	if err != nil {
		return onFailure(err)
	}
	return onSuccess(v)
}

// Result is the outcome of a started Task.
type Result[T any] struct {
	Value T
	Err   error
}

// Start runs t on a new goroutine. The returned channel receives exactly one
// Result and is then closed.
func Start[T any](ctx context.Context, t Task[T]) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		defer close(ch)
		v, err := t.Run(ctx)
		ch <- Result[T]{Value: v, Err: err}
	}()
	return ch
}
