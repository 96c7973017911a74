package queue

import (
	"context"

	"code.hybscloud.com/iox"
	"github.com/samber/lo"

	"github.com/benz9527/xconc/lib/infra"
)

type queueOptions[T any] struct {
	isNil    func(v T) bool
	observer infra.RetryObserver
}

type QueueOption[T any] func(*queueOptions[T]) error

// WithQueueNilChecker replaces the default check, which rejects nil
// pointers, maps, slices, channels, funcs and interfaces.
func WithQueueNilChecker[T any](isNil func(v T) bool) QueueOption[T] {
	return func(opts *queueOptions[T]) error {
		if isNil == nil {
			return ErrInvalidArgument
		}
		opts.isNil = isNil
		return nil
	}
}

func WithQueueRetryObserver[T any](observer infra.RetryObserver) QueueOption[T] {
	return func(opts *queueOptions[T]) error {
		opts.observer = observer
		return nil
	}
}

func newQueueOptions[T any](opts ...QueueOption[T]) (*queueOptions[T], error) {
	o := &queueOptions[T]{
		isNil: func(v T) bool {
			return lo.IsNil(v)
		},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *queueOptions[T]) observeRetry(structure, op string) {
	if o.observer != nil {
		o.observer.ObserveRetry(structure, op)
	}
}

// pollContext backs off between empty polls until ctx ends.
func pollContext[T any](ctx context.Context, poll func() (T, bool)) (T, error) {
	backoff := iox.Backoff{}
	for {
		if v, ok := poll(); ok {
			return v, nil
		}
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		backoff.Wait()
	}
}
