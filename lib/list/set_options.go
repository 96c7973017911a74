package list

import (
	"github.com/benz9527/xconc/lib/infra"
)

type setOptions[T any] struct {
	cmp      infra.Comparator[T]
	mu       mutexEnum
	retry    infra.RetryStrategyFactory
	observer infra.RetryObserver
}

type SetOption[T any] func(*setOptions[T]) error

func WithSetComparator[T any](cmp infra.Comparator[T]) SetOption[T] {
	return func(opts *setOptions[T]) error {
		if cmp == nil {
			return ErrNilComparator
		}
		opts.cmp = cmp
		return nil
	}
}

// WithSetConcByGoNative guards the nodes by sync.Mutex. It is the default.
func WithSetConcByGoNative[T any]() SetOption[T] {
	return func(opts *setOptions[T]) error {
		opts.mu = goNativeMutex
		return nil
	}
}

// WithSetConcBySpin guards the nodes by an owner-versioned spin lock.
func WithSetConcBySpin[T any]() SetOption[T] {
	return func(opts *setOptions[T]) error {
		opts.mu = spinVersionMutex
		return nil
	}
}

// WithSetRetryStrategy paces the optimistic and lazy retry loops.
// A new strategy is created per operation. Without it the loops spin
// adaptively.
func WithSetRetryStrategy[T any](factory infra.RetryStrategyFactory) SetOption[T] {
	return func(opts *setOptions[T]) error {
		opts.retry = factory
		return nil
	}
}

func WithSetRetryObserver[T any](observer infra.RetryObserver) SetOption[T] {
	return func(opts *setOptions[T]) error {
		opts.observer = observer
		return nil
	}
}
