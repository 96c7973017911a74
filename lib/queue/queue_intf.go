package queue

import (
	"context"
	"errors"
)

var (
	ErrInvalidArgument = errors.New("[x-queue] invalid argument")
)

// PutPollQueue is an unbounded FIFO queue.
type PutPollQueue[T any] interface {
	// Put rejects the nil-equivalent values with ErrInvalidArgument.
	Put(v T) error
	// Poll never blocks. It returns false if no element is visible at the head.
	Poll() (T, bool)
	// PollContext retries Poll until an element shows up or ctx ends.
	PollContext(ctx context.Context) (T, error)
	// Len is advisory, it is not updated at the linearization point.
	Len() int64
}
