package queue

import (
	"context"
	"sync"

	"code.hybscloud.com/atomix"
)

var (
	_ PutPollQueue[int] = (*roughSyncQueue[int])(nil)
)

// roughSyncQueue keeps the same node chain as the lock-free queue,
// but one mutex serializes every put and poll.
type roughSyncQueue[T any] struct {
	lock sync.Mutex
	head *queueNode[T]
	tail *queueNode[T]
	size atomix.Int64
	opts *queueOptions[T]
}

func NewRoughSyncQueue[T any](opts ...QueueOption[T]) (PutPollQueue[T], error) {
	o, err := newQueueOptions[T](opts...)
	if err != nil {
		return nil, err
	}
	return &roughSyncQueue[T]{opts: o}, nil
}

func (q *roughSyncQueue[T]) Put(v T) error {
	if q.opts.isNil(v) {
		return ErrInvalidArgument
	}
	n := &queueNode[T]{val: v}

	q.lock.Lock()
	defer q.lock.Unlock()
	if q.head == nil {
		q.head = n
	}
	if q.tail != nil {
		q.tail.next.Store(n)
	}
	q.tail = n
	q.size.Add(1)
	return nil
}

func (q *roughSyncQueue[T]) Poll() (T, bool) {
	var zero T
	q.lock.Lock()
	defer q.lock.Unlock()
	h := q.head
	if h == nil {
		return zero, false
	}
	q.head = h.next.Load()
	if q.head == nil {
		q.tail = nil
	}
	q.size.Add(-1)
	v := h.val
	h.val = zero
	return v, true
}

func (q *roughSyncQueue[T]) PollContext(ctx context.Context) (T, error) {
	return pollContext[T](ctx, q.Poll)
}

func (q *roughSyncQueue[T]) Len() int64 {
	return q.size.Load()
}
