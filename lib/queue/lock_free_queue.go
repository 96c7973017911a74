package queue

import (
	"context"
	"sync/atomic"
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
	"golang.org/x/sys/cpu"
)

const (
	cacheLinePadSize  = unsafe.Sizeof(cpu.CacheLinePad{})
	lockFreeQueueName = "lock-free-queue"
)

var (
	_ PutPollQueue[int] = (*lockFreeQueue[int])(nil)
)

type queueNode[T any] struct {
	val  T
	next atomic.Pointer[queueNode[T]]
	// prev is the tail observed by the put that created this node.
	// Only that put reads it, and only until the node is linked.
	prev *queueNode[T]
}

// lockFreeQueue is a linked FIFO queue driven by two CAS loops, producers
// race on the tail and consumers race on the head.
//
// A put first swaps the tail and links the old tail to the new node
// afterwards. Until the link is written, the new node cannot be reached
// from the head and Poll may report an empty queue although a put is in
// flight. Callers that must not miss it retry, see PollContext.
//
// A consumer that takes the last node seals its next link with a
// sentinel. The put that still has to link behind a sealed node installs
// its node as the new head instead, so no element is ever dropped.
type lockFreeQueue[T any] struct {
	_      [cacheLinePadSize - unsafe.Sizeof(uintptr(0))]byte
	head   atomic.Pointer[queueNode[T]]
	_      [cacheLinePadSize - unsafe.Sizeof(uintptr(0))]byte
	tail   atomic.Pointer[queueNode[T]]
	_      [cacheLinePadSize - unsafe.Sizeof(uintptr(0))]byte
	size   atomix.Int64
	sealed *queueNode[T]
	opts   *queueOptions[T]
}

func NewLockFreeQueue[T any](opts ...QueueOption[T]) (PutPollQueue[T], error) {
	o, err := newQueueOptions[T](opts...)
	if err != nil {
		return nil, err
	}
	return &lockFreeQueue[T]{
		sealed: &queueNode[T]{},
		opts:   o,
	}, nil
}

func (q *lockFreeQueue[T]) Put(v T) error {
	if q.opts.isNil(v) {
		return ErrInvalidArgument
	}

	n := &queueNode[T]{val: v}
	sw := spin.Wait{}
	for {
		tail := q.tail.Load()
		n.prev = tail
		if q.tail.CompareAndSwap(tail, n) {
			break
		}
		q.opts.observeRetry(lockFreeQueueName, "put")
		sw.Once()
	}
	q.link(n)
	q.size.Add(1)
	return nil
}

// link makes n reachable once it owns the tail.
func (q *lockFreeQueue[T]) link(n *queueNode[T]) {
	prev := n.prev
	n.prev = nil
	switch {
	case prev == nil:
		// The very first put, nothing to link behind.
		q.head.CompareAndSwap(nil, n)
	case !prev.next.CompareAndSwap(nil, n):
		// prev was taken as the last node and sealed. Its consumer either
		// cleared the head already or is about to.
		if !q.head.CompareAndSwap(prev, n) {
			q.head.CompareAndSwap(nil, n)
		}
	default:
	}
}

func (q *lockFreeQueue[T]) Poll() (T, bool) {
	var zero T
	sw := spin.Wait{}
	for {
		h := q.head.Load()
		if h == nil {
			return zero, false
		}
		next := h.next.Load()
		switch next {
		case q.sealed:
			// Another consumer took the last node, the head is being replaced.
			return zero, false
		case nil:
			if !h.next.CompareAndSwap(nil, q.sealed) {
				// A put linked behind h in the meantime.
				continue
			}
			// Fails if the pending put already moved the head past h.
			q.head.CompareAndSwap(h, nil)
		default:
			if !q.head.CompareAndSwap(h, next) {
				q.opts.observeRetry(lockFreeQueueName, "poll")
				sw.Once()
				continue
			}
		}
		q.size.Add(-1)
		v := h.val
		h.val = zero
		return v, true
	}
}

func (q *lockFreeQueue[T]) PollContext(ctx context.Context) (T, error) {
	return pollContext[T](ctx, q.Poll)
}

func (q *lockFreeQueue[T]) Len() int64 {
	return max(q.size.Load(), 0)
}
