package list

import (
	"context"
	"sync/atomic"
	"time"

	"code.hybscloud.com/spin"

	"github.com/benz9527/xconc/lib/id"
	"github.com/benz9527/xconc/lib/infra"
)

// setCore is the state shared by all the set variants: the head
// sentinel, the comparator and the lock owner ids.
// Unlinked nodes are left to the garbage collector. A goroutine still
// holding one keeps it alive, so no traversal ever reads freed memory.
type setCore[T any] struct {
	head *setNode[T]
	ver  id.Gen
	opts *setOptions[T]
	kind SetKind
	len  int64
}

func newSetCore[T any](kind SetKind, opts *setOptions[T]) *setCore[T] {
	return &setCore[T]{
		head: newSetHead[T](mutexFactory(opts.mu)),
		ver:  id.MonotonicNonZeroID(),
		opts: opts,
		kind: kind,
	}
}

func (s *setCore[T]) Kind() SetKind {
	return s.kind
}

func (s *setCore[T]) Len() int64 {
	return atomic.LoadInt64(&s.len)
}

func (s *setCore[T]) Foreach(action func(idx int64, v T) bool) {
	idx := int64(0)
	for node := s.head.loadNext(); node != nil; node = node.loadNext() {
		if !node.isAlive() {
			continue
		}
		if !action(idx, node.val) {
			return
		}
		idx++
	}
}

func (s *setCore[T]) Values() []T {
	values := make([]T, 0, max(s.Len(), 0))
	s.Foreach(func(_ int64, v T) bool {
		values = append(values, v)
		return true
	})
	return values
}

func (s *setCore[T]) compare(node *setNode[T], v T) int {
	return s.opts.cmp(node.val, v)
}

func (s *setCore[T]) newNode(v T) *setNode[T] {
	return newSetNode[T](v, mutexFactory(s.opts.mu))
}

// link splices a new node after the locked pred.
func (s *setCore[T]) link(pred, succ *setNode[T], v T) {
	node := s.newNode(v)
	node.storeNext(succ)
	pred.storeNext(node)
	atomic.AddInt64(&s.len, 1)
}

// unlink removes the locked cur from behind the locked pred.
func (s *setCore[T]) unlink(pred, cur *setNode[T]) {
	pred.storeNext(cur.loadNext())
	atomic.AddInt64(&s.len, -1)
}

// find walks the chain without locking and returns the boundary pair,
// pred < v <= cur. cur is nil when every value is less than v.
func (s *setCore[T]) find(v T) (pred, cur *setNode[T]) {
	pred = s.head
	cur = pred.loadNext()
	for cur != nil && s.compare(cur, v) < 0 {
		pred = cur
		cur = cur.loadNext()
	}
	return pred, cur
}

// lockPair locks pred and then cur if present. Nothing stays locked
// when an error is returned.
func (s *setCore[T]) lockPair(ctx context.Context, pred, cur *setNode[T], version uint64) error {
	if err := acquire(ctx, pred.mu, version); err != nil {
		return err
	}
	if cur == nil {
		return nil
	}
	if err := acquire(ctx, cur.mu, version); err != nil {
		pred.mu.unlock(version)
		return err
	}
	return nil
}

// unlockPair releases in the reverse order of lockPair.
func (s *setCore[T]) unlockPair(pred, cur *setNode[T], version uint64) {
	if cur != nil {
		cur.mu.unlock(version)
	}
	pred.mu.unlock(version)
}

// locate retries the unlocked search until it holds a locked pair that
// passes validate. Only the ctx ends the loop.
func (s *setCore[T]) locate(
	ctx context.Context,
	op string,
	v T,
	version uint64,
	validate func(pred, cur *setNode[T]) bool,
) (pred, cur *setNode[T], err error) {
	pacer := s.newPacer()
	for {
		if err = ctx.Err(); err != nil {
			return nil, nil, err
		}
		pred, cur = s.find(v)
		if err = s.lockPair(ctx, pred, cur, version); err != nil {
			return nil, nil, err
		}
		if validate(pred, cur) {
			return pred, cur, nil
		}
		s.unlockPair(pred, cur, version)
		s.observeRetry(op)
		pacer.pause()
	}
}

func (s *setCore[T]) observeRetry(op string) {
	if s.opts.observer != nil {
		s.opts.observer.ObserveRetry(s.kind.String(), op)
	}
}

func (s *setCore[T]) newPacer() *retryPacer {
	pacer := &retryPacer{}
	if s.opts.retry != nil {
		pacer.strategy = s.opts.retry()
	}
	return pacer
}

// retryPacer waits between two attempts of a validation loop.
// It never stops the loop.
type retryPacer struct {
	strategy infra.RetryStrategy
	sw       spin.Wait
}

func (p *retryPacer) pause() {
	if p.strategy != nil {
		if d := p.strategy.Next(); d > 0 {
			time.Sleep(d)
			return
		}
	}
	p.sw.Once()
}

func NewOrderedSet[T any](kind SetKind, opts ...SetOption[T]) (OrderedSet[T], error) {
	o := &setOptions[T]{mu: goNativeMutex}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.cmp == nil {
		return nil, ErrNilComparator
	}

	switch kind {
	case FineGrained:
		return &fineGrainedSet[T]{setCore: newSetCore[T](kind, o)}, nil
	case Optimistic:
		return &optimisticSet[T]{setCore: newSetCore[T](kind, o)}, nil
	case Lazy:
		return &lazySet[T]{setCore: newSetCore[T](kind, o)}, nil
	default:
	}
	return nil, ErrUnknownSetKind
}

// NewOrderedKeySet orders the values by their natural ascending order.
func NewOrderedKeySet[K infra.OrderedKey](kind SetKind, opts ...SetOption[K]) (OrderedSet[K], error) {
	opts = append([]SetOption[K]{WithSetComparator[K](infra.OrderedKeyComparator[K]())}, opts...)
	return NewOrderedSet[K](kind, opts...)
}
