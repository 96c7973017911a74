package list

import "sync/atomic"

// setNode is a link of the ordered set chain.
// The value is immutable once the node is published. The head sentinel
// holds the zero value and is never compared.
type setNode[T any] struct {
	val   T
	next  atomic.Pointer[setNode[T]]
	mu    nodeMutex
	flags flagBits
}

func newSetNode[T any](val T, mu nodeMutex) *setNode[T] {
	return &setNode[T]{
		val: val,
		mu:  mu,
	}
}

func newSetHead[T any](mu nodeMutex) *setNode[T] {
	head := &setNode[T]{mu: mu}
	head.flags.atomicSet(nodeHeadMarked)
	return head
}

func (node *setNode[T]) loadNext() *setNode[T] {
	return node.next.Load()
}

func (node *setNode[T]) storeNext(next *setNode[T]) {
	node.next.Store(next)
}

func (node *setNode[T]) isHead() bool {
	return node.flags.atomicIsSet(nodeHeadMarked)
}

// isAlive reports false once the node has been logically deleted.
// Only the lazy set marks nodes, so the others are always alive.
func (node *setNode[T]) isAlive() bool {
	return !node.flags.atomicIsSet(nodeDeadMarked)
}

func (node *setNode[T]) markDead() {
	node.flags.atomicSet(nodeDeadMarked)
}
