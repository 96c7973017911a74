package list

import (
	"context"
	"errors"
)

var (
	ErrUnknownSetKind = errors.New("[x-set] unknown ordered set kind")
	ErrNilComparator  = errors.New("[x-set] nil comparator")
)

// OrderedSet is a concurrent set keeping its values in ascending order.
// Duplicates are decided by the comparator returning 0.
type OrderedSet[T any] interface {
	Kind() SetKind
	// Len is advisory, it is not updated at the linearization point.
	Len() int64
	// Add returns true if v was inserted, false if an equal value is present.
	Add(v T) bool
	// Remove returns true if v was removed, false if it was absent.
	Remove(v T) bool
	// AddContext works like Add, but every node lock acquisition gives up
	// when ctx ends. The held locks are released and the ctx error returned.
	AddContext(ctx context.Context, v T) (bool, error)
	RemoveContext(ctx context.Context, v T) (bool, error)
	Contains(v T) bool
	// Foreach walks the chain from the head without locking, so it only
	// yields a consistent snapshot when no operation is in flight.
	// Stop the iteration by returning false.
	Foreach(action func(idx int64, v T) bool)
	Values() []T
}

type SetKind uint8

const (
	FineGrained SetKind = 1 + iota
	Optimistic
	Lazy
)

func (kind SetKind) String() string {
	switch kind {
	case FineGrained:
		return "fine-grained"
	case Optimistic:
		return "optimistic"
	case Lazy:
		return "lazy"
	default:
	}
	return "unknown"
}

func ParseSetKind(s string) (SetKind, error) {
	switch s {
	case "fine", "fine-grained":
		return FineGrained, nil
	case "optimistic":
		return Optimistic, nil
	case "lazy":
		return Lazy, nil
	default:
	}
	return 0, ErrUnknownSetKind
}
