package list

import "context"

var (
	_ OrderedSet[int] = (*optimisticSet[int])(nil)
)

// optimisticSet searches without locks, locks the boundary pair and
// then walks from the head again to prove the pair is still linked.
type optimisticSet[T any] struct {
	*setCore[T]
}

// validate reports whether pred is still reachable and still points to cur.
// The chain is sorted, so the walk gives up as soon as it passes pred's value.
func (s *optimisticSet[T]) validate(pred, cur *setNode[T]) bool {
	for node := s.head; node != nil; node = node.loadNext() {
		if node == pred {
			return pred.loadNext() == cur
		}
		if !node.isHead() && !pred.isHead() && s.compare(node, pred.val) > 0 {
			return false
		}
	}
	return false
}

func (s *optimisticSet[T]) Add(v T) bool {
	ok, _ := s.AddContext(context.Background(), v)
	return ok
}

func (s *optimisticSet[T]) AddContext(ctx context.Context, v T) (bool, error) {
	version := s.ver()
	pred, cur, err := s.locate(ctx, "add", v, version, s.validate)
	if err != nil {
		return false, err
	}
	defer s.unlockPair(pred, cur, version)

	if cur != nil && s.compare(cur, v) == 0 {
		return false, nil
	}
	s.link(pred, cur, v)
	return true, nil
}

func (s *optimisticSet[T]) Remove(v T) bool {
	ok, _ := s.RemoveContext(context.Background(), v)
	return ok
}

func (s *optimisticSet[T]) RemoveContext(ctx context.Context, v T) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	// Nothing to lock when the unlocked search runs off the chain.
	if _, cur := s.find(v); cur == nil {
		return false, nil
	}

	version := s.ver()
	pred, cur, err := s.locate(ctx, "remove", v, version, s.validate)
	if err != nil {
		return false, err
	}
	defer s.unlockPair(pred, cur, version)

	if cur == nil || s.compare(cur, v) != 0 {
		return false, nil
	}
	s.unlink(pred, cur)
	return true, nil
}

func (s *optimisticSet[T]) Contains(v T) bool {
	version := s.ver()
	pred, cur, _ := s.locate(context.Background(), "contains", v, version, s.validate)
	defer s.unlockPair(pred, cur, version)
	return cur != nil && s.compare(cur, v) == 0
}
