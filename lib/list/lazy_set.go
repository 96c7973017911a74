package list

import "context"

var (
	_ OrderedSet[int] = (*lazySet[int])(nil)
)

// lazySet removes in two steps, mark dead then unlink, so that a
// locked pair is validated by the liveness flags alone.
type lazySet[T any] struct {
	*setCore[T]
}

func (s *lazySet[T]) validate(pred, cur *setNode[T]) bool {
	return pred.isAlive() &&
		(cur == nil || cur.isAlive()) &&
		pred.loadNext() == cur
}

func (s *lazySet[T]) Add(v T) bool {
	ok, _ := s.AddContext(context.Background(), v)
	return ok
}

func (s *lazySet[T]) AddContext(ctx context.Context, v T) (bool, error) {
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

func (s *lazySet[T]) Remove(v T) bool {
	ok, _ := s.RemoveContext(context.Background(), v)
	return ok
}

func (s *lazySet[T]) RemoveContext(ctx context.Context, v T) (bool, error) {
	version := s.ver()
	pred, cur, err := s.locate(ctx, "remove", v, version, s.validate)
	if err != nil {
		return false, err
	}
	defer s.unlockPair(pred, cur, version)

	if cur == nil || s.compare(cur, v) != 0 {
		return false, nil
	}
	cur.markDead()
	s.unlink(pred, cur)
	return true, nil
}

// Contains takes no lock and never retries.
func (s *lazySet[T]) Contains(v T) bool {
	_, cur := s.find(v)
	return cur != nil && s.compare(cur, v) == 0 && cur.isAlive()
}
