package list

import "context"

var (
	_ OrderedSet[int] = (*fineGrainedSet[int])(nil)
)

// fineGrainedSet locks hand-over-hand from the head. A goroutine holds
// at most the (pred, cur) pair and always takes the locks left to right.
type fineGrainedSet[T any] struct {
	*setCore[T]
}

// seek returns the locked pair pred < v <= cur. cur is nil (and not
// locked) if the chain ends first. Nothing stays locked on error.
func (s *fineGrainedSet[T]) seek(ctx context.Context, v T, version uint64) (pred, cur *setNode[T], err error) {
	if err = ctx.Err(); err != nil {
		return nil, nil, err
	}
	pred = s.head
	if err = acquire(ctx, pred.mu, version); err != nil {
		return nil, nil, err
	}
	cur = pred.loadNext()
	if cur == nil {
		return pred, nil, nil
	}
	if err = acquire(ctx, cur.mu, version); err != nil {
		pred.mu.unlock(version)
		return nil, nil, err
	}
	for s.compare(cur, v) < 0 {
		pred.mu.unlock(version)
		pred = cur
		cur = cur.loadNext()
		if cur == nil {
			return pred, nil, nil
		}
		if err = acquire(ctx, cur.mu, version); err != nil {
			pred.mu.unlock(version)
			return nil, nil, err
		}
	}
	return pred, cur, nil
}

func (s *fineGrainedSet[T]) Add(v T) bool {
	ok, _ := s.AddContext(context.Background(), v)
	return ok
}

func (s *fineGrainedSet[T]) AddContext(ctx context.Context, v T) (bool, error) {
	version := s.ver()
	pred, cur, err := s.seek(ctx, v, version)
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

func (s *fineGrainedSet[T]) Remove(v T) bool {
	ok, _ := s.RemoveContext(context.Background(), v)
	return ok
}

func (s *fineGrainedSet[T]) RemoveContext(ctx context.Context, v T) (bool, error) {
	version := s.ver()
	pred, cur, err := s.seek(ctx, v, version)
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

func (s *fineGrainedSet[T]) Contains(v T) bool {
	version := s.ver()
	pred, cur, _ := s.seek(context.Background(), v, version)
	defer s.unlockPair(pred, cur, version)
	return cur != nil && s.compare(cur, v) == 0
}
