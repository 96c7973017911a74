package list

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/benz9527/xconc/lib/infra"
)

type setTestcase struct {
	name string
	kind SetKind
	mu   mutexEnum
}

func setTestcases() []setTestcase {
	testcases := make([]setTestcase, 0, 6)
	for _, kind := range []SetKind{FineGrained, Optimistic, Lazy} {
		for _, mu := range []mutexEnum{goNativeMutex, spinVersionMutex} {
			testcases = append(testcases, setTestcase{
				name: kind.String() + "/" + mu.String(),
				kind: kind,
				mu:   mu,
			})
		}
	}
	return testcases
}

func newIntSet(t *testing.T, kind SetKind, mu mutexEnum, opts ...SetOption[int]) OrderedSet[int] {
	switch mu {
	case spinVersionMutex:
		opts = append(opts, WithSetConcBySpin[int]())
	default:
		opts = append(opts, WithSetConcByGoNative[int]())
	}
	set, err := NewOrderedKeySet[int](kind, opts...)
	require.NoError(t, err)
	require.Equal(t, kind, set.Kind())
	return set
}

func requireStrictlyIncreasing(t *testing.T, set OrderedSet[int]) []int {
	values := set.Values()
	for i := 1; i < len(values); i++ {
		require.Less(t, values[i-1], values[i], "out of order at %d: %v", i, values)
	}
	require.Equal(t, int64(len(values)), set.Len())
	return values
}

func TestOrderedSet_DuplicateRejection(t *testing.T) {
	for _, tc := range setTestcases() {
		t.Run(tc.name, func(tt *testing.T) {
			set := newIntSet(tt, tc.kind, tc.mu)
			require.True(tt, set.Add(5))
			require.False(tt, set.Add(5))
			require.True(tt, set.Contains(5))
			require.Equal(tt, int64(1), set.Len())
			require.True(tt, set.Remove(5))
			require.False(tt, set.Remove(5))
			require.False(tt, set.Contains(5))
			require.Zero(tt, set.Len())
		})
	}
}

func TestOrderedSet_SerialOrdering(t *testing.T) {
	for _, tc := range setTestcases() {
		t.Run(tc.name, func(tt *testing.T) {
			set := newIntSet(tt, tc.kind, tc.mu)
			require.False(tt, set.Remove(1), "remove from empty set")
			require.False(tt, set.Contains(1))

			for _, v := range rand.Perm(50) {
				require.True(tt, set.Add(v))
			}
			expected := make([]int, 0, 50)
			for i := 0; i < 50; i++ {
				expected = append(expected, i)
			}
			if diff := cmp.Diff(expected, requireStrictlyIncreasing(tt, set)); diff != "" {
				tt.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
			}

			// Head, middle, tail and a value past the tail.
			for _, v := range []int{0, 25, 49} {
				require.True(tt, set.Remove(v))
			}
			require.False(tt, set.Remove(100))
			require.False(tt, set.Contains(25))
			require.True(tt, set.Contains(26))
			values := requireStrictlyIncreasing(tt, set)
			require.Len(tt, values, 47)
			require.Equal(tt, 1, values[0])
			require.Equal(tt, 48, values[len(values)-1])
		})
	}
}

func TestOrderedSet_ForeachStops(t *testing.T) {
	for _, tc := range setTestcases() {
		t.Run(tc.name, func(tt *testing.T) {
			set := newIntSet(tt, tc.kind, tc.mu)
			for _, v := range []int{3, 1, 2, 5, 4} {
				set.Add(v)
			}
			visited := make([]int, 0, 3)
			set.Foreach(func(idx int64, v int) bool {
				require.Equal(tt, int64(len(visited)), idx)
				visited = append(visited, v)
				return idx < 2
			})
			require.Equal(tt, []int{1, 2, 3}, visited)
		})
	}
}

func TestOrderedSet_ConcurrentDisjointInserts(t *testing.T) {
	for _, tc := range setTestcases() {
		t.Run(tc.name, func(tt *testing.T) {
			for round := 0; round < 100; round++ {
				set := newIntSet(tt, tc.kind, tc.mu)
				var (
					wg    sync.WaitGroup
					start = make(chan struct{})
				)
				wg.Add(3)
				for _, v := range []int{3, 1, 2} {
					go func(v int) {
						defer wg.Done()
						<-start
						assert.True(tt, set.Add(v))
					}(v)
				}
				close(start)
				wg.Wait()
				require.Equal(tt, []int{1, 2, 3}, set.Values())
			}
		})
	}
}

func TestOrderedSet_Stress(t *testing.T) {
	const (
		adders   = 4
		removers = 4
		ops      = 1000
		keySpace = 100
	)
	for _, tc := range setTestcases() {
		t.Run(tc.name, func(tt *testing.T) {
			set := newIntSet(tt, tc.kind, tc.mu)
			var added, removed atomic.Int64
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			eg, ctx := errgroup.WithContext(ctx)
			for i := 0; i < adders; i++ {
				eg.Go(func() error {
					for j := 0; j < ops; j++ {
						ok, err := set.AddContext(ctx, rand.IntN(keySpace))
						if err != nil {
							return err
						}
						if ok {
							added.Add(1)
						}
					}
					return nil
				})
			}
			for i := 0; i < removers; i++ {
				eg.Go(func() error {
					for j := 0; j < ops; j++ {
						ok, err := set.RemoveContext(ctx, rand.IntN(keySpace))
						if err != nil {
							return err
						}
						if ok {
							removed.Add(1)
						}
					}
					return nil
				})
			}
			require.NoError(tt, eg.Wait(), "stress run must finish without deadlock")

			values := requireStrictlyIncreasing(tt, set)
			require.Equal(tt, added.Load()-removed.Load(), int64(len(values)))
			for _, v := range values {
				require.GreaterOrEqual(tt, v, 0)
				require.Less(tt, v, keySpace)
				require.True(tt, set.Contains(v))
			}
		})
	}
}

func TestOrderedSet_AddContextDeadline(t *testing.T) {
	const owner = uint64(1 << 63)
	for _, tc := range setTestcases() {
		t.Run(tc.name, func(tt *testing.T) {
			set := newIntSet(tt, tc.kind, tc.mu)
			require.True(tt, set.Add(10))

			var head *setNode[int]
			switch s := set.(type) {
			case *fineGrainedSet[int]:
				head = s.head
			case *optimisticSet[int]:
				head = s.head
			case *lazySet[int]:
				head = s.head
			default:
				tt.Fatalf("unexpected set type %T", set)
			}
			head.mu.lock(owner)

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			ok, err := set.AddContext(ctx, 5)
			require.False(tt, ok)
			require.True(tt, errors.Is(err, context.DeadlineExceeded))

			ok, err = set.RemoveContext(ctx, 10)
			require.False(tt, ok)
			require.True(tt, errors.Is(err, context.DeadlineExceeded))

			require.True(tt, head.mu.unlock(owner))
			// All the locks taken before the deadline have been released.
			require.True(tt, set.Add(5))
			require.True(tt, set.Remove(10))
			require.Equal(tt, []int{5}, set.Values())
		})
	}
}

func TestOrderedSet_CanceledContext(t *testing.T) {
	for _, tc := range setTestcases() {
		t.Run(tc.name, func(tt *testing.T) {
			set := newIntSet(tt, tc.kind, tc.mu)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			ok, err := set.AddContext(ctx, 1)
			require.False(tt, ok)
			require.ErrorIs(tt, err, context.Canceled)
			require.Zero(tt, set.Len())
		})
	}
}

type setItem struct {
	key  int
	name string
}

func TestOrderedSet_ValueEquality(t *testing.T) {
	byKey := func(i, j *setItem) int {
		return infra.OrderedKeyComparator[int]()(i.key, j.key)
	}
	for _, kind := range []SetKind{FineGrained, Optimistic, Lazy} {
		t.Run(kind.String(), func(tt *testing.T) {
			set, err := NewOrderedSet[*setItem](kind, WithSetComparator[*setItem](byKey))
			require.NoError(tt, err)
			require.True(tt, set.Add(&setItem{key: 7, name: "first"}))
			// Distinct pointers with an equal key are duplicates.
			require.False(tt, set.Add(&setItem{key: 7, name: "second"}))
			require.True(tt, set.Contains(&setItem{key: 7}))
			require.True(tt, set.Remove(&setItem{key: 7}))
			require.Zero(tt, set.Len())
		})
	}
}

func TestNewOrderedSet_Errors(t *testing.T) {
	_, err := NewOrderedSet[int](Lazy)
	require.ErrorIs(t, err, ErrNilComparator)

	_, err = NewOrderedSet[int](Lazy, WithSetComparator[int](nil))
	require.ErrorIs(t, err, ErrNilComparator)

	_, err = NewOrderedKeySet[int](SetKind(0))
	require.ErrorIs(t, err, ErrUnknownSetKind)

	set, err := NewOrderedKeySet[string](Optimistic, nil, WithSetRetryStrategy[string](infra.DefaultExponentialBackoffRetry))
	require.NoError(t, err)
	require.True(t, set.Add("a"))
}

func TestParseSetKind(t *testing.T) {
	testcases := []struct {
		in       string
		expected SetKind
		err      error
	}{
		{in: "fine", expected: FineGrained},
		{in: "fine-grained", expected: FineGrained},
		{in: "optimistic", expected: Optimistic},
		{in: "lazy", expected: Lazy},
		{in: "queue", err: ErrUnknownSetKind},
	}
	for _, tc := range testcases {
		t.Run(tc.in, func(tt *testing.T) {
			kind, err := ParseSetKind(tc.in)
			if tc.err != nil {
				require.ErrorIs(tt, err, tc.err)
				return
			}
			require.NoError(tt, err)
			require.Equal(tt, tc.expected, kind)
			require.Equal(tt, tc.expected, must(ParseSetKind(kind.String())))
		})
	}
	require.Equal(t, "unknown", SetKind(0).String())
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
