package workload

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/multierr"

	"github.com/benz9527/xconc/xlog"
)

var (
	ErrInvalidConfig  = errors.New("[x-workload] invalid config")
	ErrInconsistent   = errors.New("[x-workload] inconsistent structure")
	releaseTimeout    = 5 * time.Second
	defaultWorkerSize = 64
)

// Runner drives the workloads on a shared goroutine pool.
type Runner struct {
	pool   *ants.Pool
	logger xlog.XLogger
}

// NewRunner creates a pool of size workers. A workload needs one worker
// per producer, consumer, adder or remover at the same time.
func NewRunner(size int, logger xlog.XLogger) (*Runner, error) {
	if size <= 0 {
		size = defaultWorkerSize
	}
	if logger == nil {
		return nil, ErrInvalidConfig
	}
	p, err := ants.NewPool(
		size,
		ants.WithPreAlloc(true),
		ants.WithLogger(xlog.NewAntsXLogger(logger)),
	)
	if err != nil {
		return nil, err
	}
	return &Runner{
		pool:   p,
		logger: logger.Named("Workload"),
	}, nil
}

func (r *Runner) Cap() int {
	return r.pool.Cap()
}

func (r *Runner) Close() error {
	return multierr.Combine(
		r.pool.ReleaseTimeout(releaseTimeout),
		r.logger.Sync(),
	)
}

type task func(ctx context.Context) error

// run executes all the tasks concurrently and waits for them.
// The first failing task cancels the others.
func (r *Runner) run(ctx context.Context, tasks ...task) error {
	if len(tasks) > r.pool.Cap() {
		return ErrInvalidConfig
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg   sync.WaitGroup
		lock sync.Mutex
		errs error
	)
	appendErr := func(err error) {
		lock.Lock()
		defer lock.Unlock()
		errs = multierr.Append(errs, err)
	}
	for _, t := range tasks {
		wg.Add(1)
		if err := r.pool.Submit(func() {
			defer wg.Done()
			if err := t(ctx); err != nil {
				appendErr(err)
				cancel()
			}
		}); err != nil {
			wg.Done()
			appendErr(err)
			cancel()
			break
		}
	}
	wg.Wait()
	return errs
}

// pause sleeps a random duration up to interval, unless ctx ends first.
func pause(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(rand.N(interval) + 1)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	return nil
}
