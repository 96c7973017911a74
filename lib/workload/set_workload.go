package workload

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/benz9527/xconc/lib/list"
)

type SetConfig struct {
	Adders   int
	Removers int
	Ops      int
	// Values are drawn from [0, KeySpace).
	KeySpace int
	Interval time.Duration
}

func (cfg SetConfig) validate() error {
	if cfg.Adders < 0 || cfg.Removers < 0 || cfg.Adders+cfg.Removers == 0 ||
		cfg.Ops <= 0 || cfg.KeySpace <= 0 || cfg.Interval < 0 {
		return ErrInvalidConfig
	}
	return nil
}

type SetReport struct {
	Added        int64
	AddRejected  int64
	Removed      int64
	RemoveMissed int64
	// Final is the snapshot taken once every worker has returned.
	Final []int
}

// RunSet lets Adders and Removers issue Ops random operations each on
// the same set, then checks the snapshot is strictly increasing and
// agrees with the counted outcomes.
func (r *Runner) RunSet(ctx context.Context, set list.OrderedSet[int], cfg SetConfig) (SetReport, error) {
	if err := cfg.validate(); err != nil {
		return SetReport{}, err
	}

	var added, addRejected, removed, removeMissed atomic.Int64
	worker := func(
		op string,
		fn func(ctx context.Context, v int) (bool, error),
		hit, miss *atomic.Int64,
	) task {
		return func(ctx context.Context) error {
			for i := 0; i < cfg.Ops; i++ {
				if err := pause(ctx, cfg.Interval); err != nil {
					return err
				}
				v := rand.IntN(cfg.KeySpace)
				ok, err := fn(ctx, v)
				if err != nil {
					return err
				}
				if ok {
					hit.Add(1)
				} else {
					miss.Add(1)
				}
				r.logger.Debug(op, zap.String("set", set.Kind().String()), zap.Int("value", v), zap.Bool("ok", ok))
			}
			return nil
		}
	}

	tasks := make([]task, 0, cfg.Adders+cfg.Removers)
	for i := 0; i < cfg.Adders; i++ {
		tasks = append(tasks, worker("add", set.AddContext, &added, &addRejected))
	}
	for i := 0; i < cfg.Removers; i++ {
		tasks = append(tasks, worker("remove", set.RemoveContext, &removed, &removeMissed))
	}
	err := r.run(ctx, tasks...)

	report := SetReport{
		Added:        added.Load(),
		AddRejected:  addRejected.Load(),
		Removed:      removed.Load(),
		RemoveMissed: removeMissed.Load(),
		Final:        set.Values(),
	}
	r.logger.Info("set workload finished",
		zap.String("set", set.Kind().String()),
		zap.Int64("added", report.Added),
		zap.Int64("addRejected", report.AddRejected),
		zap.Int64("removed", report.Removed),
		zap.Int64("removeMissed", report.RemoveMissed),
		zap.Int("final", len(report.Final)),
	)
	if err != nil {
		return report, err
	}
	for i := 1; i < len(report.Final); i++ {
		if report.Final[i-1] >= report.Final[i] {
			r.logger.Error(ErrInconsistent, "set is not strictly increasing", zap.Ints("final", report.Final))
			return report, ErrInconsistent
		}
	}
	if int64(len(report.Final)) != report.Added-report.Removed {
		r.logger.Error(ErrInconsistent, "set size does not match the outcomes", zap.Int("final", len(report.Final)))
		return report, ErrInconsistent
	}
	return report, nil
}
