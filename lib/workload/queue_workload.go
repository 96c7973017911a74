package workload

import (
	"context"
	"sync/atomic"
	"time"

	"code.hybscloud.com/iox"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/benz9527/xconc/lib/id"
	"github.com/benz9527/xconc/lib/queue"
)

type QueueConfig struct {
	Producers   int
	Consumers   int
	PerProducer int
	// Interval bounds the random pause between two operations of a worker.
	Interval time.Duration
}

func (cfg QueueConfig) validate() error {
	if cfg.Producers <= 0 || cfg.Consumers <= 0 || cfg.PerProducer <= 0 || cfg.Interval < 0 {
		return ErrInvalidConfig
	}
	return nil
}

type QueueReport struct {
	Put    int64
	Polled int64
	// SpuriousEmpty counts the empty polls seen while more puts than polls
	// had returned. It is an upper bound, another consumer may have taken
	// the element without having counted it yet.
	SpuriousEmpty int64
	Duplicates    int
	Missing       int
}

// RunQueue puts Producers*PerProducer distinct tags and drains them with
// Consumers pollers until every tag has been seen or ctx ends.
func (r *Runner) RunQueue(ctx context.Context, q queue.PutPollQueue[uint64], cfg QueueConfig) (QueueReport, error) {
	if err := cfg.validate(); err != nil {
		return QueueReport{}, err
	}

	var (
		total         = int64(cfg.Producers * cfg.PerProducer)
		gen           = id.MonotonicNonZeroID()
		seen          = make([]atomic.Int32, total+1)
		put, polled   atomic.Int64
		spuriousEmpty atomic.Int64
	)
	producer := func(ctx context.Context) error {
		for i := 0; i < cfg.PerProducer; i++ {
			if err := pause(ctx, cfg.Interval); err != nil {
				return err
			}
			v := gen()
			if err := q.Put(v); err != nil {
				return err
			}
			put.Add(1)
			r.logger.Debug("put", zap.Uint64("value", v))
		}
		return nil
	}
	consumer := func(ctx context.Context) error {
		backoff := iox.Backoff{}
		for polled.Load() < total {
			v, ok := q.Poll()
			if !ok {
				if put.Load() > polled.Load() {
					spuriousEmpty.Add(1)
				}
				if err := ctx.Err(); err != nil {
					return err
				}
				backoff.Wait()
				continue
			}
			backoff.Reset()
			polled.Add(1)
			if v == 0 || v > uint64(total) {
				r.logger.Warn("unknown value polled", zap.Uint64("value", v))
				continue
			}
			seen[v].Add(1)
			r.logger.Debug("polled", zap.Uint64("value", v))
			if err := pause(ctx, cfg.Interval); err != nil {
				return err
			}
		}
		return nil
	}

	tasks := make([]task, 0, cfg.Producers+cfg.Consumers)
	for i := 0; i < cfg.Producers; i++ {
		tasks = append(tasks, producer)
	}
	for i := 0; i < cfg.Consumers; i++ {
		tasks = append(tasks, consumer)
	}
	err := r.run(ctx, tasks...)

	tags := lo.RangeFrom[int64](1, int(total))
	report := QueueReport{
		Put:           put.Load(),
		Polled:        polled.Load(),
		SpuriousEmpty: spuriousEmpty.Load(),
		Duplicates: lo.CountBy(tags, func(tag int64) bool {
			return seen[tag].Load() > 1
		}),
		Missing: lo.CountBy(tags, func(tag int64) bool {
			return seen[tag].Load() == 0
		}),
	}
	r.logger.Info("queue workload finished",
		zap.Int64("put", report.Put),
		zap.Int64("polled", report.Polled),
		zap.Int64("spuriousEmpty", report.SpuriousEmpty),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("missing", report.Missing),
	)
	if err == nil && (report.Duplicates > 0 || report.Missing > 0) {
		err = ErrInconsistent
	}
	return report, err
}
