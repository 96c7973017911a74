package main

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xconc/lib/infra"
	"github.com/benz9527/xconc/lib/list"
	"github.com/benz9527/xconc/lib/queue"
	"github.com/benz9527/xconc/lib/workload"
	"github.com/benz9527/xconc/observability"
	"github.com/benz9527/xconc/xlog"
)

const metricsInterval = 10 * time.Second

func newLogger(lc fx.Lifecycle, cfg *config) (xlog.XLogger, error) {
	logger, err := xlog.NewXLogger(
		xlog.WithXLoggerLevel(xlog.ParseLogLevel(cfg.logLevel)),
		xlog.WithXLoggerEncoder(xlog.JSON),
	)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(func() error {
		return multierr.Combine(logger.Sync(), logger.Close())
	}))
	return logger, nil
}

func newMeterProvider(lc fx.Lifecycle, cfg *config) (metric.MeterProvider, error) {
	shutdown, err := observability.InitMetrics(cfg.metrics, metricsInterval)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(shutdown))
	if err = observability.InitAppStats("xconc"); err != nil {
		return nil, multierr.Append(err, shutdown(context.Background()))
	}
	return otel.GetMeterProvider(), nil
}

func newRunner(lc fx.Lifecycle, cfg *config, logger xlog.XLogger) (*workload.Runner, error) {
	runner, err := workload.NewRunner(cfg.workers, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(runner.Close))
	return runner, nil
}

func newRetryObserver(mp metric.MeterProvider) (infra.RetryObserver, error) {
	return observability.NewRetryObserver(mp)
}

// runWorkload builds the structure picked by the mode and runs the
// matching workload on it. The runner logs the report.
func runWorkload(
	ctx context.Context,
	cfg *config,
	runner *workload.Runner,
	mp metric.MeterProvider,
	observer infra.RetryObserver,
) error {
	if cfg.isQueue() {
		factory := queue.NewLockFreeQueue[uint64]
		if cfg.mode == modeRoughQueue {
			factory = queue.NewRoughSyncQueue[uint64]
		}
		q, err := factory(queue.WithQueueRetryObserver[uint64](observer))
		if err != nil {
			return err
		}
		if err = observability.RegisterLenGauge(mp, cfg.mode, q.Len); err != nil {
			return err
		}
		_, err = runner.RunQueue(ctx, q, workload.QueueConfig{
			Producers:   cfg.producers,
			Consumers:   cfg.consumers,
			PerProducer: cfg.ops,
			Interval:    cfg.interval,
		})
		return err
	}

	kind, err := list.ParseSetKind(cfg.mode)
	if err != nil {
		return err
	}
	set, err := list.NewOrderedKeySet[int](
		kind,
		list.WithSetRetryObserver[int](observer),
		list.WithSetRetryStrategy[int](infra.DefaultExponentialBackoffRetry),
	)
	if err != nil {
		return err
	}
	if err = observability.RegisterLenGauge(mp, kind.String(), set.Len); err != nil {
		return err
	}
	_, err = runner.RunSet(ctx, set, workload.SetConfig{
		Adders:   cfg.producers,
		Removers: cfg.consumers,
		Ops:      cfg.ops,
		KeySpace: cfg.keySpace,
		Interval: cfg.interval,
	})
	return err
}

type runParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Config     *config
	Logger     xlog.XLogger
	Runner     *workload.Runner
	Meter      metric.MeterProvider
	Observer   infra.RetryObserver
}

// register starts the workload in the background once the application
// is up, and shuts the application down when it is over.
func register(p runParams) {
	ctx, cancel := context.WithTimeout(context.Background(), p.Config.timeout)
	done := make(chan struct{})
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				code := 0
				if err := runWorkload(ctx, p.Config, p.Runner, p.Meter, p.Observer); err != nil {
					p.Logger.Error(err, "workload failed", zap.String("mode", p.Config.mode))
					code = 1
				}
				if err := p.Shutdowner.Shutdown(fx.ExitCode(code)); err != nil {
					p.Logger.Error(err, "shutdown failed")
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

func appOptions(cfg *config) []fx.Option {
	return []fx.Option{
		fx.Supply(cfg),
		fx.WithLogger(func(logger xlog.XLogger) fxevent.Logger {
			return xlog.NewFxXLogger(logger)
		}),
		fx.Provide(
			newLogger,
			newMeterProvider,
			newRunner,
			newRetryObserver,
		),
		fx.Invoke(register),
	}
}
