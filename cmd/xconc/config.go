package main

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

const (
	modeQueue      = "queue"
	modeRoughQueue = "rough-queue"
)

var (
	errInvalidFlags = errors.New("[x-conc] invalid flags")
)

type config struct {
	mode      string
	producers int
	consumers int
	ops       int
	keySpace  int
	workers   int
	interval  time.Duration
	timeout   time.Duration
	metrics   string
	logLevel  string
}

func (cfg *config) isQueue() bool {
	return cfg.mode == modeQueue || cfg.mode == modeRoughQueue
}

func parseFlags(args []string) (*config, error) {
	cfg := &config{}
	fs := pflag.NewFlagSet("xconc", pflag.ContinueOnError)
	fs.StringVarP(&cfg.mode, "mode", "m", modeQueue, "queue, rough-queue, fine, optimistic or lazy")
	fs.IntVarP(&cfg.producers, "producers", "p", 4, "producers of the queue, adders of the set")
	fs.IntVarP(&cfg.consumers, "consumers", "c", 4, "consumers of the queue, removers of the set")
	fs.IntVarP(&cfg.ops, "ops", "n", 1000, "operations per worker")
	fs.IntVar(&cfg.keySpace, "key-space", 100, "set values are drawn from [0, key-space)")
	fs.IntVar(&cfg.workers, "workers", 0, "goroutine pool size, producers+consumers when 0")
	fs.DurationVar(&cfg.interval, "interval", time.Millisecond, "upper bound of the random pause between operations")
	fs.DurationVar(&cfg.timeout, "timeout", time.Minute, "the workload is canceled after it")
	fs.StringVar(&cfg.metrics, "metrics", "none", "console, prometheus or none")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.producers <= 0 || cfg.consumers <= 0 || cfg.ops <= 0 || cfg.keySpace <= 0 || cfg.timeout <= 0 {
		return nil, errInvalidFlags
	}
	if cfg.workers <= 0 {
		cfg.workers = cfg.producers + cfg.consumers
	}
	return cfg, nil
}
