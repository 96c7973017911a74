package xlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	antsv2 "github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// memWriter is a zapcore.WriteSyncer kept in memory.
type memWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *memWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *memWriter) Sync() error { return nil }

func (w *memWriter) entries(t *testing.T) []map[string]any {
	w.mu.Lock()
	defer w.mu.Unlock()
	entries := make([]map[string]any, 0, 8)
	scanner := bufio.NewScanner(bytes.NewReader(w.buf.Bytes()))
	for scanner.Scan() {
		entry := map[string]any{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func newTestXLogger(t *testing.T, lvl logLevel) (XLogger, *memWriter) {
	w := &memWriter{}
	logger, err := NewXLogger(
		WithXLoggerLevel(lvl),
		WithXLoggerEncoder(JSON),
		WithXLoggerTimeEncoder(zapcore.ISO8601TimeEncoder),
		WithXLoggerLevelEncoder(zapcore.CapitalLevelEncoder),
		WithXLoggerWriter(w),
	)
	require.NoError(t, err)
	return logger, w
}

func TestXLogger_Keys(t *testing.T) {
	logger, w := newTestXLogger(t, LogLevelDebug)
	logger.Info("hello", zap.Int("n", 1))
	logger.Error(errors.New("boom"), "failed")
	require.NoError(t, logger.Sync())
	require.NoError(t, logger.Close())

	entries := w.entries(t)
	require.Len(t, entries, 2)
	require.Equal(t, "hello", entries[0]["msg"])
	require.Equal(t, "INFO", entries[0]["lvl"])
	require.EqualValues(t, 1, entries[0]["n"])
	require.Contains(t, entries[0], "ts")
	require.Contains(t, entries[0], "callAt")
	require.Contains(t, entries[0], "fn")
	require.Equal(t, "ERROR", entries[1]["lvl"])
	require.Equal(t, "boom", entries[1]["error"])
}

func TestXLogger_ChildFollowsParentLevel(t *testing.T) {
	logger, w := newTestXLogger(t, LogLevelDebug)
	child := logger.Named("Workload")
	child.Debug("first")

	logger.IncreaseLogLevel(zapcore.WarnLevel)
	require.Equal(t, "warn", logger.Level())
	child.Debug("dropped")
	child.Warn("second")

	logger.IncreaseLogLevel(zapcore.DebugLevel)
	child.Debug("third")

	entries := w.entries(t)
	require.Len(t, entries, 3)
	for i, msg := range []string{"first", "second", "third"} {
		require.Equal(t, msg, entries[i]["msg"])
		require.Equal(t, "Workload", entries[i]["component"])
	}
}

func TestXLogger_Options(t *testing.T) {
	_, err := NewXLogger(WithXLoggerEncoder(_encMax))
	require.ErrorIs(t, err, ErrUnknownEncoder)

	_, err = NewXLogger(WithXLoggerWriter(nil))
	require.ErrorIs(t, err, ErrNilWriter)

	t.Setenv("XLOG_LVL", "warn")
	logger, err := NewXLogger(nil, WithXLoggerEncoder(PlainText))
	require.NoError(t, err)
	require.Equal(t, "warn", logger.Level())
	require.NoError(t, logger.Close())
}

func TestParseLogLevel(t *testing.T) {
	testcases := []struct {
		in       string
		expected logLevel
	}{
		{in: "", expected: LogLevelDebug},
		{in: "info", expected: LogLevelInfo},
		{in: " WARN ", expected: LogLevelWarn},
		{in: "Error", expected: LogLevelError},
		{in: "trace", expected: LogLevelDebug},
	}
	for _, tc := range testcases {
		t.Run(tc.in, func(tt *testing.T) {
			require.Equal(tt, tc.expected, ParseLogLevel(tc.in))
		})
	}
	require.Equal(t, zapcore.ErrorLevel, LogLevelError.zapLevel())
}

func TestAntsXLogger_AntsPool(t *testing.T) {
	var nilLogger *AntsXLogger
	nilLogger.Printf("ignored %d", 1)

	logger, w := newTestXLogger(t, LogLevelDebug)
	p, err := antsv2.NewPool(2, antsv2.WithLogger(NewAntsXLogger(logger)))
	require.NoError(t, err)
	defer p.Release()

	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, p.Submit(func() {
		defer wg.Done()
		panic("xlogger panic in ants pool")
	}))
	wg.Wait()

	require.Eventually(t, func() bool {
		for _, entry := range w.entries(t) {
			if entry["component"] == "Ants" && entry["lvl"] == "ERROR" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestFxXLogger_LogEvent(t *testing.T) {
	var nilLogger *FxXLogger
	nilLogger.LogEvent(&fxevent.Started{})

	logger, w := newTestXLogger(t, LogLevelDebug)
	fxLogger := NewFxXLogger(logger)
	fxLogger.LogEvent(&fxevent.OnStartExecuting{FunctionName: "run", CallerName: "main"})
	fxLogger.LogEvent(&fxevent.OnStartExecuted{FunctionName: "run", CallerName: "main", Err: errors.New("bad")})
	fxLogger.LogEvent(&fxevent.Provided{ConstructorName: "newSet", OutputTypeNames: []string{"list.OrderedSet[int]"}})
	fxLogger.LogEvent(&fxevent.Invoked{FunctionName: "run"})
	fxLogger.LogEvent(&fxevent.Started{})

	entries := w.entries(t)
	require.Len(t, entries, 4, "a successful invoke is not logged")
	require.Equal(t, "OnStart hook executing", entries[0]["msg"])
	require.Equal(t, "OnStart hook failed", entries[1]["msg"])
	require.Equal(t, "bad", entries[1]["error"])
	require.Equal(t, "provided", entries[2]["msg"])
	require.Equal(t, "started", entries[3]["msg"])
	for _, entry := range entries {
		require.Equal(t, "Fx", entry["component"])
	}
}
