package xlog

import (
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// FxXLogger prints the application lifecycle. Wiring details (provide,
// invoke) are logged at debug level, failures always at error level.
type FxXLogger struct {
	logger XLogger
}

func (l *FxXLogger) hook(kind string, function, caller string, err error, runtime int64, done bool) {
	fields := []zap.Field{
		zap.String("function", function),
		zap.String("caller", caller),
	}
	if !done {
		l.logger.Debug(kind+" hook executing", fields...)
		return
	}
	fields = append(fields, zap.Int64("in", runtime))
	if err != nil {
		l.logger.Error(err, kind+" hook failed", fields...)
		return
	}
	l.logger.Debug(kind+" hook executed", fields...)
}

func (l *FxXLogger) LogEvent(event fxevent.Event) {
	if l == nil || l.logger == nil {
		return
	}

	switch e := event.(type) {
	case *fxevent.OnStartExecuting:
		l.hook("OnStart", e.FunctionName, e.CallerName, nil, 0, false)
	case *fxevent.OnStartExecuted:
		l.hook("OnStart", e.FunctionName, e.CallerName, e.Err, int64(e.Runtime), true)
	case *fxevent.OnStopExecuting:
		l.hook("OnStop", e.FunctionName, e.CallerName, nil, 0, false)
	case *fxevent.OnStopExecuted:
		l.hook("OnStop", e.FunctionName, e.CallerName, e.Err, int64(e.Runtime), true)
	case *fxevent.Supplied:
		if e.Err != nil {
			l.logger.Error(e.Err, "supply failed", zap.String("type", e.TypeName))
			return
		}
		l.logger.Debug("supplied", zap.String("type", e.TypeName))
	case *fxevent.Provided:
		if e.Err != nil {
			l.logger.Error(e.Err, "provide failed", zap.String("constructor", e.ConstructorName))
			return
		}
		l.logger.Debug("provided",
			zap.Strings("types", e.OutputTypeNames),
			zap.String("constructor", e.ConstructorName),
		)
	case *fxevent.Invoking:
		l.logger.Debug("invoking", zap.String("function", e.FunctionName))
	case *fxevent.Invoked:
		if e.Err != nil {
			l.logger.Error(e.Err, "invoke failed",
				zap.String("function", e.FunctionName),
				zap.String("trace", e.Trace),
			)
		}
	case *fxevent.Stopping:
		l.logger.Info("stopping", zap.String("signal", e.Signal.String()))
	case *fxevent.Stopped:
		if e.Err != nil {
			l.logger.Error(e.Err, "stop failed")
		}
	case *fxevent.RollingBack:
		l.logger.Warn("start failed, rolling back", zap.Error(e.StartErr))
	case *fxevent.RolledBack:
		if e.Err != nil {
			l.logger.Error(e.Err, "roll back failed")
		}
	case *fxevent.Started:
		if e.Err != nil {
			l.logger.Error(e.Err, "start failed")
			return
		}
		l.logger.Info("started")
	case *fxevent.LoggerInitialized:
		if e.Err != nil {
			l.logger.Error(e.Err, "custom logger initialization failed")
		}
	default:
	}
}

func NewFxXLogger(logger XLogger) *FxXLogger {
	return &FxXLogger{logger: logger.Named("Fx")}
}
