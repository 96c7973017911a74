package xlog

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type logLevel string

const (
	LogLevelDebug logLevel = "DEBUG"
	LogLevelInfo  logLevel = "INFO"
	LogLevelWarn  logLevel = "WARN"
	LogLevelError logLevel = "ERROR"
)

func (lvl logLevel) zapLevel() zapcore.Level {
	switch lvl {
	case LogLevelInfo:
		return zapcore.InfoLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelError:
		return zapcore.ErrorLevel
	case LogLevelDebug:
		fallthrough
	default:
	}
	return zapcore.DebugLevel
}

func (lvl logLevel) String() string {
	return string(lvl)
}

// ParseLogLevel is case-insensitive, unknown or empty names fall back
// to DEBUG.
func ParseLogLevel(level string) logLevel {
	switch lvl := logLevel(strings.ToUpper(strings.TrimSpace(level))); lvl {
	case LogLevelInfo, LogLevelWarn, LogLevelError:
		return lvl
	default:
	}
	return LogLevelDebug
}

type logEncoderType uint8

const (
	JSON logEncoderType = iota
	PlainText
	_encMax
)

const (
	coreKeyIgnored = ""
)

var (
	encoderMap = map[logEncoderType]func(cfg zapcore.EncoderConfig) zapcore.Encoder{
		JSON:      zapcore.NewJSONEncoder,
		PlainText: zapcore.NewConsoleEncoder,
	}
)

func getEncoderByType(typ logEncoderType) func(cfg zapcore.EncoderConfig) zapcore.Encoder {
	enc, ok := encoderMap[typ]
	if !ok {
		return zapcore.NewJSONEncoder
	}
	return enc
}

// XLogger mainly implemented by Uber zap logger.
//
// A child logger created by Named shares the level of its parent, so
// IncreaseLogLevel on the parent applies to all the components.
//
// Log format is not recommended, because it is low performance.
type XLogger interface {
	zap() *zap.Logger

	Named(component string) XLogger
	IncreaseLogLevel(level zapcore.Level)
	Level() string
	Sync() error
	Close() error

	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(err error, msg string, fields ...zap.Field)

	Logf(lvl zapcore.Level, format string, args ...any)
}
