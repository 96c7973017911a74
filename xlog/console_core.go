package xlog

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
)

func newStdOutWriter() *zapcore.BufferedWriteSyncer {
	return &zapcore.BufferedWriteSyncer{
		// Hides os.File.Sync, which fails on pipes and terminals.
		WS:            zapcore.AddSync(struct{ io.Writer }{os.Stdout}),
		Size:          512 * 1024,
		FlushInterval: 30 * time.Second,
	}
}

func newConsoleCore(
	lvlEnabler zapcore.LevelEnabler,
	encoder logEncoderType,
	ws zapcore.WriteSyncer,
	lvlEnc zapcore.LevelEncoder,
	tsEnc zapcore.TimeEncoder,
) zapcore.Core {
	config := zapcore.EncoderConfig{
		MessageKey:    "msg",
		LevelKey:      "lvl",
		EncodeLevel:   lvlEnc,
		TimeKey:       "ts",
		EncodeTime:    tsEnc,
		CallerKey:     "callAt",
		EncodeCaller:  zapcore.ShortCallerEncoder,
		FunctionKey:   "fn",
		NameKey:       "component",
		EncodeName:    zapcore.FullNameEncoder,
		StacktraceKey: coreKeyIgnored,
	}
	return zapcore.NewCore(getEncoderByType(encoder)(config), ws, lvlEnabler)
}
