package log

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.Mutex
	logger *zap.SugaredLogger
)

// Init builds the process logger. verbose raises the level to debug.
// Calling Init more than once replaces the logger, which is only expected
// from tests.
func Init(verbose bool) error {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	base, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}

	mu.Lock()
	logger = base.Sugar()
	mu.Unlock()
	return nil
}

// Sync flushes any buffered log entries. Safe to call on exit even when
// Init was never called.
func Sync() {
	if l := get(); l != nil {
		_ = l.Sync()
	}
}

func get() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		// Lazy fallback so library code can log before Init runs.
		base, err := zap.NewProduction(zap.AddCallerSkip(1))
		if err != nil {
			return nil
		}
		logger = base.Sugar()
	}
	return logger
}

func Debug(msg string, kv ...any) {
	if l := get(); l != nil {
		l.Debugw(msg, kv...)
	}
}

func Info(msg string, kv ...any) {
	if l := get(); l != nil {
		l.Infow(msg, kv...)
	}
}

func Warn(msg string, kv ...any) {
	if l := get(); l != nil {
		l.Warnw(msg, kv...)
	}
}

// Error logs msg with err prepended to the key-value list, matching the
// call shape used throughout the codebase: Error("what failed", err, ...).
func Error(msg string, err error, kv ...any) {
	if l := get(); l != nil {
		extended := append([]any{"err", err}, kv...)
		l.Errorw(msg, extended...)
	}
}
