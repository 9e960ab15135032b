// Package logger holds the process-wide zap logger and the field names
// components log with.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Logger is a no-op until InitializeWithOptions runs
	Logger = zap.NewNop().Sugar()

	fileSink *lumberjack.Logger
)

// Options controls where and how the global logger writes
type Options struct {
	JSON   bool          // JSON lines on stdout instead of colored console output
	Level  zapcore.Level // See VerbosityToLevel
	Caller bool          // Annotate entries with file:line

	// File receives a JSON copy of every entry, rotated by size
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// InitializeWithOptions replaces the global logger. Calling it again closes
// the previous file sink.
func InitializeWithOptions(opts Options) error {
	level := zap.NewAtomicLevelAt(opts.Level)

	var stdout zapcore.Encoder
	if opts.JSON {
		stdout = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		stdout = zapcore.NewConsoleEncoder(cfg)
	}
	cores := []zapcore.Core{zapcore.NewCore(stdout, zapcore.Lock(os.Stdout), level)}

	closeFileSink()
	if opts.File != "" {
		fileSink = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(fileSink),
			level,
		))
	}

	var zopts []zap.Option
	if opts.Caller {
		zopts = append(zopts, zap.AddCaller())
	}
	Logger = zap.New(zapcore.NewTee(cores...), zopts...).Sugar()
	return nil
}

// Cleanup flushes buffered entries and closes the file sink
func Cleanup() {
	if Logger != nil {
		_ = Logger.Sync()
	}
	closeFileSink()
}

func closeFileSink() {
	if fileSink != nil {
		_ = fileSink.Close()
		fileSink = nil
	}
}

// Infow logs on the global logger
func Infow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Infow(msg, keysAndValues...)
	}
}

// Warnw logs on the global logger
func Warnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Warnw(msg, keysAndValues...)
	}
}

// Errorw logs on the global logger
func Errorw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Errorw(msg, keysAndValues...)
	}
}

// Debugw logs on the global logger
func Debugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Debugw(msg, keysAndValues...)
	}
}
