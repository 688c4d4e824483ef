// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package commons

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the application-wide logging surface. Printf-style and
// structured (key/value) variants are both exposed so call sites can pick
// whichever reads better; Benchmark records elapsed time for a named stage.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})

	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)

	Benchmark(stage string, elapsed time.Duration)
	Sync() error
}

type applicationLogger struct {
	sugar *zap.SugaredLogger
}

type loggerOptions struct {
	name  string
	path  string
	level string
}

// Option configures NewApplicationLogger.
type Option func(*loggerOptions)

// Name sets the service name attached to every entry.
func Name(name string) Option { return func(o *loggerOptions) { o.name = name } }

// Path enables file output (with rotation) under the given directory.
func Path(path string) Option { return func(o *loggerOptions) { o.path = path } }

// Level sets the minimum level: debug, info, warn or error.
func Level(level string) Option { return func(o *loggerOptions) { o.level = level } }

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// NewApplicationLogger builds the standard application logger. Without
// options it logs to stderr at info level; with Path it additionally writes
// rotated files named after the service.
func NewApplicationLogger(opts ...Option) (Logger, error) {
	options := loggerOptions{name: "voicebridge", level: "info"}
	for _, opt := range opts {
		opt(&options)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	level := parseLevel(options.level)
	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), level),
	}

	if options.path != "" {
		rotated := &lumberjack.Logger{
			Filename:   filepath.Join(options.path, options.name+".log"),
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotated), level))
	}

	logger := zap.New(zapcore.NewTee(cores...)).Named(options.name)
	return &applicationLogger{sugar: logger.Sugar()}, nil
}

func (l *applicationLogger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *applicationLogger) Infof(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *applicationLogger) Warnf(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *applicationLogger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

func (l *applicationLogger) Debugw(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}
func (l *applicationLogger) Infow(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}
func (l *applicationLogger) Warnw(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}
func (l *applicationLogger) Errorw(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l *applicationLogger) Debug(msg string) { l.sugar.Debug(msg) }
func (l *applicationLogger) Info(msg string)  { l.sugar.Info(msg) }
func (l *applicationLogger) Warn(msg string)  { l.sugar.Warn(msg) }
func (l *applicationLogger) Error(msg string) { l.sugar.Error(msg) }

// Benchmark logs elapsed time for a named stage at debug level.
func (l *applicationLogger) Benchmark(stage string, elapsed time.Duration) {
	l.sugar.Debugw(fmt.Sprintf("%s completed", stage), "elapsed_ms", elapsed.Milliseconds())
}

func (l *applicationLogger) Sync() error { return l.sugar.Sync() }
