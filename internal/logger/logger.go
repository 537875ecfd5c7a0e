// Package logger builds the diagnostic log stream: logr on top of zap, a human
// readable core on stderr and an optional JSON file core.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	verbosityFlagName      = "verbosity"
	verbosityFlagShortName = "v"

	// The console may be in raw mode, where a bare \n does not return the carriage
	lineEnding = "\r\n"
)

type Logger struct {
	logr.Logger
	name        string
	atomicLevel zap.AtomicLevel
	console     zapcore.Core
	flush       func()
}

// New logs to stderr at info level
func New(name string) *Logger {
	return NewWithWriter(name, os.Stderr)
}

// NewWithWriter logs console formatted entries to w
func NewWithWriter(name string, w io.Writer) *Logger {
	consoleAtomicLevel := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	console := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.Lock(zapcore.AddSync(w)),
		consoleAtomicLevel,
	)

	l := &Logger{
		name:        name,
		atomicLevel: consoleAtomicLevel,
		console:     console,
	}
	l.build(console)
	return l
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.LineEnding = lineEnding
	return cfg
}

func (l *Logger) build(cores ...zapcore.Core) {
	zapLogger := zap.New(zapcore.NewTee(cores...))
	l.Logger = zapr.NewLogger(zapLogger).WithName(l.name)
	l.flush = func() {
		_ = zapLogger.Sync()
	}
}

// AddFile tees JSON entries at level and above into path, appending to it
func (l *Logger) AddFile(path string, level zapcore.Level) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create log folder for '%s': %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	cfg := encoderConfig()
	cfg.LineEnding = "\n"
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(f), zap.NewAtomicLevelAt(level))

	l.build(l.console, fileCore)
	return nil
}

func (l *Logger) SetLevel(level zapcore.Level) {
	l.atomicLevel.SetLevel(level)
}

func (l *Logger) Level() zapcore.Level {
	return l.atomicLevel.Level()
}

func (l *Logger) Flush() {
	l.flush()
}

// Add verbosity flag to enable setting console log levels
func (l *Logger) AddLevelFlag(fs *pflag.FlagSet) {
	levelVal := NewLevelFlagValue(func(level zapcore.Level) {
		l.SetLevel(level)
	})
	fs.VarP(&levelVal, verbosityFlagName, verbosityFlagShortName, "Logging verbosity level (e.g. -v=debug). Can be one of 'debug', 'info', or 'error', or any positive integer for increasing levels of debug verbosity.")
}
