// Package dlog builds the structured loggers used by abicheck binaries.
//
// Log lines go to stderr through a console that may buffer writes.  The
// verification markers a consumer prints are not log lines and never pass
// through here.
package dlog

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dropbox/abicheck/errors"
)

// Config controls logger construction.
type Config struct {
	// Level is one of debug, info, warn, error.  Empty means info.
	Level string

	// BufferSize is the console buffer size in bytes.  Zero disables
	// buffering.
	BufferSize int

	// MaxFlushInterval bounds the time between flushes when BufferSize is
	// non-zero.
	MaxFlushInterval time.Duration

	// Output defaults to os.Stderr.
	Output io.Writer
}

// New returns a console logger and a function that flushes it and stops its
// flush daemon.  Callers must call close before exiting so buffered lines are
// not lost.
func New(cfg Config) (*zap.Logger, func() error, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		var err error
		level, err = zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "invalid log level %q", cfg.Level)
		}
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	console := newBufferedConsole(out, cfg.BufferSize, cfg.MaxFlushInterval)

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		console,
		level)

	return zap.New(core, zap.AddCaller()), console.Close, nil
}
