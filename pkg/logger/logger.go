// Package logger builds the process logger: logrus text output to the
// console and, optionally, a rotated log file.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const TimestampFormat = "2006-01-02 15:04:05"

type Config struct {
	Level      string // debug, info, warn, error
	File       string // empty logs to the console only
	MaxSize    int    // megabytes before rotation
	MaxBackups int
	MaxAge     int // days
	Compress   bool
	// Console defaults to os.Stdout.
	Console io.Writer
}

// Logger wraps the logrus logger with the rotating file it writes to.
type Logger struct {
	*logrus.Logger
	file *lumberjack.Logger
}

// New builds a logger. An unknown level falls back to info.
func New(cfg Config) (*Logger, error) {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: TimestampFormat,
	})

	console := cfg.Console
	if console == nil {
		console = os.Stdout
	}
	out := &Logger{Logger: l}
	writers := []io.Writer{console}

	if cfg.File != "" {
		if dir := filepath.Dir(cfg.File); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, errors.Wrapf(err, "create log directory %s", dir)
			}
		}
		out.file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		writers = append(writers, out.file)
	}
	l.SetOutput(io.MultiWriter(writers...))
	return out, nil
}

// Component returns an entry tagged with the component and symbol fields
// every package logs with.
func (l *Logger) Component(name, symbol string) *logrus.Entry {
	fields := logrus.Fields{"component": name}
	if symbol != "" {
		fields["symbol"] = symbol
	}
	return l.WithFields(fields)
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
