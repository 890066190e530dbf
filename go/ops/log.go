// Package ops configures process-wide structured logging for freyja binaries.
//
// It plays the same role that the `ops` package plays for Flow: a thin
// wrapper that keeps every component logging through one `logrus` instance
// with a consistent field vocabulary, rather than each component rolling
// its own logger.
package ops

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Level is the set of log levels the freyja CLI accepts via --log-level.
type Level string

const (
	LevelOff   Level = "off"
	LevelError Level = "error"
	LevelWarn  Level = "warn"
	LevelInfo  Level = "info"
	LevelDebug Level = "debug"
	LevelTrace Level = "trace"
)

// Configure installs `level` as the standard logrus logger's level and
// fixes its formatter to the JSON encoding freyja emits on stderr.
func Configure(level Level) error {
	logrus.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	switch level {
	case LevelOff:
		logrus.SetLevel(logrus.PanicLevel)
		logrus.SetOutput(nopWriter{})
	case LevelError:
		logrus.SetLevel(logrus.ErrorLevel)
	case LevelWarn:
		logrus.SetLevel(logrus.WarnLevel)
	case LevelInfo, "":
		logrus.SetLevel(logrus.InfoLevel)
	case LevelDebug:
		logrus.SetLevel(logrus.DebugLevel)
	case LevelTrace:
		logrus.SetLevel(logrus.TraceLevel)
	default:
		return fmt.Errorf("unrecognized --log-level %q", level)
	}
	return nil
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

// ForComponent returns a logger pre-tagged with the `component` field,
// matching the way Flow tags logs with their owning shard.
func ForComponent(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}
