// Package logger is the process-wide leveled logger, backed by logrus.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level is a logging verbosity.
type Level = logrus.Level

const (
	LevelDebug = logrus.DebugLevel
	LevelInfo  = logrus.InfoLevel
	LevelWarn  = logrus.WarnLevel
	LevelError = logrus.ErrorLevel
)

// Fields is a set of structured key/value pairs.
type Fields = logrus.Fields

var std = newStd()

func newStd() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(LevelInfo)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	return l
}

// SetLevel changes the minimum level that is written.
func SetLevel(level Level) { std.SetLevel(level) }

// ParseLevel maps names like "debug" or "warn" to a Level. Unknown names
// fall back to info.
func ParseLevel(name string) Level {
	level, err := logrus.ParseLevel(strings.TrimSpace(name))
	if err != nil {
		return LevelInfo
	}
	return level
}

// SetOutput redirects log output, mostly for tests.
func SetOutput(w io.Writer) { std.SetOutput(w) }

// SetJSON switches between the JSON and text formatters.
func SetJSON(enabled bool) {
	if enabled {
		std.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// WithField returns an entry carrying one field.
func WithField(key string, value any) *logrus.Entry { return std.WithField(key, value) }

// WithFields returns an entry carrying fields.
func WithFields(fields Fields) *logrus.Entry { return std.WithFields(fields) }

// WithComponent tags entries with the subsystem that wrote them.
func WithComponent(name string) *logrus.Entry { return std.WithField("component", name) }

func Debugf(format string, args ...any) { std.Debugf(format, args...) }
func Infof(format string, args ...any)  { std.Infof(format, args...) }
func Warnf(format string, args ...any)  { std.Warnf(format, args...) }
func Errorf(format string, args ...any) { std.Errorf(format, args...) }
