package logger

import (
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Logger struct {
	*logrus.Entry
}

// New builds a logger from ENVIRONMENT and LOG_LEVEL.
func New() *Logger {
	return NewWith(os.Getenv("ENVIRONMENT"), os.Getenv("LOG_LEVEL"), os.Stderr)
}

// NewWith builds a logger writing to out. Stdout is reserved for the JSON result,
// so callers normally pass os.Stderr.
func NewWith(env, level string, out io.Writer) *Logger {
	base := logrus.New()

	// Local env = pretty console; others = JSON
	if env == "" || env == "local" {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
		})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	}

	base.SetOutput(out)

	switch level {
	case "debug":
		base.SetLevel(logrus.DebugLevel)
	case "warn":
		base.SetLevel(logrus.WarnLevel)
	case "error":
		base.SetLevel(logrus.ErrorLevel)
	default:
		base.SetLevel(logrus.InfoLevel)
	}

	return &Logger{Entry: logrus.NewEntry(base)}
}

// Nop discards everything; used by tests and library defaults.
func Nop() *Logger {
	return NewWith("local", "error", io.Discard)
}

// WithRun tags all entries with a fresh run id and the input file.
func (l *Logger) WithRun(inputPath string) *Logger {
	return &Logger{Entry: l.WithFields(logrus.Fields{
		"run_id": uuid.New().String(),
		"input":  inputPath,
	})}
}

// Component returns a child logger for one package.
func (l *Logger) Component(name string) *Logger {
	return &Logger{Entry: l.Entry.WithField("component", name)}
}

// WithError standardizes error logging
func (l *Logger) WithError(err error) *logrus.Entry {
	if err == nil {
		return l.Entry
	}
	return l.Entry.WithField("error", err.Error())
}
