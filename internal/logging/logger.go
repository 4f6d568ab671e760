// Package logging builds the diagnostic logger used by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger represents a logger instance.
type Logger = *logrus.Logger

// Fields represents structured logging fields.
type Fields = logrus.Fields

// NewLogger creates a text logger writing to w at the given level. Unknown
// levels fall back to info.
func NewLogger(w io.Writer, level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// PipelineLogPath returns the daily diagnostic log file under logDir.
func PipelineLogPath(logDir string, day time.Time) string {
	return filepath.Join(logDir, "pipeline-"+day.Format("2006-01-02")+".log")
}

// NewPipelineLogger creates a logger that writes to stderr and appends to
// the daily pipeline log in logDir. The returned closer releases the file.
func NewPipelineLogger(logDir, level string, day time.Time) (*logrus.Logger, io.Closer, error) {
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(PipelineLogPath(logDir, day), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening pipeline log: %w", err)
	}
	return NewLogger(io.MultiWriter(os.Stderr, f), level), f, nil
}
