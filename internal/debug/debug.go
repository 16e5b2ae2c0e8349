// Package debug appends diagnostic entries to per-topic log files under
// .git/attrib/logs. Logging never fails the caller.
package debug

import (
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var verbose atomic.Bool

func init() {
	if os.Getenv("GIT_ATTRIB_DEBUG") != "" {
		verbose.Store(true)
	}
}

// SetVerbose mirrors every entry to stderr.
func SetVerbose(v bool) {
	verbose.Store(v)
}

// Log appends a debug entry to the specified log file in cacheDir/logs/.
func Log(cacheDir, logName, message string, data interface{}) {
	write(cacheDir, logName, logrus.InfoLevel, message, data, nil)
}

// Error appends an entry that records err.
func Error(cacheDir, logName, message string, err error) {
	write(cacheDir, logName, logrus.ErrorLevel, message, nil, err)
}

func write(cacheDir, logName string, level logrus.Level, message string, data interface{}, err error) {
	fields := logrus.Fields{"log": logName}
	if data != nil {
		fields["data"] = data
	}
	if err != nil {
		fields[logrus.ErrorKey] = err.Error()
	}

	if verbose.Load() {
		stderr := logrus.New()
		stderr.SetOutput(os.Stderr)
		stderr.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
		stderr.WithFields(fields).Log(level, message)
	}

	if cacheDir == "" {
		return
	}
	logDir := filepath.Join(cacheDir, "logs")
	if mkErr := os.MkdirAll(logDir, 0o755); mkErr != nil {
		return
	}
	f, openErr := os.OpenFile(filepath.Join(logDir, logName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if openErr != nil {
		return
	}
	defer f.Close()

	logger := logrus.New()
	logger.SetOutput(f)
	logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05"})
	logger.WithFields(fields).Log(level, message)
}
