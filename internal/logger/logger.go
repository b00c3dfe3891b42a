// Package logger holds the process-wide logrus instance.
package logger

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

// Get returns the shared logger, creating it with JSON output at info level
// on first use.
func Get() *logrus.Logger {
	once.Do(func() {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetLevel(logrus.InfoLevel)
	})
	return logger
}

// Configure applies level and format ("json" or "text") to the shared
// logger. An unknown level falls back to info.
func Configure(level, format string) {
	log := Get()

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	switch format {
	case "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		log.SetFormatter(&logrus.JSONFormatter{})
	}
}

// Silence discards all log output, for front ends that own the terminal.
func Silence() {
	Get().SetOutput(io.Discard)
}
