// Package logger holds the process-wide logrus logger.
package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	instance *logrus.Logger
	once     sync.Once
)

// Get returns the shared logger, creating it with text output on first use.
func Get() *logrus.Logger {
	once.Do(func() {
		instance = logrus.New()
		instance.SetOutput(os.Stdout)
		instance.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
		instance.SetLevel(logrus.InfoLevel)
	})
	return instance
}

// Configure applies the level and switches to JSON output outside development.
func Configure(env, level string) *logrus.Logger {
	log := Get()

	if lvl, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	} else {
		log.WithField("level", level).Warn("⚠️  Unknown log level, keeping info")
	}

	if env != "development" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	return log
}
