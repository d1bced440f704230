package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"farmcare-server-go/config"
)

// New returns a logger configured for env. A non-empty level overrides the
// environment's default level; a non-empty file sends output there instead
// of stderr. The returned func closes that file and must be called once the
// logger is no longer used.
func New(env, level, file string) (*logrus.Logger, func() error, error) {
	log := logrus.New()

	switch env {
	case config.EnvLocal:
		log.SetFormatter(&logrus.TextFormatter{
			ForceColors:   file == "",
			FullTimestamp: true,
		})
		log.SetLevel(logrus.DebugLevel)
	case config.EnvDev:
		log.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
		log.SetLevel(logrus.InfoLevel)
	default:
		log.SetFormatter(&logrus.JSONFormatter{})
		log.SetLevel(logrus.WarnLevel)
	}

	if level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		log.SetLevel(lvl)
	}

	if file == "" {
		log.SetOutput(os.Stderr)
		return log, func() error { return nil }, nil
	}

	f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(f)
	return log, f.Close, nil
}

// FromConfig is New with the values taken from cfg.
func FromConfig(cfg *config.Config) (*logrus.Logger, func() error, error) {
	return New(cfg.Env, cfg.Log.Level, cfg.Log.File)
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
