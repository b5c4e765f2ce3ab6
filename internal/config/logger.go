package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

func loadLogConfig() (LogConfig, error) {
	var cfg LogConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return LogConfig{}, fmt.Errorf("load log config: %w", err)
	}
	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	if cfg.Format != "json" && cfg.Format != "text" {
		return LogConfig{}, fmt.Errorf("invalid LOG_FORMAT %q: want json or text", cfg.Format)
	}
	if _, err := logrus.ParseLevel(cfg.Level); err != nil {
		return LogConfig{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return cfg, nil
}

// NewLogger builds a logrus logger writing to w, stderr when nil.
func (c LogConfig) NewLogger(w io.Writer) *logrus.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := logrus.New()
	logger.SetOutput(w)

	if level, err := logrus.ParseLevel(c.Level); err == nil {
		logger.SetLevel(level)
	}
	if c.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}
