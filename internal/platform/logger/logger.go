// Package logger provides structured logging for the application, built on
// log/slog with a JSON handler, plus the context plumbing that carries a
// request-scoped logger through the call stack.
package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/keelson/folio-api/internal/config"
)

// Setup configures the application's structured JSON logger from the server
// configuration and installs it as the slog default. Returns the configured
// logger.
func Setup(cfg config.ServerConfig) (*slog.Logger, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	log := slog.New(handler)
	slog.SetDefault(log)
	return log, nil
}

// parseLevel maps a configured level name to a slog level
// (case-insensitive).
func parseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", name)
	}
}
