package logger

import (
	"log/slog"

	"github.com/go-co-op/gocron/v2"
)

// schedulerLogger routes gocron's own logging into slog. gocron logs routine
// lifecycle events at info, so those are demoted to debug.
type schedulerLogger struct {
	log *slog.Logger
}

// Gocron adapts log to the gocron.Logger interface.
func Gocron(log *slog.Logger) gocron.Logger {
	return schedulerLogger{log: log.With("source", "gocron")}
}

func (l schedulerLogger) Debug(msg string, args ...any) { l.log.Debug(msg, args...) }
func (l schedulerLogger) Info(msg string, args ...any)  { l.log.Debug(msg, args...) }
func (l schedulerLogger) Warn(msg string, args ...any)  { l.log.Warn(msg, args...) }
func (l schedulerLogger) Error(msg string, args ...any) { l.log.Error(msg, args...) }
