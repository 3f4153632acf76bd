// Package cronlog adapts slog to the cron scheduler's logging interface.
package cronlog

import "log/slog"

// Logger implements cron.Logger on top of a slog.Logger. Cron's routine
// wake messages land at debug so they do not drown the service logs.
type Logger struct {
	log *slog.Logger
}

// New wraps a slog.Logger for use by the cron scheduler.
func New(log *slog.Logger) Logger {
	return Logger{log: log}
}

func (l Logger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l Logger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
