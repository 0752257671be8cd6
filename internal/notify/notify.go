// Package notify provides user-facing notification sinks.
package notify

import "log/slog"

// Notifier is a fire-and-forget message sink.
type Notifier interface {
	Notify(msg string)
}

// Log writes notifications to a logger at warn level.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a Log notifier.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

// Notify logs msg.
func (l *Log) Notify(msg string) {
	l.logger.Warn("notice", slog.String("message", msg))
}

// Multi fans a notification out to several sinks. Nil entries are ignored.
type Multi []Notifier

// Notify forwards msg to every sink.
func (m Multi) Notify(msg string) {
	for _, n := range m {
		if n != nil {
			n.Notify(msg)
		}
	}
}
