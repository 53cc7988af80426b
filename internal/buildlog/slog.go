package buildlog

import (
	"context"
	"log/slog"
)

// SlogSubscriber forwards bus events to a structured logger. Verbose messages
// are logged at Debug.
type SlogSubscriber struct {
	Logger *slog.Logger
}

// NewSlogSubscriber returns a subscriber writing to logger.
func NewSlogSubscriber(logger *slog.Logger) *SlogSubscriber {
	return &SlogSubscriber{Logger: logger}
}

// OnMessage implements Subscriber.
func (s *SlogSubscriber) OnMessage(m Message) {
	var args []any
	if m.Asset != "" {
		args = append(args, "asset", m.Asset)
	}
	s.Logger.Log(context.Background(), slogLevel(m.Level), m.Text, args...)
}

// OnStatus implements Subscriber. Waiting is logged at Debug since every asset
// passes through it.
func (s *SlogSubscriber) OnStatus(c StatusChange) {
	level := slog.LevelInfo
	switch c.Status {
	case Waiting, Building:
		level = slog.LevelDebug
	case SuccessWithWarning:
		level = slog.LevelWarn
	case Failed:
		level = slog.LevelError
	}
	s.Logger.Log(context.Background(), level, "Asset status changed.", "asset", c.Asset, "status", c.Status.String())
}

func slogLevel(l Level) slog.Level {
	switch l {
	case Error:
		return slog.LevelError
	case Warning:
		return slog.LevelWarn
	case Info:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
