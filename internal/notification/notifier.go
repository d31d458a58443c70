// Package notification delivers strategy alerts to external channels.
package notification

import (
	"context"
	"log/slog"

	"barfeed/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo    AlertLevel = "INFO"
	AlertWarning AlertLevel = "WARNING"
)

// Alert is one event raised by a strategy.
type Alert struct {
	Level     AlertLevel   `json:"level"`
	Strategy  string       `json:"strategy"`
	Symbol    string       `json:"symbol"`
	Period    model.Period `json:"period"`
	Timestamp string       `json:"timestamp"` // bar timestamp
	Title     string       `json:"title"`
	Message   string       `json:"message"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier writes alerts to the default logger.
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(_ context.Context, alert Alert) error {
	slog.Info(alert.Title,
		"component", "notify",
		"level", alert.Level,
		"strategy", alert.Strategy,
		"symbol", alert.Symbol,
		"period", alert.Period,
		"ts", alert.Timestamp,
		"message", alert.Message)
	return nil
}
