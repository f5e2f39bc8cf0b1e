// Package notify delivers signal alerts to external channels.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/rustyeddy/tradesense/signals"
	"github.com/shopspring/decimal"
)

// Message is the rendered form of a signal alert.
type Message struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	SignalID string `json:"signal_id"`
}

// NewMessage renders e.g. "EUR/USD • BUY" / "Confidence 72%. Price respected ...".
func NewMessage(s signals.Signal) Message {
	pct := decimal.NewFromFloat(s.Confidence).Shift(2).Round(0)

	body := "Confidence " + pct.String() + "%."
	if len(s.Rationale) > 0 {
		body += " " + s.Rationale[0]
	}

	return Message{
		Title:    s.Pair.String() + " • " + strings.ToUpper(string(s.Direction)),
		Body:     body,
		SignalID: s.ID,
	}
}

// Notifier is implemented by every delivery backend.
type Notifier interface {
	Notify(ctx context.Context, s signals.Signal) error
}

// LogNotifier writes alerts to a structured logger.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, s signals.Signal) error {
	m := NewMessage(s)
	n.log.InfoContext(ctx, "signal alert",
		"title", m.Title,
		"body", m.Body,
		"signal_id", m.SignalID,
	)
	return nil
}

// Multi sends to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, s signals.Signal) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
