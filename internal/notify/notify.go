// Package notify delivers best-effort email notifications. Senders are
// fire-and-forget collaborators: a failed send is logged by the caller and
// never surfaces as an operation result.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier sends a message. Implementations should respect ctx deadlines;
// callers treat any returned error as log-only.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier logs messages instead of delivering them. Used in development
// and tests where no SMTP relay is configured.
type LogNotifier struct {
	lg *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(lg *zap.Logger) *LogNotifier {
	return &LogNotifier{lg: lg}
}

// Send logs the message and reports success.
func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.lg.Info("notification (log only)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}
