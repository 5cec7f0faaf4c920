package notifier

import (
	"context"

	"github.com/example/authcore/internal/logging"
)

// LogNotifier writes messages to the log instead of sending them.
// Bodies are logged at debug level only.
type LogNotifier struct {
	log logging.Logger
}

func NewLogNotifier(log logging.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.log.Info(ctx, "email suppressed", "to", msg.To, "subject", msg.Subject)
	n.log.Debug(ctx, "email body", "to", msg.To, "body", msg.Body)
	return nil
}
