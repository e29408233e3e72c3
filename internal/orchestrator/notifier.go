package orchestrator

import (
	"context"
	"log/slog"

	"github.com/bu-wallet-ledger/internal/domain/notification"
	"github.com/bu-wallet-ledger/internal/domain/outbox"
)

// OutboxNotifier stores notifications in the outbox for the payment worker to publish
type OutboxNotifier struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewOutboxNotifier(outboxRepo outbox.Repository, logger *slog.Logger) *OutboxNotifier {
	return &OutboxNotifier{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// Notify enqueues each notification. Failures are logged and dropped.
func (n *OutboxNotifier) Notify(ctx context.Context, notifications ...*notification.Notification) {
	for _, note := range notifications {
		message, err := outbox.Wrap(note)
		if err != nil {
			n.logger.Error("Failed to encode notification", "operation_id", note.OperationID.String(), "error", err)
			continue
		}

		if err := n.outboxRepo.Enqueue(ctx, message); err != nil {
			n.logger.Warn("Failed to enqueue notification",
				"operation_id", note.OperationID.String(),
				"user_id", note.UserID,
				"kind", string(note.Kind),
				"error", err,
			)
			continue
		}
		n.logger.Debug("Notification enqueued", "outbox_id", message.ID, "user_id", note.UserID, "kind", string(note.Kind))
	}
}
