package outbox_poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bu-wallet-ledger/internal/domain/notification"
	"github.com/bu-wallet-ledger/internal/domain/outbox"
	"github.com/bu-wallet-ledger/internal/metrics"
	"github.com/bu-wallet-ledger/internal/platform/messaging/producers"
)

// NotificationPublisher hands one outbox message to the notification sink
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, message *outbox.Message) error
}

// KafkaNotificationPublisher publishes outbox payloads to the notifications topic
type KafkaNotificationPublisher struct {
	outboxRepo outbox.Repository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

func NewNotificationPublisher(
	outboxRepo outbox.Repository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
) *KafkaNotificationPublisher {
	return &KafkaNotificationPublisher{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// ErrUndeliverable marks a message that was settled without being published
var ErrUndeliverable = errors.New("notification is undeliverable")

// PublishNotification writes the payload keyed by user id and marks the
// message published. Undecodable payloads are settled as FAILED_TO_PUBLISH at once.
func (p *KafkaNotificationPublisher) PublishNotification(ctx context.Context, message *outbox.Message) error {
	n, err := message.Unwrap()
	if err != nil {
		p.logger.Error("Dropping undecodable outbox message",
			"outbox_id", message.ID, "operation_id", message.OperationID.String(), "error", err,
		)
		if settleErr := p.outboxRepo.MarkUndeliverable(ctx, message.ID); settleErr != nil {
			return fmt.Errorf("settle undecodable outbox message %d: %w", message.ID, settleErr)
		}
		metrics.RecordNotification("undecodable")
		return fmt.Errorf("%w: %v", ErrUndeliverable, err)
	}

	logger := p.loggerFor(n)

	if err := p.producer.Publish(ctx, message.UserID, json.RawMessage(message.Payload)); err != nil {
		metrics.RecordNotification("failed")
		return fmt.Errorf("publish notification for outbox %d: %w", message.ID, err)
	}

	if err := p.outboxRepo.MarkPublished(ctx, message.ID); err != nil {
		logger.Error("Notification published but outbox row not settled",
			"outbox_id", message.ID, "operation_id", message.OperationID.String(), "error", err,
		)
		return fmt.Errorf("notification for outbox %d published, but marking PROCESSED failed: %w", message.ID, err)
	}

	metrics.RecordNotification("published")
	logger.Info("Notification published",
		"outbox_id", message.ID,
		"user_id", message.UserID,
		"kind", string(n.Kind),
	)
	return nil
}

func (p *KafkaNotificationPublisher) loggerFor(n *notification.Notification) *slog.Logger {
	if n.CorrelationID == "" {
		return p.logger
	}
	return p.logger.With("correlation_id", n.CorrelationID)
}
