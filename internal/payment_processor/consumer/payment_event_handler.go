package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bu-wallet-ledger/internal/domain/shared"
	"github.com/bu-wallet-ledger/internal/metrics"
	"github.com/bu-wallet-ledger/internal/payment_processor/service"
	"github.com/bu-wallet-ledger/internal/platform/messaging/producers"
)

// PaymentEventHandler handles payment verification messages from Kafka
type PaymentEventHandler struct {
	paymentService service.PaymentService
	producer       producers.DeadLetterPublisher
	logger         *slog.Logger
}

func NewPaymentEventHandler(
	logger *slog.Logger,
	paymentService service.PaymentService,
	producer producers.DeadLetterPublisher,
) *PaymentEventHandler {
	return &PaymentEventHandler{
		paymentService: paymentService,
		producer:       producer,
		logger:         logger,
	}
}

// HandleMessage returns nil when the offset may be committed
func (h *PaymentEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event shared.PaymentEvent
	if err := json.Unmarshal(value, &event); err != nil {
		metrics.RecordPaymentEvent("malformed")
		h.logger.Error("Failed to unmarshal payment event from Kafka message",
			"error", err,
			"message_key", string(key),
		)
		return h.deadLetter(ctx, key, value, fmt.Sprintf("malformed payment event: %s", err.Error()), err)
	}

	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Received payment event",
		"payment_reference", event.Reference,
		"user_id", event.UserID,
		"status", string(event.Status),
		"amount", event.Amount,
	)

	err := h.paymentService.ProcessPayment(ctx, &event)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrRejectedPayment):
		return h.deadLetter(ctx, key, value, err.Error(), err)
	default:
		logger.Error("Failed to process payment event", "payment_reference", event.Reference, "error", err)
		return fmt.Errorf("processing payment %s failed: %w", event.Reference, err)
	}
}

// deadLetter parks value on the DLQ. Without a DLQ, or when publishing
// fails, cause is returned so the message is retried.
func (h *PaymentEventHandler) deadLetter(ctx context.Context, key, value []byte, reason string, cause error) error {
	if h.producer == nil {
		return fmt.Errorf("unprocessable payment event: %w", cause)
	}

	if err := h.producer.PublishToDLQ(ctx, string(key), value, reason); err != nil {
		h.logger.Error("Failed to publish message to DLQ",
			"dlq_error", err,
			"original_error", cause,
			"message_key", string(key),
		)
		return fmt.Errorf("unprocessable payment event: %w", cause)
	}

	h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", reason)
	return nil
}
