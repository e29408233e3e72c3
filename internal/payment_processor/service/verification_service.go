package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bu-wallet-ledger/internal/domain/shared"
	"github.com/bu-wallet-ledger/internal/domain/transfer"
	"github.com/bu-wallet-ledger/internal/metrics"
	"github.com/bu-wallet-ledger/internal/orchestrator"
)

// ErrRejectedPayment marks an event that can never be applied, such as one
// with an unparseable amount. The consumer routes these to the DLQ.
var ErrRejectedPayment = errors.New("payment event rejected")

// VerificationService applies payment events through the orchestrator and
// classifies the outcome for the consumer.
type VerificationService struct {
	verifier PaymentVerifier
	logger   *slog.Logger
}

func NewVerificationService(verifier PaymentVerifier, logger *slog.Logger) *VerificationService {
	return &VerificationService{verifier: verifier, logger: logger}
}

// ProcessPayment returns nil for applied, duplicate and non-successful
// payments, ErrRejectedPayment for other business rejections and the raw
// error for anything worth retrying.
func (s *VerificationService) ProcessPayment(ctx context.Context, event *shared.PaymentEvent) error {
	logger := s.logger.With("payment_reference", event.Reference)
	if event.CorrelationID != "" {
		logger = logger.With("correlation_id", event.CorrelationID)
	}

	record, err := s.verifier.VerifyPayment(ctx, *event)
	switch {
	case err == nil:
		metrics.RecordPaymentEvent("credited")
		logger.Info("Payment credited", "transfer_id", record.ID.String(), "user_id", event.UserID, "amount", record.Amount.StringFixed(2))
		return nil
	case errors.Is(err, transfer.ErrDuplicatePayment{}):
		metrics.RecordPaymentEvent("duplicate")
		logger.Info("Payment already processed, skipping")
		return nil
	case errors.Is(err, orchestrator.ErrPaymentNotSuccessful):
		metrics.RecordPaymentEvent("ignored")
		logger.Info("Ignoring unsuccessful payment", "status", string(event.Status))
		return nil
	case orchestrator.IsBusinessError(err),
		errors.Is(err, shared.ErrMissingPaymentReference),
		errors.Is(err, shared.ErrMissingPaymentUser):
		metrics.RecordPaymentEvent("rejected")
		logger.Warn("Payment event rejected", "error", err)
		return fmt.Errorf("%w: %v", ErrRejectedPayment, err)
	default:
		metrics.RecordPaymentEvent("error")
		logger.Error("Payment verification failed", "error", err)
		return err
	}
}
