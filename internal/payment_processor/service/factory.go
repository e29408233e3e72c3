package service

import (
	"log/slog"

	"github.com/bu-wallet-ledger/internal/config"
)

// CreatePaymentService puts the verification service behind a worker pool.
// Without a pool, events are verified inline on the consumer goroutine.
func CreatePaymentService(verifier PaymentVerifier, cfg *config.Config, logger *slog.Logger) PaymentService {
	base := NewVerificationService(verifier, logger)

	pooled, err := NewWorkerPoolPaymentService(base, cfg.WorkerPool, logger.With("component", "worker_pool"))
	if err != nil {
		logger.Error("Worker pool unavailable, verifying payments inline", "error", err)
		return base
	}
	logger.Info("Payment worker pool ready", "pool_size", pooled.Capacity())
	return pooled
}
