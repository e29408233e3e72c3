package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bu-wallet-ledger/internal/config"
	"github.com/bu-wallet-ledger/internal/domain/shared"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolPaymentService bounds how many payment events are verified at once.
// Concurrent deliveries of one reference are still safe: the first claim wins.
type WorkerPoolPaymentService struct {
	next   PaymentService
	pool   *ants.Pool
	logger *slog.Logger
}

func NewWorkerPoolPaymentService(next PaymentService, cfg config.WorkerPoolConfig, logger *slog.Logger) (*WorkerPoolPaymentService, error) {
	pool, err := ants.NewPool(cfg.Size, ants.WithExpiryDuration(time.Minute))
	if err != nil {
		return nil, fmt.Errorf("create payment worker pool of %d: %w", cfg.Size, err)
	}
	return &WorkerPoolPaymentService{next: next, pool: pool, logger: logger}, nil
}

// ProcessPayment blocks until a worker has handled the event or ctx is done.
// A panic inside the worker is returned as an error so the offset is not committed.
func (s *WorkerPoolPaymentService) ProcessPayment(ctx context.Context, event *shared.PaymentEvent) error {
	done := make(chan error, 1)
	ev := *event

	submitErr := s.pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Payment worker panicked", "payment_reference", ev.Reference, "panic", r)
				done <- fmt.Errorf("payment %s: worker panic: %v", ev.Reference, r)
			}
		}()
		if err := ctx.Err(); err != nil {
			done <- err
			return
		}
		done <- s.next.ProcessPayment(ctx, &ev)
	})
	if submitErr != nil {
		return fmt.Errorf("queue payment %s: %w", ev.Reference, submitErr)
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown waits briefly for running verifications, then releases the pool
func (s *WorkerPoolPaymentService) Shutdown() {
	if err := s.pool.ReleaseTimeout(10 * time.Second); err != nil {
		s.logger.Warn("Payment worker pool released with tasks still running", "running", s.pool.Running(), "error", err)
	}
}

func (s *WorkerPoolPaymentService) Running() int  { return s.pool.Running() }
func (s *WorkerPoolPaymentService) Capacity() int { return s.pool.Cap() }
