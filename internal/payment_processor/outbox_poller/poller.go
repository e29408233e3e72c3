package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bu-wallet-ledger/internal/config"
	"github.com/bu-wallet-ledger/internal/domain/outbox"
	"github.com/bu-wallet-ledger/internal/metrics"
)

// Poller drains pending notification outbox messages
type Poller struct {
	outboxRepo       outbox.Repository
	publisher        NotificationPublisher
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
	claimLease       time.Duration
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	publisher NotificationPublisher,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		publisher:        publisher,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
		claimLease:       cfg.ClaimLease,
	}
}

// Start polls until ctx is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting notification outbox poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
		"claim_lease", p.claimLease.String(),
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox poller stopping")
			return
		case <-ticker.C:
			if err := p.processPendingMessages(ctx); err != nil {
				p.logger.Error("Error while draining notification outbox", "error", err)
			}
		}
	}
}

func (p *Poller) processPendingMessages(ctx context.Context) error {
	messages, err := p.outboxRepo.ClaimBatch(ctx, p.batchSize, p.claimLease)
	if err != nil {
		return fmt.Errorf("failed to claim outbox messages: %w", err)
	}

	for _, msg := range messages {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := p.publisher.PublishNotification(ctx, msg)
		if err == nil || errors.Is(err, ErrUndeliverable) {
			continue
		}

		p.logger.Warn("Failed to publish notification",
			"outbox_id", msg.ID, "operation_id", msg.OperationID.String(), "attempts", msg.Attempts, "error", err,
		)

		status, errRecord := p.outboxRepo.RecordFailure(ctx, msg.ID, p.maxRetryAttempts)
		if errRecord != nil {
			p.logger.Error("Failed to record publish failure", "outbox_id", msg.ID, "error", errRecord)
			continue
		}
		msg.Status = status
		if msg.Settled() {
			p.logger.Warn("Giving up on notification",
				"outbox_id", msg.ID, "user_id", msg.UserID, "max_attempts", p.maxRetryAttempts,
			)
			metrics.RecordNotification("abandoned")
		}
	}
	return nil
}
