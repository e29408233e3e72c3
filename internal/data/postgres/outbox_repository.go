package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bu-wallet-ledger/internal/domain/outbox"
	"github.com/bu-wallet-ledger/internal/domain/shared"
	"github.com/bu-wallet-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

const (
	enqueueOutboxSQL = `
		INSERT INTO notification_outbox (operation_id, user_id, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	// rows already leased by another poller are skipped, and the lease is taken
	// by stamping last_attempt_at in the same statement
	claimOutboxSQL = `
		UPDATE notification_outbox o
		SET last_attempt_at = NOW()
		FROM (
			SELECT id FROM notification_outbox
			WHERE status = 'PENDING'
			  AND (last_attempt_at IS NULL OR last_attempt_at < NOW() - make_interval(secs => $2))
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		) due
		WHERE o.id = due.id
		RETURNING o.id, o.operation_id, o.user_id, o.payload, o.status, o.attempts, o.created_at, o.last_attempt_at`

	settleOutboxSQL = `
		UPDATE notification_outbox
		SET status = $2
		WHERE id = $1 AND status = 'PENDING'`

	// a failed row is released for the next poll by clearing its lease
	recordOutboxFailureSQL = `
		UPDATE notification_outbox
		SET attempts = attempts + 1,
		    last_attempt_at = NULL,
		    status = CASE WHEN attempts + 1 >= $2 THEN 'FAILED_TO_PUBLISH' ELSE status END
		WHERE id = $1
		RETURNING status`
)

// OutboxRepository keeps pending notifications in notification_outbox
type OutboxRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewOutboxRepository(logger *slog.Logger, db *persistence.PostgresDB) *OutboxRepository {
	return &OutboxRepository{
		querier: db.Pool(),
		logger:  logger.With("table", "notification_outbox"),
	}
}

func (r *OutboxRepository) Enqueue(ctx context.Context, message *outbox.Message) error {
	err := r.querier.QueryRow(ctx, enqueueOutboxSQL,
		message.OperationID,
		message.UserID,
		message.Payload,
		message.Status,
		message.CreatedAt,
	).Scan(&message.ID)
	if err != nil {
		return fmt.Errorf("enqueue notification for %s: %w", message.UserID, err)
	}
	return nil
}

// ClaimBatch leases up to limit pending messages, oldest first
func (r *OutboxRepository) ClaimBatch(ctx context.Context, limit int, lease time.Duration) ([]*outbox.Message, error) {
	rows, err := r.querier.Query(ctx, claimOutboxSQL, limit, lease.Seconds())
	if err != nil {
		return nil, fmt.Errorf("claim outbox batch: %w", err)
	}

	messages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*outbox.Message, error) {
		var m outbox.Message
		err := row.Scan(&m.ID, &m.OperationID, &m.UserID, &m.Payload, &m.Status, &m.Attempts, &m.CreatedAt, &m.LastAttemptAt)
		return &m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan claimed outbox rows: %w", err)
	}

	if len(messages) > 0 {
		r.logger.Debug("Claimed outbox batch", "count", len(messages), "lease", lease.String())
	}
	return messages, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id int64) error {
	return r.settle(ctx, id, shared.OutboxStatusProcessed)
}

// MarkUndeliverable settles a message that can never be published, such as a corrupt payload
func (r *OutboxRepository) MarkUndeliverable(ctx context.Context, id int64) error {
	return r.settle(ctx, id, shared.OutboxStatusFailedToPublish)
}

func (r *OutboxRepository) settle(ctx context.Context, id int64, status shared.OutboxStatus) error {
	tag, err := r.querier.Exec(ctx, settleOutboxSQL, id, status)
	if err != nil {
		return fmt.Errorf("mark outbox message %d %s: %w", id, status, err)
	}
	if tag.RowsAffected() == 0 {
		return outbox.ErrMessageNotFound{ID: id}
	}
	return nil
}

func (r *OutboxRepository) RecordFailure(ctx context.Context, id int64, maxAttempts int) (shared.OutboxStatus, error) {
	var status shared.OutboxStatus
	err := r.querier.QueryRow(ctx, recordOutboxFailureSQL, id, maxAttempts).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", outbox.ErrMessageNotFound{ID: id}
	}
	if err != nil {
		return "", fmt.Errorf("record failed publish for outbox message %d: %w", id, err)
	}
	if status == shared.OutboxStatusFailedToPublish {
		r.logger.Warn("Outbox message exhausted its attempts", "outbox_id", id, "max_attempts", maxAttempts)
	}
	return status, nil
}
