package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bu-wallet-ledger/internal/domain/transfer"
	"github.com/bu-wallet-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const paymentReferenceConstraint = "transfers_payment_reference_key"

const transferColumns = `id, sender_id, receiver_id, amount, type, status, message, event_id, gateway_id, payment_reference, created_at`

// TransferRepository implements the transfer.Repository interface for PostgreSQL
type TransferRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTransferRepository creates a new PostgreSQL transfer repository
func NewTransferRepository(logger *slog.Logger, db *persistence.PostgresDB) *TransferRepository {
	return &TransferRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx binds the repository to tx so a deposit claim commits together with
// its credit
func (r *TransferRepository) WithTx(tx pgx.Tx) transfer.Repository {
	return &TransferRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create inserts a transfer. A second transfer carrying the same payment
// reference fails with ErrDuplicatePayment.
func (r *TransferRepository) Create(ctx context.Context, t *transfer.Transfer) error {
	query := `
		INSERT INTO transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.querier.Exec(ctx, query,
		t.ID,
		t.SenderID,
		t.ReceiverID,
		t.Amount,
		t.Type,
		t.Status,
		t.Message,
		t.EventID,
		t.GatewayID,
		t.PaymentReference,
		t.CreatedAt,
	)
	if err != nil {
		if persistence.IsUniqueViolation(err, paymentReferenceConstraint) && t.PaymentReference != nil {
			return transfer.ErrDuplicatePayment{Reference: *t.PaymentReference}
		}
		r.logger.Error("Failed to create transfer",
			"transfer_id", t.ID.String(),
			"type", string(t.Type),
			"error", err,
		)
		return fmt.Errorf("failed to create transfer: %w", err)
	}

	return nil
}

func (r *TransferRepository) GetByID(ctx context.Context, id uuid.UUID) (*transfer.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1`

	t, err := scanTransfer(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transfer.ErrTransferNotFound{ID: id}
		}
		r.logger.Error("Failed to get transfer", "transfer_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}
	return t, nil
}

// GetByPaymentReference finds the deposit that claimed an external payment reference
func (r *TransferRepository) GetByPaymentReference(ctx context.Context, reference string) (*transfer.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE payment_reference = $1`

	t, err := scanTransfer(r.querier.QueryRow(ctx, query, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transfer.ErrTransferNotFound{}
		}
		r.logger.Error("Failed to get transfer by payment reference", "reference", reference, "error", err)
		return nil, fmt.Errorf("failed to get transfer by payment reference: %w", err)
	}
	return t, nil
}

// UpdateStatus changes the only mutable column of a transfer, but only while
// the row is still in status from
func (r *TransferRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to transfer.Status) error {
	query := `UPDATE transfers SET status = $1 WHERE id = $2 AND status = $3`

	result, err := r.querier.Exec(ctx, query, to, id, from)
	if err != nil {
		r.logger.Error("Failed to update transfer status",
			"transfer_id", id.String(),
			"from", string(from),
			"to", string(to),
			"error", err,
		)
		return fmt.Errorf("failed to update transfer status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transfer.ErrTransferNotFound{ID: id}
	}
	return nil
}

// Delete removes a transfer row. Only compensations call it.
func (r *TransferRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM transfers WHERE id = $1`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete transfer", "transfer_id", id.String(), "error", err)
		return fmt.Errorf("failed to delete transfer: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transfer.ErrTransferNotFound{ID: id}
	}
	return nil
}

func scanTransfer(row pgx.Row) (*transfer.Transfer, error) {
	var t transfer.Transfer
	err := row.Scan(
		&t.ID,
		&t.SenderID,
		&t.ReceiverID,
		&t.Amount,
		&t.Type,
		&t.Status,
		&t.Message,
		&t.EventID,
		&t.GatewayID,
		&t.PaymentReference,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
