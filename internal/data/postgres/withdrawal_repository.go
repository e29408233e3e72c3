package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bu-wallet-ledger/internal/domain/withdrawal"
	"github.com/bu-wallet-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const withdrawalColumns = `id, user_id, bu_amount, naira_amount, type, status, funds_locked, failure_reason, created_at, completed_at`

// WithdrawalRepository implements the withdrawal.Repository interface for PostgreSQL
type WithdrawalRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewWithdrawalRepository(logger *slog.Logger, db *persistence.PostgresDB) *WithdrawalRepository {
	return &WithdrawalRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so a status change and its
// refund commit together.
func (r *WithdrawalRepository) WithTx(tx pgx.Tx) withdrawal.Repository {
	return &WithdrawalRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func (r *WithdrawalRepository) Create(ctx context.Context, w *withdrawal.Withdrawal) error {
	query := `
		INSERT INTO withdrawals (` + withdrawalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.querier.Exec(ctx, query,
		w.ID,
		w.UserID,
		w.BUAmount,
		w.NairaAmount,
		w.Type,
		w.Status,
		w.FundsLocked,
		w.FailureReason,
		w.CreatedAt,
		w.CompletedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create withdrawal",
			"withdrawal_id", w.ID.String(),
			"user_id", w.UserID,
			"error", err,
		)
		return fmt.Errorf("failed to create withdrawal: %w", err)
	}
	return nil
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*withdrawal.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE id = $1`

	w, err := scanWithdrawal(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, withdrawal.ErrWithdrawalNotFound{ID: id}
		}
		r.logger.Error("Failed to get withdrawal", "withdrawal_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}
	return w, nil
}

func (r *WithdrawalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.querier.Exec(ctx, `DELETE FROM withdrawals WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete withdrawal", "withdrawal_id", id.String(), "error", err)
		return fmt.Errorf("failed to delete withdrawal: %w", err)
	}

	if result.RowsAffected() == 0 {
		return withdrawal.ErrWithdrawalNotFound{ID: id}
	}
	return nil
}

// Transition moves a withdrawal to `to` only while its status is one of from.
// Terminal targets stamp completed_at. When no row matches, the current row is
// read to tell a missing withdrawal apart from a forbidden transition.
func (r *WithdrawalRepository) Transition(ctx context.Context, id uuid.UUID, from []withdrawal.Status, to withdrawal.Status, failureReason string) (*withdrawal.Withdrawal, error) {
	query := `
		UPDATE withdrawals
		SET status = $2,
			failure_reason = $3,
			completed_at = CASE WHEN $4 THEN NOW() ELSE completed_at END
		WHERE id = $1 AND status = ANY($5)
		RETURNING ` + withdrawalColumns

	sources := make([]string, len(from))
	for i, s := range from {
		sources[i] = string(s)
	}

	w, err := scanWithdrawal(r.querier.QueryRow(ctx, query, id, to, failureReason, to.IsTerminal(), sources))
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error("Failed to transition withdrawal",
			"withdrawal_id", id.String(),
			"to", string(to),
			"error", err,
		)
		return nil, fmt.Errorf("failed to transition withdrawal: %w", err)
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, withdrawal.ErrInvalidTransition{From: current.Status, To: to}
}

func scanWithdrawal(row pgx.Row) (*withdrawal.Withdrawal, error) {
	var w withdrawal.Withdrawal
	err := row.Scan(
		&w.ID,
		&w.UserID,
		&w.BUAmount,
		&w.NairaAmount,
		&w.Type,
		&w.Status,
		&w.FundsLocked,
		&w.FailureReason,
		&w.CreatedAt,
		&w.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
