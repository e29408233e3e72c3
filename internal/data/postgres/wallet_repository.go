// Package postgres provides PostgreSQL implementations of the domain repositories.
// Every balance change goes through a single atomic statement or stored procedure.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/bu-wallet-ledger/internal/domain/wallet"
	"github.com/bu-wallet-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	procedureInsufficientBalance = "Insufficient balance"
	procedureWalletNotFound      = "Wallet not found"
	genericMutationFailure       = "Unable to update balance, please try again"
)

// WalletRepository implements the wallet.Repository interface for PostgreSQL
type WalletRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
	inTx    bool
	// set once the store reports the balance procedures are absent; shared by WithTx copies
	proceduresMissing *atomic.Bool
}

// NewWalletRepository creates a new PostgreSQL wallet repository
func NewWalletRepository(logger *slog.Logger, db *persistence.PostgresDB) *WalletRepository {
	return &WalletRepository{
		querier:           db.Pool(),
		logger:            logger,
		proceduresMissing: &atomic.Bool{},
	}
}

// WithTx returns a repository bound to tx
func (r *WalletRepository) WithTx(tx pgx.Tx) wallet.Repository {
	return &WalletRepository{
		querier:           tx,
		logger:            r.logger,
		inTx:              true,
		proceduresMissing: r.proceduresMissing,
	}
}

// DetectProcedures checks whether debit_wallet and credit_wallet exist so that a
// transaction never has to discover their absence through a failed statement.
func (r *WalletRepository) DetectProcedures(ctx context.Context) error {
	query := `
		SELECT to_regprocedure('debit_wallet(text, numeric)') IS NOT NULL
		   AND to_regprocedure('credit_wallet(text, numeric)') IS NOT NULL
	`

	var available bool
	if err := r.querier.QueryRow(ctx, query).Scan(&available); err != nil {
		return fmt.Errorf("failed to detect wallet procedures: %w", err)
	}

	r.proceduresMissing.Store(!available)
	if !available {
		r.logger.Warn("Wallet procedures not installed, using conditional update statements")
	}
	return nil
}

// Get retrieves a wallet by user id
func (r *WalletRepository) Get(ctx context.Context, userID string) (*wallet.Wallet, error) {
	query := `
		SELECT user_id, balance, naira_balance, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
	`

	var w wallet.Wallet
	err := r.querier.QueryRow(ctx, query, userID).Scan(
		&w.UserID,
		&w.Balance,
		&w.NairaBalance,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrWalletNotFound{UserID: userID}
		}
		r.logger.Error("Failed to get wallet", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return &w, nil
}

// Debit decreases the balance by amount unless that would make it negative
func (r *WalletRepository) Debit(ctx context.Context, userID string, amount decimal.Decimal) (wallet.MutationResult, error) {
	if !r.proceduresMissing.Load() {
		result, err := r.callProcedure(ctx, "debit_wallet", userID, amount)
		if err == nil || !persistence.IsUndefinedFunction(err) {
			return result, err
		}
		r.proceduresMissing.Store(true)
		r.logger.Warn("debit_wallet procedure missing, switching to conditional update", "user_id", userID)
		if r.inTx {
			// the failed call aborted the surrounding transaction
			return persistenceFailure(err)
		}
	}
	return r.conditionalDebit(ctx, userID, amount)
}

// Credit increases the balance by amount, creating the wallet when absent
func (r *WalletRepository) Credit(ctx context.Context, userID string, amount decimal.Decimal) (wallet.MutationResult, error) {
	if !r.proceduresMissing.Load() {
		result, err := r.callProcedure(ctx, "credit_wallet", userID, amount)
		if err == nil || !persistence.IsUndefinedFunction(err) {
			return result, err
		}
		r.proceduresMissing.Store(true)
		r.logger.Warn("credit_wallet procedure missing, switching to upsert", "user_id", userID)
		if r.inTx {
			// the failed call aborted the surrounding transaction
			return persistenceFailure(err)
		}
	}
	return r.upsertCredit(ctx, userID, amount)
}

func persistenceFailure(err error) (wallet.MutationResult, error) {
	return wallet.MutationResult{
		Success:      false,
		Failure:      wallet.FailurePersistence,
		ErrorMessage: genericMutationFailure,
	}, err
}

func (r *WalletRepository) callProcedure(ctx context.Context, procedure, userID string, amount decimal.Decimal) (wallet.MutationResult, error) {
	query := fmt.Sprintf(`SELECT success, new_balance, balance_before, error_message FROM %s($1, $2)`, procedure)

	var (
		success       bool
		newBalance    decimal.NullDecimal
		balanceBefore decimal.NullDecimal
		errorMessage  *string
	)
	err := r.querier.QueryRow(ctx, query, userID, amount).Scan(&success, &newBalance, &balanceBefore, &errorMessage)
	if err != nil {
		if persistence.IsUndefinedFunction(err) {
			return wallet.MutationResult{}, err
		}
		r.logger.Error("Wallet procedure failed", "procedure", procedure, "user_id", userID, "error", err)
		return persistenceFailure(fmt.Errorf("%s failed: %w", procedure, err))
	}

	result := wallet.MutationResult{
		Success:       success,
		NewBalance:    wallet.Round(newBalance.Decimal),
		BalanceBefore: wallet.Round(balanceBefore.Decimal),
	}
	if success {
		return result, nil
	}

	if errorMessage != nil {
		result.ErrorMessage = *errorMessage
	}
	switch result.ErrorMessage {
	case procedureInsufficientBalance:
		result.Failure = wallet.FailureInsufficientBalance
	case procedureWalletNotFound:
		result.Failure = wallet.FailureWalletNotFound
	default:
		r.logger.Error("Wallet procedure rejected mutation", "procedure", procedure, "user_id", userID, "message", result.ErrorMessage)
		failure, _ := persistenceFailure(nil)
		return failure, wallet.ErrMutationFailed{UserID: userID, Message: result.ErrorMessage}
	}
	return result, nil
}

// conditionalDebit applies the debit in one statement. The UPDATE re-checks
// balance >= amount against the locked row, so concurrent debits cannot overdraw.
func (r *WalletRepository) conditionalDebit(ctx context.Context, userID string, amount decimal.Decimal) (wallet.MutationResult, error) {
	query := `
		WITH current_wallet AS (
			SELECT balance FROM wallets WHERE user_id = $1
		), updated AS (
			UPDATE wallets
			SET balance = ROUND(balance - $2::numeric, 2),
				naira_balance = ROUND(naira_balance - $2::numeric, 2),
				updated_at = NOW()
			WHERE user_id = $1 AND balance >= $2::numeric
			RETURNING balance
		)
		SELECT (SELECT balance FROM current_wallet), (SELECT balance FROM updated)
	`

	var before, after decimal.NullDecimal
	if err := r.querier.QueryRow(ctx, query, userID, amount).Scan(&before, &after); err != nil {
		r.logger.Error("Conditional debit failed", "user_id", userID, "error", err)
		return persistenceFailure(fmt.Errorf("conditional debit failed: %w", err))
	}

	switch {
	case after.Valid:
		newBalance := wallet.Round(after.Decimal)
		return wallet.MutationResult{
			Success:       true,
			NewBalance:    newBalance,
			BalanceBefore: wallet.Round(newBalance.Add(amount)),
		}, nil
	case !before.Valid:
		return wallet.MutationResult{
			Failure:      wallet.FailureWalletNotFound,
			ErrorMessage: procedureWalletNotFound,
		}, nil
	default:
		balance := wallet.Round(before.Decimal)
		return wallet.MutationResult{
			NewBalance:    balance,
			BalanceBefore: balance,
			Failure:       wallet.FailureInsufficientBalance,
			ErrorMessage:  procedureInsufficientBalance,
		}, nil
	}
}

func (r *WalletRepository) upsertCredit(ctx context.Context, userID string, amount decimal.Decimal) (wallet.MutationResult, error) {
	query := `
		INSERT INTO wallets (user_id, balance, naira_balance, created_at, updated_at)
		VALUES ($1, ROUND($2::numeric, 2), ROUND($2::numeric, 2), NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET balance = ROUND(wallets.balance + EXCLUDED.balance, 2),
			naira_balance = ROUND(wallets.naira_balance + EXCLUDED.naira_balance, 2),
			updated_at = NOW()
		RETURNING balance
	`

	var after decimal.Decimal
	if err := r.querier.QueryRow(ctx, query, userID, amount).Scan(&after); err != nil {
		r.logger.Error("Credit upsert failed", "user_id", userID, "error", err)
		return persistenceFailure(fmt.Errorf("credit upsert failed: %w", err))
	}

	newBalance := wallet.Round(after)
	return wallet.MutationResult{
		Success:       true,
		NewBalance:    newBalance,
		BalanceBefore: wallet.Round(newBalance.Sub(amount)),
	}, nil
}
