// Package ledger is the only sanctioned way to change a wallet balance.
// Orchestrators and their compensations both go through Debit and Credit so that
// every movement, reversals included, is validated and rounded the same way.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/bu-wallet-ledger/internal/domain/wallet"
	"github.com/bu-wallet-ledger/internal/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var ErrMissingUserID = errors.New("user id is required")

const (
	operationDebit  = "debit"
	operationCredit = "credit"
)

// Service applies balance mutations through a wallet.Repository
type Service struct {
	repo   wallet.Repository
	logger *slog.Logger
}

func NewService(repo wallet.Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// WithTx returns a service whose mutations join tx
func (s *Service) WithTx(tx pgx.Tx) *Service {
	return &Service{
		repo:   s.repo.WithTx(tx),
		logger: s.logger,
	}
}

// Balance reads the current wallet of userID
func (s *Service) Balance(ctx context.Context, userID string) (*wallet.Wallet, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	return s.repo.Get(ctx, userID)
}

// Debit removes amount from the wallet of userID. Insufficient funds and a
// missing wallet are reported through the result with a nil error; a non-nil
// error means the store could not be reached or rejected the call, and the
// wallet must be assumed unchanged.
func (s *Service) Debit(ctx context.Context, userID string, amount decimal.Decimal) (wallet.MutationResult, error) {
	return s.mutate(ctx, operationDebit, userID, amount, s.repo.Debit)
}

// Credit adds amount to the wallet of userID, creating the wallet if needed
func (s *Service) Credit(ctx context.Context, userID string, amount decimal.Decimal) (wallet.MutationResult, error) {
	return s.mutate(ctx, operationCredit, userID, amount, s.repo.Credit)
}

type mutation func(ctx context.Context, userID string, amount decimal.Decimal) (wallet.MutationResult, error)

func (s *Service) mutate(ctx context.Context, operation, userID string, amount decimal.Decimal, apply mutation) (wallet.MutationResult, error) {
	if userID == "" {
		metrics.RecordMutation(operation, "invalid_request")
		return wallet.MutationResult{}, ErrMissingUserID
	}

	normalized, err := wallet.NormalizeAmount(amount)
	if err != nil {
		s.logger.Warn("Rejected balance mutation", "operation", operation, "user_id", userID, "amount", amount.String())
		metrics.RecordMutation(operation, "invalid_request")
		return wallet.MutationResult{}, err
	}

	result, err := apply(ctx, userID, normalized)
	if err != nil {
		s.logger.Error("Balance mutation failed",
			"operation", operation,
			"user_id", userID,
			"amount", normalized.StringFixed(wallet.Precision),
			"error", err,
		)
		metrics.RecordMutation(operation, outcome(wallet.FailurePersistence))
		result.Success = false
		if result.Failure == wallet.FailureNone {
			result.Failure = wallet.FailurePersistence
		}
		return result, err
	}

	if !result.Success {
		s.logger.Info("Balance mutation rejected",
			"operation", operation,
			"user_id", userID,
			"amount", normalized.StringFixed(wallet.Precision),
			"reason", string(result.Failure),
		)
		metrics.RecordMutation(operation, outcome(result.Failure))
		return result, nil
	}

	s.logger.Info("Balance mutated",
		"operation", operation,
		"user_id", userID,
		"amount", normalized.StringFixed(wallet.Precision),
		"balance_before", result.BalanceBefore.StringFixed(wallet.Precision),
		"new_balance", result.NewBalance.StringFixed(wallet.Precision),
	)
	metrics.RecordMutation(operation, "success")
	return result, nil
}

func outcome(reason wallet.FailureReason) string {
	return strings.ToLower(string(reason))
}
