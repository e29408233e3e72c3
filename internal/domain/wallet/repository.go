package wallet

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// FailureReason classifies why a balance mutation was not applied
type FailureReason string

const (
	FailureNone                FailureReason = ""
	FailureInsufficientBalance FailureReason = "INSUFFICIENT_BALANCE"
	FailureWalletNotFound      FailureReason = "WALLET_NOT_FOUND"
	FailurePersistence         FailureReason = "PERSISTENCE_ERROR"
)

// MutationResult is the outcome of a single debit or credit.
// When Success is false the wallet is unchanged.
type MutationResult struct {
	Success       bool            `json:"success"`
	NewBalance    decimal.Decimal `json:"new_balance"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	Failure       FailureReason   `json:"failure,omitempty"`
	ErrorMessage  string          `json:"error_message,omitempty"`
}

// Err converts an unsuccessful result into a typed error. It returns nil on success.
func (r MutationResult) Err(userID string, amount decimal.Decimal) error {
	if r.Success {
		return nil
	}
	switch r.Failure {
	case FailureInsufficientBalance:
		return ErrInsufficientFunds{UserID: userID, Have: r.BalanceBefore, Need: amount}
	case FailureWalletNotFound:
		return ErrWalletNotFound{UserID: userID}
	default:
		return ErrMutationFailed{UserID: userID, Message: r.ErrorMessage}
	}
}

// Repository is the store contract for wallet rows. Implementations must apply
// each Debit/Credit as one indivisible step at the store.
type Repository interface {
	Get(ctx context.Context, userID string) (*Wallet, error)
	Debit(ctx context.Context, userID string, amount decimal.Decimal) (MutationResult, error)
	Credit(ctx context.Context, userID string, amount decimal.Decimal) (MutationResult, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrWalletNotFound indicates a user without a wallet row
type ErrWalletNotFound struct {
	UserID string
}

func (e ErrWalletNotFound) Error() string {
	return "wallet not found for user: " + e.UserID
}

// Is matches any ErrWalletNotFound when the target has no user id
func (e ErrWalletNotFound) Is(target error) bool {
	t, ok := target.(ErrWalletNotFound)
	if !ok {
		return false
	}
	return t.UserID == "" || t.UserID == e.UserID
}

// ErrInsufficientFunds reports the balance the debit was checked against
type ErrInsufficientFunds struct {
	UserID string
	Have   decimal.Decimal
	Need   decimal.Decimal
}

func (e ErrInsufficientFunds) Error() string {
	return "insufficient balance: you have " + e.Have.StringFixed(Precision) + " BU, need " + e.Need.StringFixed(Precision) + " BU"
}

func (e ErrInsufficientFunds) Is(target error) bool {
	_, ok := target.(ErrInsufficientFunds)
	return ok
}

// ErrMutationFailed is a non-business failure reported by the store
type ErrMutationFailed struct {
	UserID  string
	Message string
}

func (e ErrMutationFailed) Error() string {
	if e.Message == "" {
		return "balance update failed for user: " + e.UserID
	}
	return "balance update failed for user " + e.UserID + ": " + e.Message
}
