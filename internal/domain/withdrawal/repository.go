package withdrawal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository manages withdrawal persistence.
// Transition is a conditional update that only succeeds when the current status is one of from.
type Repository interface {
	Create(ctx context.Context, w *Withdrawal) error
	GetByID(ctx context.Context, id uuid.UUID) (*Withdrawal, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Transition(ctx context.Context, id uuid.UUID, from []Status, to Status, failureReason string) (*Withdrawal, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrWithdrawalNotFound indicates missing withdrawal
type ErrWithdrawalNotFound struct {
	ID uuid.UUID
}

func (e ErrWithdrawalNotFound) Error() string {
	return "withdrawal not found: " + e.ID.String()
}

func (e ErrWithdrawalNotFound) Is(target error) bool {
	t, ok := target.(ErrWithdrawalNotFound)
	if !ok {
		return false
	}
	return t.ID == uuid.Nil || t.ID == e.ID
}

// ErrInvalidTransition indicates a status change the state machine forbids
type ErrInvalidTransition struct {
	From Status
	To   Status
}

func (e ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid withdrawal transition from %q to %q", e.From, e.To)
}

func (e ErrInvalidTransition) Is(target error) bool {
	_, ok := target.(ErrInvalidTransition)
	return ok
}
