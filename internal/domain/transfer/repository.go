package transfer

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository manages transfer records
type Repository interface {
	Create(ctx context.Context, t *Transfer) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transfer, error)
	GetByPaymentReference(ctx context.Context, reference string) (*Transfer, error)
	// UpdateStatus moves a transfer from status from to status to. It returns
	// ErrTransferNotFound when no transfer with that id is in status from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error
	Delete(ctx context.Context, id uuid.UUID) error
	WithTx(tx pgx.Tx) Repository
}

// ErrTransferNotFound indicates a missing transfer record
type ErrTransferNotFound struct {
	ID uuid.UUID
}

func (e ErrTransferNotFound) Error() string {
	return "transfer not found: " + e.ID.String()
}

func (e ErrTransferNotFound) Is(target error) bool {
	t, ok := target.(ErrTransferNotFound)
	if !ok {
		return false
	}
	return t.ID == uuid.Nil || t.ID == e.ID
}

// ErrDuplicatePayment indicates an external payment reference that already has a transfer
type ErrDuplicatePayment struct {
	Reference string
}

func (e ErrDuplicatePayment) Error() string {
	return "payment already processed: " + e.Reference
}

func (e ErrDuplicatePayment) Is(target error) bool {
	t, ok := target.(ErrDuplicatePayment)
	if !ok {
		return false
	}
	return t.Reference == "" || t.Reference == e.Reference
}
