package journal

import (
	"context"

	"github.com/google/uuid"
)

// Repository stores orchestration audit entries with pagination support
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByOperationID(ctx context.Context, operationID uuid.UUID) (*Entry, error)
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*Entry, error)
	CountByUserID(ctx context.Context, userID string) (int64, error)
}

// ErrEntryNotFound indicates missing journal entry
type ErrEntryNotFound struct {
	OperationID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "journal entry not found: " + e.OperationID.String()
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	if t.OperationID == uuid.Nil {
		return true
	}
	return e.OperationID == t.OperationID
}

// ErrDuplicateEntry indicates an operation id that was already journaled
type ErrDuplicateEntry struct {
	OperationID uuid.UUID
}

func (e ErrDuplicateEntry) Error() string {
	return "duplicate journal entry: " + e.OperationID.String()
}

func (e ErrDuplicateEntry) Is(target error) bool {
	t, ok := target.(ErrDuplicateEntry)
	if !ok {
		return false
	}
	return t.OperationID == uuid.Nil || e.OperationID == t.OperationID
}
