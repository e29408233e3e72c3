package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/bu-wallet-ledger/internal/domain/shared"
)

// Repository persists outbox messages and hands them out to pollers.
// ClaimBatch leases rows so concurrent pollers never publish the same message twice
// within the lease window.
type Repository interface {
	Enqueue(ctx context.Context, message *Message) error
	ClaimBatch(ctx context.Context, limit int, lease time.Duration) ([]*Message, error)
	MarkPublished(ctx context.Context, id int64) error
	MarkUndeliverable(ctx context.Context, id int64) error
	// RecordFailure counts a failed publish and returns the resulting status,
	// which becomes FAILED_TO_PUBLISH once maxAttempts is reached.
	RecordFailure(ctx context.Context, id int64, maxAttempts int) (shared.OutboxStatus, error)
}

type ErrMessageNotFound struct {
	ID int64
}

func (e ErrMessageNotFound) Error() string {
	return fmt.Sprintf("outbox message %d not found", e.ID)
}
