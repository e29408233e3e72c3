package orchestrator

import (
	"context"

	"github.com/bu-wallet-ledger/internal/domain/journal"
	"github.com/bu-wallet-ledger/internal/domain/notification"
	"github.com/bu-wallet-ledger/internal/domain/withdrawal"
)

// PINVerifier checks the caller's transaction PIN before money moves
type PINVerifier interface {
	Verify(ctx context.Context, userID, pin string) error
}

// Notifier hands notifications to the notification sink. It never fails the caller.
type Notifier interface {
	Notify(ctx context.Context, notifications ...*notification.Notification)
}

// Journal records the outcome of every orchestration run. It never fails the caller.
type Journal interface {
	Record(ctx context.Context, entry *journal.Entry)
}

// PayoutStatus is the payout gateway's answer for one withdrawal
type PayoutStatus string

const (
	PayoutSucceeded PayoutStatus = "succeeded"
	PayoutFailed    PayoutStatus = "failed"
	PayoutPending   PayoutStatus = "pending"
)

// PayoutResult is the response of a payout attempt
type PayoutResult struct {
	Status    PayoutStatus
	Reference string
	Reason    string
}

// PayoutGateway moves real-world money for a withdrawal. It is called at most
// once per withdrawal; w.ID is the reference to hand to the provider.
type PayoutGateway interface {
	Payout(ctx context.Context, w *withdrawal.Withdrawal) (PayoutResult, error)
}
