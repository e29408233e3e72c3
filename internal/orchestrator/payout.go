package orchestrator

import (
	"context"
	"log/slog"

	"github.com/bu-wallet-ledger/internal/domain/withdrawal"
)

// ManualPayoutGateway leaves every payout to be confirmed by an admin
type ManualPayoutGateway struct {
	logger *slog.Logger
}

func NewManualPayoutGateway(logger *slog.Logger) *ManualPayoutGateway {
	return &ManualPayoutGateway{logger: logger}
}

func (g *ManualPayoutGateway) Payout(_ context.Context, w *withdrawal.Withdrawal) (PayoutResult, error) {
	g.logger.Info("Payout queued for manual confirmation",
		"withdrawal_id", w.ID.String(),
		"user_id", w.UserID,
		"naira_amount", w.NairaAmount.StringFixed(2),
		"type", string(w.Type),
	)
	return PayoutResult{Status: PayoutPending, Reason: "awaiting manual confirmation"}, nil
}
