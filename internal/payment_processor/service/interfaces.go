package service

import (
	"context"

	"github.com/bu-wallet-ledger/internal/domain/shared"
	"github.com/bu-wallet-ledger/internal/domain/transfer"
)

// PaymentService processes verified payment callbacks
type PaymentService interface {
	ProcessPayment(ctx context.Context, event *shared.PaymentEvent) error
}

// PaymentVerifier credits a verified payment exactly once
type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, event shared.PaymentEvent) (*transfer.Transfer, error)
}
