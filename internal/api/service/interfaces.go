package service

import (
	"context"

	"github.com/bu-wallet-ledger/internal/domain/journal"
	"github.com/bu-wallet-ledger/internal/domain/transfer"
	"github.com/bu-wallet-ledger/internal/domain/wallet"
	"github.com/bu-wallet-ledger/internal/domain/withdrawal"
	"github.com/bu-wallet-ledger/internal/orchestrator"
	"github.com/google/uuid"
)

// WalletService serves read-only views of a user's wallet
type WalletService interface {
	// GetWallet returns the wallet of userID or wallet.ErrWalletNotFound
	GetWallet(ctx context.Context, userID string) (*wallet.Wallet, error)

	// GetJournal returns one page of the user's operations, newest first, and the total count
	GetJournal(ctx context.Context, userID string, page, perPage int) ([]*journal.Entry, int64, error)

	// GetJournalEntry returns one operation if userID took part in it
	GetJournalEntry(ctx context.Context, userID string, operationID uuid.UUID) (*journal.Entry, error)
}

// OperationService runs money movements. *orchestrator.Orchestrator implements it.
type OperationService interface {
	Transfer(ctx context.Context, req orchestrator.TransferRequest) (*transfer.Transfer, error)
	PurchaseTicket(ctx context.Context, req orchestrator.TicketPurchaseRequest) (*orchestrator.TicketPurchase, error)
	GatewayQRTransfer(ctx context.Context, req orchestrator.GatewayQRRequest) (*transfer.Transfer, error)
	RequestWithdrawal(ctx context.Context, req orchestrator.WithdrawalRequest) (*withdrawal.Withdrawal, error)
	MarkProcessing(ctx context.Context, req orchestrator.TransitionRequest) (*withdrawal.Withdrawal, error)
	Complete(ctx context.Context, req orchestrator.TransitionRequest) (*withdrawal.Withdrawal, error)
	Fail(ctx context.Context, req orchestrator.TransitionRequest) (*withdrawal.Withdrawal, error)
	ProcessPayout(ctx context.Context, req orchestrator.TransitionRequest) (*withdrawal.Withdrawal, error)
}

var _ OperationService = (*orchestrator.Orchestrator)(nil)
