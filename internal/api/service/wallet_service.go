package service

import (
	"context"
	"log/slog"

	"github.com/bu-wallet-ledger/internal/domain/journal"
	"github.com/bu-wallet-ledger/internal/domain/wallet"
	"github.com/bu-wallet-ledger/internal/ledger"
	"github.com/google/uuid"
)

type WalletServiceImpl struct {
	ledger      *ledger.Service
	journalRepo journal.Repository
	logger      *slog.Logger
}

func NewWalletService(logger *slog.Logger, ledgerService *ledger.Service, journalRepo journal.Repository) WalletService {
	return &WalletServiceImpl{
		ledger:      ledgerService,
		journalRepo: journalRepo,
		logger:      logger,
	}
}

func (s *WalletServiceImpl) GetWallet(ctx context.Context, userID string) (*wallet.Wallet, error) {
	w, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	w.Balance = wallet.Round(w.Balance)
	w.NairaBalance = wallet.Round(w.NairaBalance)
	return w, nil
}

func (s *WalletServiceImpl) GetJournal(ctx context.Context, userID string, page, perPage int) ([]*journal.Entry, int64, error) {
	offset := (page - 1) * perPage

	total, err := s.journalRepo.CountByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to count journal entries", "user_id", userID, "error", err)
		return nil, 0, err
	}
	if total == 0 || int64(offset) >= total {
		return []*journal.Entry{}, total, nil
	}

	entries, err := s.journalRepo.GetByUserID(ctx, userID, perPage, offset)
	if err != nil {
		s.logger.Error("Failed to load journal entries", "user_id", userID, "page", page, "error", err)
		return nil, 0, err
	}
	return entries, total, nil
}

// GetJournalEntry hides entries of other users behind ErrEntryNotFound
func (s *WalletServiceImpl) GetJournalEntry(ctx context.Context, userID string, operationID uuid.UUID) (*journal.Entry, error) {
	entry, err := s.journalRepo.GetByOperationID(ctx, operationID)
	if err != nil {
		return nil, err
	}
	if entry.InitiatorID != userID && entry.CounterpartyID != userID {
		return nil, journal.ErrEntryNotFound{OperationID: operationID}
	}
	return entry, nil
}
