package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bu-wallet-ledger/internal/config"
	"github.com/bu-wallet-ledger/internal/data/postgres"
	"github.com/bu-wallet-ledger/internal/domain/journal"
	"github.com/bu-wallet-ledger/internal/identity"
	"github.com/bu-wallet-ledger/internal/ledger"
	"github.com/bu-wallet-ledger/internal/platform/persistence"
)

// CreateOrchestrator wires an orchestrator to the PostgreSQL stores and the
// given journal repository. The returned ledger service shares the wallet store.
func CreateOrchestrator(
	ctx context.Context,
	pgDB *persistence.PostgresDB,
	journalRepo journal.Repository,
	cfg *config.Config,
	logger *slog.Logger,
) (*Orchestrator, *ledger.Service, error) {
	walletRepo := postgres.NewWalletRepository(logger, pgDB)
	if err := walletRepo.DetectProcedures(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to prepare wallet store: %w", err)
	}

	ledgerService := ledger.NewService(walletRepo, logger.With("component", "ledger"))

	orch := New(Dependencies{
		Ledger:      ledgerService,
		TxRunner:    pgDB,
		Transfers:   postgres.NewTransferRepository(logger, pgDB),
		Tickets:     postgres.NewTicketRepository(logger, pgDB),
		Events:      postgres.NewEventRepository(logger, pgDB),
		Withdrawals: postgres.NewWithdrawalRepository(logger, pgDB),
		PINs:        identity.NewPINVerifier(logger, postgres.NewCredentialRepository(logger, pgDB)),
		Notifier:    NewOutboxNotifier(postgres.NewOutboxRepository(logger, pgDB), logger),
		Journal:     NewJournalRecorder(journalRepo, logger),
		Payouts:     NewManualPayoutGateway(logger),
	}, Config{
		PlatformUserID:        cfg.Ledger.PlatformUserID,
		MaxTicketsPerPurchase: cfg.Ledger.MaxTicketsPerPurchase,
	}, logger.With("component", "orchestrator"))

	logger.Info("Created orchestrator",
		"platform_user_id", cfg.Ledger.PlatformUserID,
		"max_tickets_per_purchase", cfg.Ledger.MaxTicketsPerPurchase,
	)
	return orch, ledgerService, nil
}
