package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bu-wallet-ledger/internal/api"
	"github.com/bu-wallet-ledger/internal/api/service"
	"github.com/bu-wallet-ledger/internal/config"
	"github.com/bu-wallet-ledger/internal/data/mongo"
	"github.com/bu-wallet-ledger/internal/logger"
	"github.com/bu-wallet-ledger/internal/orchestrator"
	"github.com/bu-wallet-ledger/internal/platform/persistence"
)

func main() {
	cfg, err := config.LoadConfig("wallet_api")
	if err != nil {
		fmt.Fprintf(os.Stderr, "wallet-api: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Wallet API stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("Wallet API stopped")
}

// run serves HTTP until ctx is canceled or the listener fails, then drains
// requests before closing the stores they depend on.
func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	pg, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pg.Close()

	mdb, err := persistence.NewMongoDB(ctx, log, &cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("mongodb: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.MongoDB.Timeout)
		defer cancel()
		if err := mdb.Close(closeCtx); err != nil {
			log.Error("Error closing MongoDB connection", "error", err)
		}
	}()

	journalRepo := mongo.NewJournalRepository(log, mdb.Database())
	if err := journalRepo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("journal indexes: %w", err)
	}

	orch, ledgerService, err := orchestrator.CreateOrchestrator(ctx, pg, journalRepo, cfg, log)
	if err != nil {
		return fmt.Errorf("orchestrator: %w", err)
	}

	server := api.NewServer(log, cfg, service.NewWalletService(log, ledgerService, journalRepo), orch)

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Start() }()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Stop(shutdownCtx)
}
