package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/bu-wallet-ledger/internal/config"
	"github.com/bu-wallet-ledger/internal/data/mongo"
	"github.com/bu-wallet-ledger/internal/data/postgres"
	"github.com/bu-wallet-ledger/internal/logger"
	"github.com/bu-wallet-ledger/internal/orchestrator"
	"github.com/bu-wallet-ledger/internal/payment_processor/consumer"
	"github.com/bu-wallet-ledger/internal/payment_processor/outbox_poller"
	"github.com/bu-wallet-ledger/internal/payment_processor/service"
	"github.com/bu-wallet-ledger/internal/platform/messaging/consumers"
	"github.com/bu-wallet-ledger/internal/platform/messaging/producers"
	"github.com/bu-wallet-ledger/internal/platform/persistence"
)

func main() {
	cfg, err := config.LoadConfig("payment_worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "payment-worker: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Payment worker stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("Payment worker stopped")
}

// run consumes verified gateway payments and drains the notification outbox
// until ctx is canceled or the consumer fails.
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

	orch, _, err := orchestrator.CreateOrchestrator(ctx, pg, journalRepo, cfg, log)
	if err != nil {
		return fmt.Errorf("orchestrator: %w", err)
	}

	dlqProducer, err := producers.NewDLQProducer(ctx, log, &cfg.Kafka)
	if err != nil {
		return fmt.Errorf("dlq producer: %w", err)
	}
	var deadLetters producers.DeadLetterPublisher
	if dlqProducer != nil {
		defer closeLogged(log, "DLQ producer", dlqProducer.Close)
		// keep a nil *DLQProducer out of the interface
		deadLetters = dlqProducer
	}

	notificationProducer, err := producers.NewNotificationProducer(ctx, log, &cfg.Kafka)
	if err != nil {
		return fmt.Errorf("notification producer: %w", err)
	}
	defer closeLogged(log, "notification producer", notificationProducer.Close)

	kafkaConsumer := consumers.NewKafkaConsumer(ctx, log, &cfg.Kafka)
	defer closeLogged(log, "payment consumer", kafkaConsumer.Close)

	payments := service.CreatePaymentService(orch, cfg, log)
	if pool, ok := payments.(*service.WorkerPoolPaymentService); ok {
		defer func() {
			log.Info("Draining payment worker pool", "running_workers", pool.Running())
			pool.Shutdown()
		}()
	}
	handler := consumer.NewPaymentEventHandler(log, payments, deadLetters)

	outboxRepo := postgres.NewOutboxRepository(log, pg)
	poller := outbox_poller.NewPoller(&cfg.Outbox, outboxRepo,
		outbox_poller.NewNotificationPublisher(outboxRepo, notificationProducer, log), log)

	workCtx, cancelWork := context.WithCancel(ctx)
	defer cancelWork()

	// both loops return only once their in-flight work has finished
	var wg sync.WaitGroup
	consumeErr := make(chan error, 1)

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := kafkaConsumer.Subscribe(workCtx, cfg.Kafka.PaymentTopic, cfg.Kafka.ConsumerGroup, handler.HandleMessage); err != nil {
			consumeErr <- fmt.Errorf("payment consumer: %w", err)
		}
	}()
	go func() {
		defer wg.Done()
		poller.Start(workCtx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case runErr = <-consumeErr:
	}
	cancelWork()

	stopped := make(chan struct{})
	go func() {
		wg.Wait()
		close(stopped)
	}()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached before consumer and poller stopped")
	}
	return runErr
}

func closeLogged(log *slog.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		log.Error("Error closing "+name, "error", err)
	}
}
