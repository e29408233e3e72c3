// Package orchestrator sequences balance mutations and the records that depend
// on them. Each operation is a saga: when a later step fails, the balance
// moves that already happened are reversed through the ledger service.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/bu-wallet-ledger/internal/domain/event"
	"github.com/bu-wallet-ledger/internal/domain/journal"
	"github.com/bu-wallet-ledger/internal/domain/ticket"
	"github.com/bu-wallet-ledger/internal/domain/transfer"
	"github.com/bu-wallet-ledger/internal/domain/wallet"
	"github.com/bu-wallet-ledger/internal/domain/withdrawal"
	"github.com/bu-wallet-ledger/internal/identity"
	"github.com/bu-wallet-ledger/internal/ledger"
	"github.com/bu-wallet-ledger/internal/platform/persistence"
	"github.com/bu-wallet-ledger/internal/saga"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Config holds the ledger settings the orchestrators depend on
type Config struct {
	PlatformUserID        string
	MaxTicketsPerPurchase int
}

// Dependencies groups the collaborators of an Orchestrator
type Dependencies struct {
	Ledger      *ledger.Service
	TxRunner    persistence.TxRunner
	Transfers   transfer.Repository
	Tickets     ticket.Repository
	Events      event.Repository
	Withdrawals withdrawal.Repository
	PINs        PINVerifier
	Notifier    Notifier
	Journal     Journal
	Payouts     PayoutGateway
}

// Orchestrator runs every multi-step money movement of the wallet
type Orchestrator struct {
	ledger      *ledger.Service
	txRunner    persistence.TxRunner
	transfers   transfer.Repository
	tickets     ticket.Repository
	events      event.Repository
	withdrawals withdrawal.Repository
	pins        PINVerifier
	notifier    Notifier
	journal     Journal
	payouts     PayoutGateway
	cfg         Config
	logger      *slog.Logger
}

func New(deps Dependencies, cfg Config, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		ledger:      deps.Ledger,
		txRunner:    deps.TxRunner,
		transfers:   deps.Transfers,
		tickets:     deps.Tickets,
		events:      deps.Events,
		withdrawals: deps.Withdrawals,
		pins:        deps.PINs,
		notifier:    deps.Notifier,
		journal:     deps.Journal,
		payouts:     deps.Payouts,
		cfg:         cfg,
		logger:      logger,
	}
}

// operation describes one orchestration run for logging and the journal
type operation struct {
	id             uuid.UUID
	kind           journal.Kind
	initiatorID    string
	counterpartyID string
	amount         decimal.Decimal
	correlationID  string
}

func newOperation(kind journal.Kind, initiatorID, counterpartyID string, amount decimal.Decimal, correlationID string) operation {
	return operation{
		id:             uuid.New(),
		kind:           kind,
		initiatorID:    initiatorID,
		counterpartyID: counterpartyID,
		amount:         amount,
		correlationID:  correlationID,
	}
}

func (o *Orchestrator) loggerFor(op operation) *slog.Logger {
	logger := o.logger.With("operation_id", op.id.String(), "kind", string(op.kind))
	if op.correlationID != "" {
		logger = logger.With("correlation_id", op.correlationID)
	}
	return logger
}

// execute runs steps as one saga and journals the outcome. A failure before
// any step took effect is returned as its plain cause; later failures are
// returned as *saga.OrchestrationFailure after compensation.
func (o *Orchestrator) execute(ctx context.Context, op operation, steps ...saga.Step) error {
	s := saga.New(strings.ToLower(string(op.kind)), o.loggerFor(op), steps...)
	err := s.Run(ctx)
	return o.finish(ctx, op, s.Records(), err)
}

// executeTx runs the steps built for tx inside one database transaction. A
// failing step rolls back everything, so these steps carry no compensations.
// The journal is written after commit or rollback.
func (o *Orchestrator) executeTx(ctx context.Context, op operation, build func(tx pgx.Tx) []saga.Step) error {
	var s *saga.Saga
	err := o.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		s = saga.New(strings.ToLower(string(op.kind)), o.loggerFor(op), build(tx)...)
		return s.Run(ctx)
	})

	var records []saga.StepRecord
	if s != nil {
		records = s.Records()
	}
	return o.finish(ctx, op, records, err)
}

func (o *Orchestrator) finish(ctx context.Context, op operation, records []saga.StepRecord, err error) error {
	logger := o.loggerFor(op)
	entry := &journal.Entry{
		OperationID:    op.id,
		Kind:           op.kind,
		InitiatorID:    op.initiatorID,
		CounterpartyID: op.counterpartyID,
		Amount:         op.amount,
		Status:         journal.StatusCompleted,
		Steps:          journalSteps(records),
		CorrelationID:  op.correlationID,
		CreatedAt:      time.Now().UTC(),
	}

	failure, isFailure := saga.AsFailure(err)
	switch {
	case err == nil:
		logger.Info("Operation completed", "amount", op.amount.StringFixed(wallet.Precision))
	case isFailure && failure.CompletedSteps == 0:
		entry.Status = journal.StatusFailed
		entry.FailureReason = failure.Cause.Error()
		logger.Info("Operation rejected", "reason", failure.Cause.Error())
	case isFailure && failure.Compensated:
		entry.Status = journal.StatusCompensated
		entry.FailureReason = failure.Error()
		logger.Warn("Operation compensated", "failed_step", failure.FailedStep, "error", failure.Cause)
	default:
		entry.Status = journal.StatusFailed
		entry.FailureReason = err.Error()
		logger.Error("Operation failed with incomplete compensation", "error", err)
	}

	o.journal.Record(context.WithoutCancel(ctx), entry)

	if isFailure && failure.CompletedSteps == 0 {
		return failure.Cause
	}
	return err
}

func journalSteps(records []saga.StepRecord) []journal.StepRecord {
	steps := make([]journal.StepRecord, 0, len(records))
	for _, r := range records {
		step := journal.StepRecord{Name: r.Name, Outcome: r.Outcome}
		if r.Err != nil {
			step.Error = r.Err.Error()
		}
		steps = append(steps, step)
	}
	return steps
}

// debitStep takes amount from userID; its compensation credits it back
func (o *Orchestrator) debitStep(name, userID string, amount decimal.Decimal) saga.Step {
	return saga.Step{
		Name: name,
		Action: func(ctx context.Context) error {
			result, err := o.ledger.Debit(ctx, userID, amount)
			return mutationErr(userID, amount, result, err)
		},
		Compensate: func(ctx context.Context) error {
			result, err := o.ledger.Credit(ctx, userID, amount)
			return mutationErr(userID, amount, result, err)
		},
	}
}

// creditStep gives amount to userID; its compensation debits it again
func (o *Orchestrator) creditStep(name, userID string, amount decimal.Decimal) saga.Step {
	return saga.Step{
		Name: name,
		Action: func(ctx context.Context) error {
			result, err := o.ledger.Credit(ctx, userID, amount)
			return mutationErr(userID, amount, result, err)
		},
		Compensate: func(ctx context.Context) error {
			result, err := o.ledger.Debit(ctx, userID, amount)
			return mutationErr(userID, amount, result, err)
		},
	}
}

// recordTransferStep inserts t; its compensation deletes it
func (o *Orchestrator) recordTransferStep(t *transfer.Transfer) saga.Step {
	return saga.Step{
		Name: "record_transfer",
		Action: func(ctx context.Context) error {
			return o.transfers.Create(ctx, t)
		},
		Compensate: func(ctx context.Context) error {
			return o.transfers.Delete(ctx, t.ID)
		},
	}
}

func mutationErr(userID string, amount decimal.Decimal, result wallet.MutationResult, err error) error {
	if err != nil {
		return err
	}
	return result.Err(userID, amount)
}

// verifyPIN rejects the operation before any balance is touched
func (o *Orchestrator) verifyPIN(ctx context.Context, userID, pin string) error {
	if o.pins == nil {
		return nil
	}
	return o.pins.Verify(ctx, userID, pin)
}

// IsBusinessError reports errors that describe a rejected request rather than
// a system fault. Such errors leave the ledger untouched.
func IsBusinessError(err error) bool {
	switch {
	case errors.Is(err, wallet.ErrInvalidAmount),
		errors.Is(err, wallet.ErrInsufficientFunds{}),
		errors.Is(err, wallet.ErrWalletNotFound{}),
		errors.Is(err, transfer.ErrDuplicatePayment{}),
		errors.Is(err, event.ErrEventNotFound{}),
		errors.Is(err, withdrawal.ErrWithdrawalNotFound{}),
		errors.Is(err, withdrawal.ErrInvalidTransition{}),
		errors.Is(err, withdrawal.ErrInvalidType),
		errors.Is(err, ledger.ErrMissingUserID),
		errors.Is(err, ErrSelfTransfer),
		errors.Is(err, ErrInvalidTransferType),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrMissingRecipient),
		errors.Is(err, ErrPaymentNotSuccessful),
		errors.Is(err, ErrInvalidPIN),
		errors.Is(err, identity.ErrPINNotSet):
		return true
	}
	return false
}
