package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bu-wallet-ledger/internal/domain/journal"
	"github.com/bu-wallet-ledger/internal/domain/notification"
	"github.com/bu-wallet-ledger/internal/domain/wallet"
	"github.com/bu-wallet-ledger/internal/domain/withdrawal"
	"github.com/bu-wallet-ledger/internal/saga"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WithdrawalRequest asks to move BU out of the wallet
type WithdrawalRequest struct {
	UserID        string
	Amount        decimal.Decimal
	Type          withdrawal.Type
	PIN           string
	CorrelationID string
}

// RequestWithdrawal debits the amount immediately and records a pending
// withdrawal holding the locked funds.
func (o *Orchestrator) RequestWithdrawal(ctx context.Context, req WithdrawalRequest) (*withdrawal.Withdrawal, error) {
	amount, err := wallet.NormalizeAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	w, err := withdrawal.New(req.UserID, amount, req.Type)
	if err != nil {
		return nil, err
	}

	if err := o.verifyPIN(ctx, req.UserID, req.PIN); err != nil {
		return nil, err
	}

	op := newOperation(journal.KindWithdrawalRequest, req.UserID, "", amount, req.CorrelationID)
	op.id = w.ID

	err = o.execute(ctx, op,
		o.debitStep("lock_funds", req.UserID, amount),
		saga.Step{
			Name:       "record_withdrawal",
			Action:     func(ctx context.Context) error { return o.withdrawals.Create(ctx, w) },
			Compensate: func(ctx context.Context) error { return o.withdrawals.Delete(ctx, w.ID) },
		},
	)
	if err != nil {
		return nil, err
	}

	o.notifyWithdrawal(ctx, w, req.CorrelationID)
	return w, nil
}

// TransitionRequest is an admin action on an existing withdrawal
type TransitionRequest struct {
	WithdrawalID  uuid.UUID
	ActorID       string
	Reason        string
	CorrelationID string
}

// MarkProcessing moves a pending withdrawal to processing
func (o *Orchestrator) MarkProcessing(ctx context.Context, req TransitionRequest) (*withdrawal.Withdrawal, error) {
	return o.transition(ctx, req, withdrawal.StatusProcessing)
}

// Complete finalizes a withdrawal. Locked funds stay debited; an unlocked
// withdrawal is debited now.
func (o *Orchestrator) Complete(ctx context.Context, req TransitionRequest) (*withdrawal.Withdrawal, error) {
	return o.transition(ctx, req, withdrawal.StatusCompleted)
}

// Fail ends a withdrawal unsuccessfully and refunds locked funds
func (o *Orchestrator) Fail(ctx context.Context, req TransitionRequest) (*withdrawal.Withdrawal, error) {
	return o.transition(ctx, req, withdrawal.StatusFailed)
}

// transition applies the status change and its balance effect in one
// database transaction. The conditional update lets only one caller leave a
// given state, so a refund is applied at most once.
func (o *Orchestrator) transition(ctx context.Context, req TransitionRequest, to withdrawal.Status) (*withdrawal.Withdrawal, error) {
	var updated *withdrawal.Withdrawal

	err := o.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		w, err := o.withdrawals.WithTx(tx).Transition(ctx, req.WithdrawalID, withdrawal.SourcesFor(to), to, req.Reason)
		if err != nil {
			return err
		}

		ledgerTx := o.ledger.WithTx(tx)
		switch {
		case to == withdrawal.StatusFailed && w.FundsLocked:
			result, err := ledgerTx.Credit(ctx, w.UserID, w.BUAmount)
			if err := mutationErr(w.UserID, w.BUAmount, result, err); err != nil {
				return fmt.Errorf("failed to refund withdrawal: %w", err)
			}
		case to == withdrawal.StatusCompleted && !w.FundsLocked:
			result, err := ledgerTx.Debit(ctx, w.UserID, w.BUAmount)
			if err := mutationErr(w.UserID, w.BUAmount, result, err); err != nil {
				return fmt.Errorf("failed to debit withdrawal: %w", err)
			}
		}

		updated = w
		return nil
	})

	op := newOperation(journal.KindWithdrawalUpdate, req.ActorID, "", decimal.Zero, req.CorrelationID)
	op.id = req.WithdrawalID
	entry := &journal.Entry{
		OperationID:   uuid.New(),
		Kind:          op.kind,
		InitiatorID:   req.ActorID,
		Status:        journal.StatusCompleted,
		CorrelationID: req.CorrelationID,
		CreatedAt:     time.Now().UTC(),
		Steps:         []journal.StepRecord{{Name: "to_" + string(to), Outcome: saga.OutcomeCompleted}},
	}
	logger := o.loggerFor(op)

	if err != nil {
		if !errors.Is(err, withdrawal.ErrInvalidTransition{}) && !errors.Is(err, withdrawal.ErrWithdrawalNotFound{}) {
			logger.Error("Withdrawal transition failed", "to", string(to), "error", err)
			entry.Status = journal.StatusFailed
			entry.FailureReason = err.Error()
			entry.Steps[0].Outcome = saga.OutcomeFailed
			o.journal.Record(context.WithoutCancel(ctx), entry)
		}
		return nil, err
	}

	entry.CounterpartyID = updated.UserID
	entry.Amount = updated.BUAmount
	entry.FailureReason = updated.FailureReason
	o.journal.Record(context.WithoutCancel(ctx), entry)
	logger.Info("Withdrawal transitioned", "to", string(to), "user_id", updated.UserID)

	o.notifyWithdrawal(ctx, updated, req.CorrelationID)
	return updated, nil
}

// ProcessPayout moves a pending withdrawal to processing and hands it to the
// payout gateway, then applies the verdict. The gateway is called only by the
// caller that won the pending to processing transition, so a retried request
// never issues a second payout. A pending verdict leaves the withdrawal in
// processing until an admin completes or fails it.
func (o *Orchestrator) ProcessPayout(ctx context.Context, req TransitionRequest) (*withdrawal.Withdrawal, error) {
	w, err := o.withdrawals.GetByID(ctx, req.WithdrawalID)
	if err != nil {
		return nil, err
	}
	if w.Status != withdrawal.StatusPending {
		return nil, withdrawal.ErrInvalidTransition{From: w.Status, To: withdrawal.StatusProcessing}
	}

	if w, err = o.MarkProcessing(ctx, req); err != nil {
		return nil, err
	}

	result, err := o.payouts.Payout(ctx, w)
	if err != nil {
		o.logger.Error("Payout gateway call failed, withdrawal left in processing",
			"withdrawal_id", w.ID.String(),
			"error", err,
		)
		return nil, fmt.Errorf("payout gateway: %w", err)
	}

	switch result.Status {
	case PayoutSucceeded:
		return o.Complete(ctx, req)
	case PayoutFailed:
		req.Reason = result.Reason
		return o.Fail(ctx, req)
	default:
		return w, nil
	}
}

func (o *Orchestrator) notifyWithdrawal(ctx context.Context, w *withdrawal.Withdrawal, correlationID string) {
	body := fmt.Sprintf("Your withdrawal of %s BU is %s", w.BUAmount.StringFixed(wallet.Precision), w.Status)
	if w.Status == withdrawal.StatusFailed && w.FundsLocked {
		body += " and the funds were returned to your wallet"
	}
	o.notify(ctx, correlationID,
		notification.New(w.ID, w.UserID, notification.KindWithdrawalUpdated, "Withdrawal update", body, w.BUAmount))
}
