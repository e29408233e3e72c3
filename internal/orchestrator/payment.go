package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/bu-wallet-ledger/internal/domain/journal"
	"github.com/bu-wallet-ledger/internal/domain/notification"
	"github.com/bu-wallet-ledger/internal/domain/shared"
	"github.com/bu-wallet-ledger/internal/domain/transfer"
	"github.com/bu-wallet-ledger/internal/domain/wallet"
	"github.com/bu-wallet-ledger/internal/saga"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// PaymentSenderID is the sender recorded on deposits that name no gateway
const PaymentSenderID = "payment_gateway"

// VerifyPayment credits a verified external payment exactly once. The
// payment reference is claimed with a pending deposit, the user is credited
// and the deposit completed in one database transaction, so a failure leaves
// neither the claim nor the credit behind. A replayed callback fails with
// ErrDuplicatePayment. A claim left pending by an older worker is resumed.
func (o *Orchestrator) VerifyPayment(ctx context.Context, ev shared.PaymentEvent) (*transfer.Transfer, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	if ev.Status != shared.PaymentStatusSuccess {
		return nil, fmt.Errorf("%w: %s", ErrPaymentNotSuccessful, ev.Status)
	}

	parsed, err := decimal.NewFromString(ev.Amount)
	if err != nil {
		return nil, wallet.ErrInvalidAmount
	}
	amount, err := wallet.NormalizeAmount(parsed)
	if err != nil {
		return nil, err
	}

	existing, err := o.transfers.GetByPaymentReference(ctx, ev.Reference)
	switch {
	case err == nil && existing.Status == transfer.StatusPending:
		return o.resumePayment(ctx, existing, ev.CorrelationID)
	case err == nil:
		return existing, transfer.ErrDuplicatePayment{Reference: ev.Reference}
	case !errors.Is(err, transfer.ErrTransferNotFound{}):
		return nil, err
	}

	sender := PaymentSenderID
	if ev.GatewayID != "" {
		sender = ev.GatewayID
	}
	record, err := transfer.New(sender, ev.UserID, amount, transfer.TypeDeposit, transfer.StatusPending, "Wallet funding")
	if err != nil {
		return nil, err
	}
	reference := ev.Reference
	record.PaymentReference = &reference

	op := newOperation(journal.KindPaymentVerification, ev.UserID, sender, amount, ev.CorrelationID)
	op.id = record.ID

	err = o.executeTx(ctx, op, func(tx pgx.Tx) []saga.Step {
		transfers := o.transfers.WithTx(tx)
		return []saga.Step{
			{
				Name:   "claim_reference",
				Action: func(ctx context.Context) error { return transfers.Create(ctx, record) },
			},
			o.depositCreditStep(tx, record),
			completeDepositStep(transfers, record),
		}
	})
	if err != nil {
		return nil, err
	}
	record.Status = transfer.StatusCompleted

	o.notifyFunded(ctx, record, ev.CorrelationID)
	return record, nil
}

// resumePayment finishes a deposit whose claim committed without its credit.
// Completing the claim first locks the row, so only one resumer credits.
func (o *Orchestrator) resumePayment(ctx context.Context, record *transfer.Transfer, correlationID string) (*transfer.Transfer, error) {
	op := newOperation(journal.KindPaymentVerification, record.ReceiverID, record.SenderID, record.Amount, correlationID)
	op.id = record.ID
	o.loggerFor(op).Warn("Resuming pending deposit claim", "reference", *record.PaymentReference)

	err := o.executeTx(ctx, op, func(tx pgx.Tx) []saga.Step {
		return []saga.Step{
			completeDepositStep(o.transfers.WithTx(tx), record),
			o.depositCreditStep(tx, record),
		}
	})
	if errors.Is(err, transfer.ErrTransferNotFound{ID: record.ID}) {
		return record, transfer.ErrDuplicatePayment{Reference: *record.PaymentReference}
	}
	if err != nil {
		return nil, err
	}
	record.Status = transfer.StatusCompleted

	o.notifyFunded(ctx, record, correlationID)
	return record, nil
}

func (o *Orchestrator) depositCreditStep(tx pgx.Tx, record *transfer.Transfer) saga.Step {
	ledgerTx := o.ledger.WithTx(tx)
	return saga.Step{
		Name: "credit_user",
		Action: func(ctx context.Context) error {
			result, err := ledgerTx.Credit(ctx, record.ReceiverID, record.Amount)
			return mutationErr(record.ReceiverID, record.Amount, result, err)
		},
	}
}

func completeDepositStep(transfers transfer.Repository, record *transfer.Transfer) saga.Step {
	return saga.Step{
		Name: "complete_transfer",
		Action: func(ctx context.Context) error {
			return transfers.UpdateStatus(ctx, record.ID, transfer.StatusPending, transfer.StatusCompleted)
		},
	}
}

func (o *Orchestrator) notifyFunded(ctx context.Context, record *transfer.Transfer, correlationID string) {
	o.notify(ctx, correlationID,
		notification.New(record.ID, record.ReceiverID, notification.KindWalletFunded, "Wallet funded",
			fmt.Sprintf("Your wallet was funded with %s BU", record.Amount.StringFixed(wallet.Precision)), record.Amount))
}
