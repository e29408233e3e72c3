package orchestrator

import (
	"context"
	"fmt"

	"github.com/bu-wallet-ledger/internal/domain/journal"
	"github.com/bu-wallet-ledger/internal/domain/notification"
	"github.com/bu-wallet-ledger/internal/domain/transfer"
	"github.com/bu-wallet-ledger/internal/domain/wallet"
	"github.com/shopspring/decimal"
)

// TransferRequest moves BU from one user to another as a transfer or a tip
type TransferRequest struct {
	SenderID      string
	ReceiverID    string
	Amount        decimal.Decimal
	PIN           string
	Type          transfer.Type
	Message       string
	CorrelationID string
}

// Transfer debits the sender, credits the receiver and records the transfer
func (o *Orchestrator) Transfer(ctx context.Context, req TransferRequest) (*transfer.Transfer, error) {
	kind := req.Type
	if kind == "" {
		kind = transfer.TypeTransfer
	}
	if kind != transfer.TypeTransfer && kind != transfer.TypeTip {
		return nil, ErrInvalidTransferType
	}
	if req.ReceiverID == "" {
		return nil, ErrMissingRecipient
	}
	if req.SenderID == req.ReceiverID {
		return nil, ErrSelfTransfer
	}

	amount, err := wallet.NormalizeAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	if err := o.verifyPIN(ctx, req.SenderID, req.PIN); err != nil {
		return nil, err
	}

	record, err := transfer.New(req.SenderID, req.ReceiverID, amount, kind, transfer.StatusCompleted, req.Message)
	if err != nil {
		return nil, err
	}

	journalKind := journal.KindTransfer
	if kind == transfer.TypeTip {
		journalKind = journal.KindTip
	}
	op := newOperation(journalKind, req.SenderID, req.ReceiverID, amount, req.CorrelationID)
	op.id = record.ID

	err = o.execute(ctx, op,
		o.debitStep("debit_sender", req.SenderID, amount),
		o.creditStep("credit_receiver", req.ReceiverID, amount),
		o.recordTransferStep(record),
	)
	if err != nil {
		return nil, err
	}

	formatted := amount.StringFixed(wallet.Precision)
	o.notify(ctx, req.CorrelationID,
		notification.New(record.ID, req.SenderID, notification.KindTransferSent,
			"Transfer sent", fmt.Sprintf("You sent %s BU", formatted), amount),
		notification.New(record.ID, req.ReceiverID, notification.KindTransferReceived,
			"Transfer received", fmt.Sprintf("You received %s BU", formatted), amount),
	)

	return record, nil
}

func (o *Orchestrator) notify(ctx context.Context, correlationID string, notifications ...*notification.Notification) {
	if o.notifier == nil {
		return
	}
	for _, n := range notifications {
		n.CorrelationID = correlationID
	}
	o.notifier.Notify(context.WithoutCancel(ctx), notifications...)
}
