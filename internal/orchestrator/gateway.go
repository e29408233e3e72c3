package orchestrator

import (
	"context"
	"fmt"

	"github.com/bu-wallet-ledger/internal/domain/journal"
	"github.com/bu-wallet-ledger/internal/domain/notification"
	"github.com/bu-wallet-ledger/internal/domain/transfer"
	"github.com/bu-wallet-ledger/internal/domain/wallet"
	"github.com/bu-wallet-ledger/internal/saga"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GatewayQRRequest pays a celebrant through a scanned gateway QR code
type GatewayQRRequest struct {
	SenderID      string
	CelebrantID   string
	GatewayID     string
	EventID       *uuid.UUID
	Amount        decimal.Decimal
	PIN           string
	Message       string
	CorrelationID string
}

// GatewayQRTransfer debits the sender, credits the celebrant, records the
// transfer and refreshes the event totals. A failure in any step reverses
// all earlier steps.
func (o *Orchestrator) GatewayQRTransfer(ctx context.Context, req GatewayQRRequest) (*transfer.Transfer, error) {
	if req.CelebrantID == "" {
		return nil, ErrMissingRecipient
	}
	if req.SenderID == req.CelebrantID {
		return nil, ErrSelfTransfer
	}

	amount, err := wallet.NormalizeAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	if req.EventID != nil {
		if _, err := o.events.GetByID(ctx, *req.EventID); err != nil {
			return nil, err
		}
	}

	if err := o.verifyPIN(ctx, req.SenderID, req.PIN); err != nil {
		return nil, err
	}

	record, err := transfer.New(req.SenderID, req.CelebrantID, amount, transfer.TypeGatewayQR, transfer.StatusCompleted, req.Message)
	if err != nil {
		return nil, err
	}
	record.EventID = req.EventID
	if req.GatewayID != "" {
		gatewayID := req.GatewayID
		record.GatewayID = &gatewayID
	}

	op := newOperation(journal.KindGatewayQR, req.SenderID, req.CelebrantID, amount, req.CorrelationID)
	op.id = record.ID

	steps := []saga.Step{
		o.debitStep("debit_sender", req.SenderID, amount),
		o.creditStep("credit_celebrant", req.CelebrantID, amount),
		o.recordTransferStep(record),
	}
	if req.EventID != nil {
		eventID := *req.EventID
		steps = append(steps, saga.Step{
			Name:   "refresh_event_totals",
			Action: func(ctx context.Context) error { return o.events.RefreshTotals(ctx, eventID) },
		})
	}

	if err := o.execute(ctx, op, steps...); err != nil {
		return nil, err
	}

	formatted := amount.StringFixed(wallet.Precision)
	o.notify(ctx, req.CorrelationID,
		notification.New(record.ID, req.SenderID, notification.KindTransferSent,
			"Gift sent", fmt.Sprintf("You sent %s BU", formatted), amount),
		notification.New(record.ID, req.CelebrantID, notification.KindTransferReceived,
			"Gift received", fmt.Sprintf("You received %s BU", formatted), amount),
	)

	return record, nil
}
