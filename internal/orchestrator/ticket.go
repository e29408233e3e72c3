package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/bu-wallet-ledger/internal/domain/journal"
	"github.com/bu-wallet-ledger/internal/domain/notification"
	"github.com/bu-wallet-ledger/internal/domain/ticket"
	"github.com/bu-wallet-ledger/internal/domain/transfer"
	"github.com/bu-wallet-ledger/internal/domain/wallet"
	"github.com/bu-wallet-ledger/internal/saga"
	"github.com/google/uuid"
)

// TicketPurchaseRequest buys quantity tickets for an event
type TicketPurchaseRequest struct {
	BuyerID       string
	EventID       uuid.UUID
	Quantity      int
	PIN           string
	CorrelationID string
}

// TicketPurchase is the transfer and ticket created by a purchase
type TicketPurchase struct {
	Transfer *transfer.Transfer `json:"transfer"`
	Ticket   *ticket.Ticket     `json:"ticket"`
}

// PurchaseTicket charges the buyer price × quantity, pays the event's
// recipient and records the transfer and ticket.
func (o *Orchestrator) PurchaseTicket(ctx context.Context, req TicketPurchaseRequest) (*TicketPurchase, error) {
	if req.Quantity < 1 || (o.cfg.MaxTicketsPerPurchase > 0 && req.Quantity > o.cfg.MaxTicketsPerPurchase) {
		return nil, ErrInvalidQuantity
	}

	ev, err := o.events.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, err
	}

	total, err := wallet.NormalizeAmount(wallet.MultiplyAmount(ev.TicketPriceBU, req.Quantity))
	if err != nil {
		return nil, err
	}
	recipient := ev.PayoutRecipient(o.cfg.PlatformUserID)

	if err := o.verifyPIN(ctx, req.BuyerID, req.PIN); err != nil {
		return nil, err
	}

	record, err := transfer.New(req.BuyerID, recipient, total, transfer.TypeTicket, transfer.StatusCompleted,
		fmt.Sprintf("%d ticket(s) for %s", req.Quantity, ev.Title))
	if err != nil {
		return nil, err
	}
	record.EventID = &ev.ID

	tk := &ticket.Ticket{
		ID:           uuid.New(),
		EventID:      ev.ID,
		BuyerID:      req.BuyerID,
		Quantity:     req.Quantity,
		TotalPriceBU: total,
		TransferID:   record.ID,
		CreatedAt:    time.Now().UTC(),
	}

	op := newOperation(journal.KindTicketPurchase, req.BuyerID, recipient, total, req.CorrelationID)
	op.id = record.ID

	err = o.execute(ctx, op,
		o.debitStep("debit_buyer", req.BuyerID, total),
		o.creditStep("credit_recipient", recipient, total),
		o.recordTransferStep(record),
		saga.Step{
			Name:       "record_ticket",
			Action:     func(ctx context.Context) error { return o.tickets.Create(ctx, tk) },
			Compensate: func(ctx context.Context) error { return o.tickets.Delete(ctx, tk.ID) },
		},
	)
	if err != nil {
		return nil, err
	}

	// the event counters are a projection; a failed refresh is corrected by the next one
	if err := o.events.RefreshTotals(context.WithoutCancel(ctx), ev.ID); err != nil {
		o.loggerFor(op).Warn("Failed to refresh event totals", "event_id", ev.ID.String(), "error", err)
	}

	formatted := total.StringFixed(wallet.Precision)
	o.notify(ctx, req.CorrelationID,
		notification.New(record.ID, req.BuyerID, notification.KindTicketPurchased, "Ticket purchased",
			fmt.Sprintf("You bought %d ticket(s) for %s at %s BU", req.Quantity, ev.Title, formatted), total),
		notification.New(record.ID, recipient, notification.KindTicketSold, "Ticket sold",
			fmt.Sprintf("%d ticket(s) for %s sold for %s BU", req.Quantity, ev.Title, formatted), total),
	)

	return &TicketPurchase{Transfer: record, Ticket: tk}, nil
}
