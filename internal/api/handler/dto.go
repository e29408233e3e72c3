package handler

import (
	"time"

	"github.com/bu-wallet-ledger/internal/domain/journal"
	"github.com/bu-wallet-ledger/internal/domain/ticket"
	"github.com/bu-wallet-ledger/internal/domain/transfer"
	"github.com/bu-wallet-ledger/internal/domain/wallet"
	"github.com/bu-wallet-ledger/internal/domain/withdrawal"
	"github.com/shopspring/decimal"
)

// Amounts are accepted as JSON numbers or strings and returned as strings
// with two decimals.

type TransferRequest struct {
	ReceiverID string          `json:"receiver_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount"`
	PIN        string          `json:"pin" binding:"required"`
	Type       string          `json:"type" binding:"omitempty,oneof=transfer tip"`
	Message    string          `json:"message" binding:"max=280"`
}

type TicketPurchaseRequest struct {
	EventID  string `json:"event_id" binding:"required,uuid"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
	PIN      string `json:"pin" binding:"required"`
}

type GatewayTransferRequest struct {
	CelebrantID string          `json:"celebrant_id" binding:"required"`
	GatewayID   string          `json:"gateway_id"`
	EventID     string          `json:"event_id" binding:"omitempty,uuid"`
	Amount      decimal.Decimal `json:"amount"`
	PIN         string          `json:"pin" binding:"required"`
	Message     string          `json:"message" binding:"max=280"`
}

type WithdrawalRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Type   string          `json:"type" binding:"required,oneof=bank wallet"`
	PIN    string          `json:"pin" binding:"required"`
}

type TransitionRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page" binding:"omitempty,min=1,max=100"`
}

type WalletResponse struct {
	UserID       string `json:"user_id"`
	Balance      string `json:"balance"`
	NairaBalance string `json:"naira_balance"`
	UpdatedAt    string `json:"updated_at"`
}

type TransferResponse struct {
	ID         string  `json:"id"`
	SenderID   string  `json:"sender_id"`
	ReceiverID string  `json:"receiver_id"`
	Amount     string  `json:"amount"`
	Type       string  `json:"type"`
	Status     string  `json:"status"`
	Message    string  `json:"message,omitempty"`
	EventID    *string `json:"event_id,omitempty"`
	GatewayID  *string `json:"gateway_id,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

type TicketResponse struct {
	ID           string `json:"id"`
	EventID      string `json:"event_id"`
	Quantity     int    `json:"quantity"`
	TotalPriceBU string `json:"total_price_bu"`
	TransferID   string `json:"transfer_id"`
	CreatedAt    string `json:"created_at"`
}

type TicketPurchaseResponse struct {
	Transfer TransferResponse `json:"transfer"`
	Ticket   TicketResponse   `json:"ticket"`
}

type WithdrawalResponse struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	BUAmount      string  `json:"bu_amount"`
	NairaAmount   string  `json:"naira_amount"`
	Type          string  `json:"type"`
	Status        string  `json:"status"`
	FundsLocked   bool    `json:"funds_locked"`
	FailureReason string  `json:"failure_reason,omitempty"`
	CreatedAt     string  `json:"created_at"`
	CompletedAt   *string `json:"completed_at,omitempty"`
}

type JournalEntryResponse struct {
	OperationID    string               `json:"operation_id"`
	Kind           string               `json:"kind"`
	InitiatorID    string               `json:"initiator_id"`
	CounterpartyID string               `json:"counterparty_id,omitempty"`
	Amount         string               `json:"amount"`
	Status         string               `json:"status"`
	FailureReason  string               `json:"failure_reason,omitempty"`
	Steps          []journal.StepRecord `json:"steps,omitempty"`
	CreatedAt      string               `json:"created_at"`
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(wallet.Precision)
}

func mapWalletToResponse(w *wallet.Wallet) WalletResponse {
	return WalletResponse{
		UserID:       w.UserID,
		Balance:      formatAmount(w.Balance),
		NairaBalance: formatAmount(w.NairaBalance),
		UpdatedAt:    w.UpdatedAt.Format(time.RFC3339),
	}
}

func mapTransferToResponse(t *transfer.Transfer) TransferResponse {
	resp := TransferResponse{
		ID:         t.ID.String(),
		SenderID:   t.SenderID,
		ReceiverID: t.ReceiverID,
		Amount:     formatAmount(t.Amount),
		Type:       string(t.Type),
		Status:     string(t.Status),
		Message:    t.Message,
		GatewayID:  t.GatewayID,
		CreatedAt:  t.CreatedAt.Format(time.RFC3339),
	}
	if t.EventID != nil {
		eventID := t.EventID.String()
		resp.EventID = &eventID
	}
	return resp
}

func mapTicketToResponse(t *ticket.Ticket) TicketResponse {
	return TicketResponse{
		ID:           t.ID.String(),
		EventID:      t.EventID.String(),
		Quantity:     t.Quantity,
		TotalPriceBU: formatAmount(t.TotalPriceBU),
		TransferID:   t.TransferID.String(),
		CreatedAt:    t.CreatedAt.Format(time.RFC3339),
	}
}

func mapWithdrawalToResponse(w *withdrawal.Withdrawal) WithdrawalResponse {
	resp := WithdrawalResponse{
		ID:            w.ID.String(),
		UserID:        w.UserID,
		BUAmount:      formatAmount(w.BUAmount),
		NairaAmount:   formatAmount(w.NairaAmount),
		Type:          string(w.Type),
		Status:        string(w.Status),
		FundsLocked:   w.FundsLocked,
		FailureReason: w.FailureReason,
		CreatedAt:     w.CreatedAt.Format(time.RFC3339),
	}
	if w.CompletedAt != nil {
		completedAt := w.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &completedAt
	}
	return resp
}

func mapJournalEntryToResponse(e *journal.Entry) JournalEntryResponse {
	return JournalEntryResponse{
		OperationID:    e.OperationID.String(),
		Kind:           string(e.Kind),
		InitiatorID:    e.InitiatorID,
		CounterpartyID: e.CounterpartyID,
		Amount:         formatAmount(e.Amount),
		Status:         string(e.Status),
		FailureReason:  e.FailureReason,
		Steps:          e.Steps,
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
	}
}
