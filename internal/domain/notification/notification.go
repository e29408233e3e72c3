package notification

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind identifies the template the notification sink should render
type Kind string

const (
	KindTransferSent      Kind = "TRANSFER_SENT"
	KindTransferReceived  Kind = "TRANSFER_RECEIVED"
	KindTicketPurchased   Kind = "TICKET_PURCHASED"
	KindTicketSold        Kind = "TICKET_SOLD"
	KindWithdrawalUpdated Kind = "WITHDRAWAL_UPDATED"
	KindWalletFunded      Kind = "WALLET_FUNDED"
)

// Notification is a message for one user about a completed ledger operation
type Notification struct {
	OperationID   uuid.UUID       `json:"operation_id"`
	UserID        string          `json:"user_id"`
	Kind          Kind            `json:"kind"`
	Title         string          `json:"title"`
	Body          string          `json:"body"`
	Amount        decimal.Decimal `json:"amount"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func New(operationID uuid.UUID, userID string, kind Kind, title, body string, amount decimal.Decimal) *Notification {
	return &Notification{
		OperationID: operationID,
		UserID:      userID,
		Kind:        kind,
		Title:       title,
		Body:        body,
		Amount:      amount,
		CreatedAt:   time.Now().UTC(),
	}
}
