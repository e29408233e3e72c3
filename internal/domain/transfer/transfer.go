package transfer

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type classifies the reason value moved between two wallets
type Type string

const (
	TypeTransfer   Type = "transfer"
	TypeTip        Type = "tip"
	TypeGatewayQR  Type = "gateway_qr"
	TypeManualSale Type = "manual_sale"
	TypeTicket     Type = "ticket"
	TypeDeposit    Type = "deposit"
)

// Status is the only mutable attribute of a transfer
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var ErrInvalidTransfer = errors.New("transfer amount must be positive and parties must be set")

// Transfer is an immutable record of value movement
type Transfer struct {
	ID               uuid.UUID       `json:"id"`
	SenderID         string          `json:"sender_id"`
	ReceiverID       string          `json:"receiver_id"`
	Amount           decimal.Decimal `json:"amount"`
	Type             Type            `json:"type"`
	Status           Status          `json:"status"`
	Message          string          `json:"message,omitempty"`
	EventID          *uuid.UUID      `json:"event_id,omitempty"`
	GatewayID        *string         `json:"gateway_id,omitempty"`
	PaymentReference *string         `json:"payment_reference,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// New builds a transfer with a fresh id
func New(senderID, receiverID string, amount decimal.Decimal, kind Type, status Status, message string) (*Transfer, error) {
	if senderID == "" || receiverID == "" || !amount.IsPositive() {
		return nil, ErrInvalidTransfer
	}
	return &Transfer{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     amount,
		Type:       kind,
		Status:     status,
		Message:    message,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
