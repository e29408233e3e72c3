package ticket

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ticket is proof of a purchase, tied 1:1 to the paying transfer
type Ticket struct {
	ID           uuid.UUID       `json:"id"`
	EventID      uuid.UUID       `json:"event_id"`
	BuyerID      string          `json:"buyer_id"`
	Quantity     int             `json:"quantity"`
	TotalPriceBU decimal.Decimal `json:"total_price_bu"`
	TransferID   uuid.UUID       `json:"transfer_id"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Repository manages ticket records
type Repository interface {
	Create(ctx context.Context, t *Ticket) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ErrTicketNotFound indicates a missing ticket
type ErrTicketNotFound struct {
	ID uuid.UUID
}

func (e ErrTicketNotFound) Error() string {
	return "ticket not found: " + e.ID.String()
}
