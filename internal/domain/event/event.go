package event

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event is the read model the ledger needs for ticket sales and gateway transfers.
// TicketsSold and TotalBUReceived are a projection over completed transfers.
type Event struct {
	ID               uuid.UUID       `json:"id"`
	OwnerID          *string         `json:"owner_id,omitempty"`
	Title            string          `json:"title"`
	TicketPriceBU    decimal.Decimal `json:"ticket_price_bu"`
	SettleToPlatform bool            `json:"settle_to_platform"`
	TicketsSold      int64           `json:"tickets_sold"`
	TotalBUReceived  decimal.Decimal `json:"total_bu_received"`
}

// PayoutRecipient resolves who receives ticket money for this event
func (e *Event) PayoutRecipient(platformUserID string) string {
	if e.SettleToPlatform || e.OwnerID == nil || *e.OwnerID == "" {
		return platformUserID
	}
	return *e.OwnerID
}

// Repository reads events and recomputes their sales projection
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	RefreshTotals(ctx context.Context, id uuid.UUID) error
}

// ErrEventNotFound indicates a missing event
type ErrEventNotFound struct {
	ID uuid.UUID
}

func (e ErrEventNotFound) Error() string {
	return "event not found: " + e.ID.String()
}

func (e ErrEventNotFound) Is(target error) bool {
	t, ok := target.(ErrEventNotFound)
	if !ok {
		return false
	}
	return t.ID == uuid.Nil || t.ID == e.ID
}
