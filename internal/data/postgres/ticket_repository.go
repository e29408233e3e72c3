package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bu-wallet-ledger/internal/domain/ticket"
	"github.com/bu-wallet-ledger/internal/platform/persistence"
	"github.com/google/uuid"
)

// TicketRepository implements the ticket.Repository interface for PostgreSQL
type TicketRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewTicketRepository(logger *slog.Logger, db *persistence.PostgresDB) *TicketRepository {
	return &TicketRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *TicketRepository) Create(ctx context.Context, t *ticket.Ticket) error {
	query := `
		INSERT INTO tickets (id, event_id, buyer_id, quantity, total_price_bu, transfer_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.querier.Exec(ctx, query,
		t.ID,
		t.EventID,
		t.BuyerID,
		t.Quantity,
		t.TotalPriceBU,
		t.TransferID,
		t.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create ticket",
			"ticket_id", t.ID.String(),
			"event_id", t.EventID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil
}

func (r *TicketRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.querier.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete ticket", "ticket_id", id.String(), "error", err)
		return fmt.Errorf("failed to delete ticket: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ticket.ErrTicketNotFound{ID: id}
	}
	return nil
}
