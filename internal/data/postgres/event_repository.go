package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bu-wallet-ledger/internal/domain/event"
	"github.com/bu-wallet-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EventRepository reads events and maintains their sales projection
type EventRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewEventRepository(logger *slog.Logger, db *persistence.PostgresDB) *EventRepository {
	return &EventRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*event.Event, error) {
	query := `
		SELECT id, owner_id, title, ticket_price_bu, settle_to_platform, tickets_sold, total_bu_received
		FROM events
		WHERE id = $1
	`

	var e event.Event
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&e.ID,
		&e.OwnerID,
		&e.Title,
		&e.TicketPriceBU,
		&e.SettleToPlatform,
		&e.TicketsSold,
		&e.TotalBUReceived,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, event.ErrEventNotFound{ID: id}
		}
		r.logger.Error("Failed to get event", "event_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return &e, nil
}

// RefreshTotals recomputes tickets_sold and total_bu_received from completed
// transfers, so repeated or concurrent refreshes converge on the same values.
func (r *EventRepository) RefreshTotals(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE events e
		SET tickets_sold = COALESCE((
				SELECT SUM(t.quantity)
				FROM tickets t
				JOIN transfers tr ON tr.id = t.transfer_id
				WHERE t.event_id = e.id AND tr.status = 'completed'
			), 0),
			total_bu_received = COALESCE((
				SELECT SUM(tr.amount)
				FROM transfers tr
				WHERE tr.event_id = e.id
				  AND tr.status = 'completed'
				  AND tr.type IN ('ticket', 'gateway_qr')
			), 0)
		WHERE e.id = $1
	`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to refresh event totals", "event_id", id.String(), "error", err)
		return fmt.Errorf("failed to refresh event totals: %w", err)
	}

	if result.RowsAffected() == 0 {
		return event.ErrEventNotFound{ID: id}
	}
	return nil
}
