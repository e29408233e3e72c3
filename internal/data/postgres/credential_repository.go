package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bu-wallet-ledger/internal/identity"
	"github.com/bu-wallet-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// CredentialRepository reads transaction PIN hashes from user_credentials
type CredentialRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewCredentialRepository(logger *slog.Logger, db *persistence.PostgresDB) *CredentialRepository {
	return &CredentialRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *CredentialRepository) PINHash(ctx context.Context, userID string) (string, error) {
	var hash string
	err := r.querier.QueryRow(ctx,
		`SELECT transaction_pin_hash FROM user_credentials WHERE user_id = $1`,
		userID,
	).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", identity.ErrPINNotSet
		}
		r.logger.Error("Failed to get transaction PIN hash", "user_id", userID, "error", err)
		return "", fmt.Errorf("failed to get transaction PIN hash: %w", err)
	}
	return hash, nil
}
