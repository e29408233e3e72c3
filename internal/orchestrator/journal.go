package orchestrator

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bu-wallet-ledger/internal/domain/journal"
)

// JournalRecorder writes orchestration outcomes to the journal store
type JournalRecorder struct {
	repo   journal.Repository
	logger *slog.Logger
}

func NewJournalRecorder(repo journal.Repository, logger *slog.Logger) *JournalRecorder {
	return &JournalRecorder{repo: repo, logger: logger}
}

// Record persists entry. A failed write is logged; the ledger has already moved.
func (j *JournalRecorder) Record(ctx context.Context, entry *journal.Entry) {
	err := j.repo.Create(ctx, entry)
	switch {
	case err == nil:
	case errors.Is(err, journal.ErrDuplicateEntry{}):
		j.logger.Debug("Journal entry already recorded", "operation_id", entry.OperationID.String())
	default:
		j.logger.Error("Failed to record journal entry",
			"operation_id", entry.OperationID.String(),
			"kind", string(entry.Kind),
			"status", string(entry.Status),
			"error", err,
		)
	}
}
