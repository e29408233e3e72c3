package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bu-wallet-ledger/internal/domain/outbox"
	"github.com/bu-wallet-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOutboxRepo(t *testing.T) (*OutboxRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &OutboxRepository{querier: mock, logger: newTestLogger()}, mock
}

func TestOutboxRepository_Enqueue(t *testing.T) {
	ctx := context.Background()
	repo, mock := newOutboxRepo(t)

	message := &outbox.Message{
		OperationID: uuid.New(),
		UserID:      "user-1",
		Payload:     json.RawMessage(`{"kind":"TRANSFER_RECEIVED"}`),
		Status:      shared.OutboxStatusPending,
		CreatedAt:   time.Now(),
	}

	mock.ExpectQuery(quoted("INSERT INTO notification_outbox")).
		WithArgs(message.OperationID, "user-1", message.Payload, shared.OutboxStatusPending, message.CreatedAt).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	require.NoError(t, repo.Enqueue(ctx, message))
	assert.Equal(t, int64(42), message.ID)

	mock.ExpectQuery(quoted("INSERT INTO notification_outbox")).WithArgs(anyArgs(5)...).WillReturnError(errors.New("boom"))
	err := repo.Enqueue(ctx, &outbox.Message{UserID: "user-2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enqueue notification for user-2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_ClaimBatch(t *testing.T) {
	ctx := context.Background()
	columns := []string{"id", "operation_id", "user_id", "payload", "status", "attempts", "created_at", "last_attempt_at"}

	t.Run("LeasesOldestPending", func(t *testing.T) {
		repo, mock := newOutboxRepo(t)
		opID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(quoted("FOR UPDATE SKIP LOCKED")).
			WithArgs(10, float64(30)).
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(int64(1), opID, "user-1", json.RawMessage(`{}`), shared.OutboxStatusPending, 0, now, &now).
				AddRow(int64(2), opID, "user-2", json.RawMessage(`{}`), shared.OutboxStatusPending, 2, now, &now))

		messages, err := repo.ClaimBatch(ctx, 10, 30*time.Second)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, "user-1", messages[0].UserID)
		assert.Equal(t, 2, messages[1].Attempts)
		assert.NotNil(t, messages[1].LastAttemptAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty", func(t *testing.T) {
		repo, mock := newOutboxRepo(t)
		mock.ExpectQuery(quoted("FOR UPDATE SKIP LOCKED")).
			WithArgs(5, float64(60)).
			WillReturnRows(pgxmock.NewRows(columns))

		messages, err := repo.ClaimBatch(ctx, 5, time.Minute)
		require.NoError(t, err)
		assert.Empty(t, messages)
	})

	t.Run("QueryError", func(t *testing.T) {
		repo, mock := newOutboxRepo(t)
		mock.ExpectQuery(quoted("FOR UPDATE SKIP LOCKED")).WithArgs(anyArgs(2)...).WillReturnError(errors.New("boom"))

		_, err := repo.ClaimBatch(ctx, 5, time.Minute)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "claim outbox batch")
	})
}

func TestOutboxRepository_Settle(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		status shared.OutboxStatus
		call   func(r *OutboxRepository) error
	}{
		{
			name:   "MarkPublished",
			status: shared.OutboxStatusProcessed,
			call:   func(r *OutboxRepository) error { return r.MarkPublished(ctx, 7) },
		},
		{
			name:   "MarkUndeliverable",
			status: shared.OutboxStatusFailedToPublish,
			call:   func(r *OutboxRepository) error { return r.MarkUndeliverable(ctx, 7) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newOutboxRepo(t)

			mock.ExpectExec(quoted("SET status = $2")).WithArgs(int64(7), tt.status).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			assert.NoError(t, tt.call(repo))

			mock.ExpectExec(quoted("SET status = $2")).WithArgs(int64(7), tt.status).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			assert.ErrorAs(t, tt.call(repo), &outbox.ErrMessageNotFound{})

			mock.ExpectExec(quoted("SET status = $2")).WithArgs(int64(7), tt.status).WillReturnError(errors.New("boom"))
			assert.Error(t, tt.call(repo))

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestOutboxRepository_RecordFailure(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		setup      func(mock pgxmock.PgxPoolIface)
		wantStatus shared.OutboxStatus
		wantErr    string
		notFound   bool
	}{
		{
			name: "StillPending",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(quoted("SET attempts = attempts + 1")).WithArgs(int64(3), 5).
					WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(shared.OutboxStatusPending))
			},
			wantStatus: shared.OutboxStatusPending,
		},
		{
			name: "Exhausted",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(quoted("SET attempts = attempts + 1")).WithArgs(int64(3), 5).
					WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(shared.OutboxStatusFailedToPublish))
			},
			wantStatus: shared.OutboxStatusFailedToPublish,
		},
		{
			name: "Missing",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(quoted("SET attempts = attempts + 1")).WithArgs(int64(3), 5).WillReturnError(pgx.ErrNoRows)
			},
			notFound: true,
		},
		{
			name: "DatabaseError",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(quoted("SET attempts = attempts + 1")).WithArgs(int64(3), 5).WillReturnError(errors.New("boom"))
			},
			wantErr: "record failed publish for outbox message 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newOutboxRepo(t)
			tt.setup(mock)

			status, err := repo.RecordFailure(ctx, 3, 5)
			switch {
			case tt.notFound:
				assert.ErrorAs(t, err, &outbox.ErrMessageNotFound{})
			case tt.wantErr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantStatus, status)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
