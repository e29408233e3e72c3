package postgres

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bu-wallet-ledger/internal/domain/wallet"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWalletRepo(t *testing.T) (*WalletRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &WalletRepository{querier: mock, logger: newTestLogger(), proceduresMissing: &atomic.Bool{}}, mock
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nullDec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

var procedureColumns = []string{"success", "new_balance", "balance_before", "error_message"}

func TestWalletRepository_Get(t *testing.T) {
	ctx := context.Background()
	repo, mock := newWalletRepo(t)
	query := quoted("FROM wallets")

	t.Run("Found", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(query).WithArgs("user-1").
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "balance", "naira_balance", "created_at", "updated_at"}).
				AddRow("user-1", dec("100.00"), dec("100.00"), now, now))

		w, err := repo.Get(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "user-1", w.UserID)
		assert.True(t, w.Balance.Equal(dec("100")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("ghost").WillReturnError(pgx.ErrNoRows)

		_, err := repo.Get(ctx, "ghost")
		assert.ErrorIs(t, err, wallet.ErrWalletNotFound{UserID: "ghost"})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWalletRepository_DebitProcedure(t *testing.T) {
	ctx := context.Background()
	amount := dec("31.00")
	query := quoted("FROM debit_wallet($1, $2)")

	t.Run("Success", func(t *testing.T) {
		repo, mock := newWalletRepo(t)
		mock.ExpectQuery(query).WithArgs("buyer", amount).
			WillReturnRows(pgxmock.NewRows(procedureColumns).AddRow(true, nullDec("69.00"), nullDec("100.00"), nil))

		result, err := repo.Debit(ctx, "buyer", amount)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "69.00", result.NewBalance.StringFixed(2))
		assert.Equal(t, "100.00", result.BalanceBefore.StringFixed(2))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InsufficientBalance", func(t *testing.T) {
		repo, mock := newWalletRepo(t)
		mock.ExpectQuery(query).WithArgs("buyer", amount).
			WillReturnRows(pgxmock.NewRows(procedureColumns).AddRow(false, nullDec("20.00"), nullDec("20.00"), strPtr("Insufficient balance")))

		result, err := repo.Debit(ctx, "buyer", amount)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, wallet.FailureInsufficientBalance, result.Failure)
		assert.EqualError(t, result.Err("buyer", amount), "insufficient balance: you have 20.00 BU, need 31.00 BU")
	})

	t.Run("WalletNotFound", func(t *testing.T) {
		repo, mock := newWalletRepo(t)
		mock.ExpectQuery(query).WithArgs("ghost", amount).
			WillReturnRows(pgxmock.NewRows(procedureColumns).AddRow(false, nil, nil, strPtr("Wallet not found")))

		result, err := repo.Debit(ctx, "ghost", amount)
		require.NoError(t, err)
		assert.Equal(t, wallet.FailureWalletNotFound, result.Failure)
	})

	t.Run("PersistenceError", func(t *testing.T) {
		repo, mock := newWalletRepo(t)
		dbErr := errors.New("connection reset")
		mock.ExpectQuery(query).WithArgs("buyer", amount).WillReturnError(dbErr)

		result, err := repo.Debit(ctx, "buyer", amount)
		assert.ErrorIs(t, err, dbErr)
		assert.False(t, result.Success)
		assert.Equal(t, wallet.FailurePersistence, result.Failure)
		assert.Equal(t, genericMutationFailure, result.ErrorMessage)
	})

	t.Run("UnknownProcedureMessage", func(t *testing.T) {
		repo, mock := newWalletRepo(t)
		mock.ExpectQuery(query).WithArgs("buyer", amount).
			WillReturnRows(pgxmock.NewRows(procedureColumns).AddRow(false, nil, nil, strPtr("Invalid amount")))

		result, err := repo.Debit(ctx, "buyer", amount)
		assert.ErrorAs(t, err, &wallet.ErrMutationFailed{})
		assert.Equal(t, wallet.FailurePersistence, result.Failure)
	})
}

func TestWalletRepository_DebitFallback(t *testing.T) {
	ctx := context.Background()
	amount := dec("50.00")
	missing := &pgconn.PgError{Code: "42883", Message: "function debit_wallet(text, numeric) does not exist"}
	fallback := quoted("WHERE user_id = $1 AND balance >= $2::numeric")

	t.Run("SwitchesOnUndefinedFunction", func(t *testing.T) {
		repo, mock := newWalletRepo(t)
		mock.ExpectQuery(quoted("FROM debit_wallet($1, $2)")).WithArgs("user-1", amount).WillReturnError(missing)
		mock.ExpectQuery(fallback).WithArgs("user-1", amount).
			WillReturnRows(pgxmock.NewRows([]string{"before", "after"}).AddRow(nullDec("120.00"), nullDec("70.00")))

		result, err := repo.Debit(ctx, "user-1", amount)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "70.00", result.NewBalance.StringFixed(2))
		assert.Equal(t, "120.00", result.BalanceBefore.StringFixed(2))
		assert.True(t, repo.proceduresMissing.Load())

		// later calls skip the procedure entirely
		mock.ExpectQuery(fallback).WithArgs("user-1", amount).
			WillReturnRows(pgxmock.NewRows([]string{"before", "after"}).AddRow(nullDec("70.00"), nullDec("20.00")))
		_, err = repo.Debit(ctx, "user-1", amount)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InsufficientBalance", func(t *testing.T) {
		repo, mock := newWalletRepo(t)
		repo.proceduresMissing.Store(true)
		mock.ExpectQuery(fallback).WithArgs("user-1", amount).
			WillReturnRows(pgxmock.NewRows([]string{"before", "after"}).AddRow(nullDec("10.00"), nil))

		result, err := repo.Debit(ctx, "user-1", amount)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, wallet.FailureInsufficientBalance, result.Failure)
		assert.Equal(t, "10.00", result.BalanceBefore.StringFixed(2))
	})

	t.Run("WalletNotFound", func(t *testing.T) {
		repo, mock := newWalletRepo(t)
		repo.proceduresMissing.Store(true)
		mock.ExpectQuery(fallback).WithArgs("ghost", amount).
			WillReturnRows(pgxmock.NewRows([]string{"before", "after"}).AddRow(nil, nil))

		result, err := repo.Debit(ctx, "ghost", amount)
		require.NoError(t, err)
		assert.Equal(t, wallet.FailureWalletNotFound, result.Failure)
	})

	t.Run("InsideTransactionReportsFailure", func(t *testing.T) {
		repo, mock := newWalletRepo(t)
		txRepo := &WalletRepository{querier: mock, logger: repo.logger, inTx: true, proceduresMissing: repo.proceduresMissing}
		mock.ExpectQuery(quoted("FROM debit_wallet($1, $2)")).WithArgs("user-1", amount).WillReturnError(missing)

		result, err := txRepo.Debit(ctx, "user-1", amount)
		assert.Error(t, err)
		assert.False(t, result.Success)
		assert.True(t, repo.proceduresMissing.Load())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWalletRepository_Credit(t *testing.T) {
	ctx := context.Background()
	amount := dec("31.00")

	t.Run("Procedure", func(t *testing.T) {
		repo, mock := newWalletRepo(t)
		mock.ExpectQuery(quoted("FROM credit_wallet($1, $2)")).WithArgs("owner", amount).
			WillReturnRows(pgxmock.NewRows(procedureColumns).AddRow(true, nullDec("31.00"), nullDec("0.00"), nil))

		result, err := repo.Credit(ctx, "owner", amount)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "0.00", result.BalanceBefore.StringFixed(2))
	})

	t.Run("UpsertFallback", func(t *testing.T) {
		repo, mock := newWalletRepo(t)
		mock.ExpectQuery(quoted("FROM credit_wallet($1, $2)")).WithArgs("owner", amount).
			WillReturnError(&pgconn.PgError{Code: "42883"})
		mock.ExpectQuery(quoted("ON CONFLICT (user_id) DO UPDATE")).WithArgs("owner", amount).
			WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(dec("131.00")))

		result, err := repo.Credit(ctx, "owner", amount)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "131.00", result.NewBalance.StringFixed(2))
		assert.Equal(t, "100.00", result.BalanceBefore.StringFixed(2))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UpsertError", func(t *testing.T) {
		repo, mock := newWalletRepo(t)
		repo.proceduresMissing.Store(true)
		mock.ExpectQuery(quoted("ON CONFLICT (user_id) DO UPDATE")).WithArgs("owner", amount).
			WillReturnError(errors.New("disk full"))

		result, err := repo.Credit(ctx, "owner", amount)
		assert.Error(t, err)
		assert.Equal(t, wallet.FailurePersistence, result.Failure)
	})
}

func TestWalletRepository_DetectProcedures(t *testing.T) {
	ctx := context.Background()
	repo, mock := newWalletRepo(t)

	mock.ExpectQuery(quoted("to_regprocedure('debit_wallet(text, numeric)')")).
		WillReturnRows(pgxmock.NewRows([]string{"available"}).AddRow(false))
	require.NoError(t, repo.DetectProcedures(ctx))
	assert.True(t, repo.proceduresMissing.Load())

	mock.ExpectQuery(quoted("to_regprocedure('debit_wallet(text, numeric)')")).
		WillReturnRows(pgxmock.NewRows([]string{"available"}).AddRow(true))
	require.NoError(t, repo.DetectProcedures(ctx))
	assert.False(t, repo.proceduresMissing.Load())
}
