package wallet

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAmount(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"WholeNumber", "15", "15.00", false},
		{"RoundsHalfUp", "10.005", "10.01", false},
		{"RoundsDown", "10.004", "10.00", false},
		{"TooSmallAfterRounding", "0.004", "", true},
		{"Zero", "0", "", true},
		{"Negative", "-5", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeAmount(decimal.RequireFromString(tc.input))
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got.StringFixed(Precision))
		})
	}
}

func TestAmountFromFloat(t *testing.T) {
	t.Run("RejectsNaN", func(t *testing.T) {
		_, err := AmountFromFloat(math.NaN())
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("RejectsInf", func(t *testing.T) {
		_, err := AmountFromFloat(math.Inf(1))
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("Valid", func(t *testing.T) {
		got, err := AmountFromFloat(15.5)
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.RequireFromString("15.50")))
	})
}

func TestMultiplyAmount(t *testing.T) {
	total := MultiplyAmount(decimal.RequireFromString("15.50"), 2)
	assert.Equal(t, "31.00", total.StringFixed(Precision))
}

func TestMutationResult_Err(t *testing.T) {
	amount := decimal.RequireFromString("50")

	t.Run("SuccessIsNil", func(t *testing.T) {
		assert.NoError(t, MutationResult{Success: true}.Err("u1", amount))
	})

	t.Run("InsufficientBalance", func(t *testing.T) {
		res := MutationResult{Failure: FailureInsufficientBalance, BalanceBefore: decimal.RequireFromString("20")}
		err := res.Err("u1", amount)
		var insufficient ErrInsufficientFunds
		require.True(t, errors.As(err, &insufficient))
		assert.Equal(t, "insufficient balance: you have 20.00 BU, need 50.00 BU", err.Error())
	})

	t.Run("WalletNotFound", func(t *testing.T) {
		err := MutationResult{Failure: FailureWalletNotFound}.Err("u1", amount)
		assert.ErrorIs(t, err, ErrWalletNotFound{})
		assert.ErrorIs(t, err, ErrWalletNotFound{UserID: "u1"})
		assert.NotErrorIs(t, err, ErrWalletNotFound{UserID: "u2"})
	})

	t.Run("Persistence", func(t *testing.T) {
		err := MutationResult{Failure: FailurePersistence, ErrorMessage: "boom"}.Err("u1", amount)
		var failed ErrMutationFailed
		assert.True(t, errors.As(err, &failed))
	})
}
