package wallet

import (
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Precision is the number of decimal places every amount and balance is kept at.
const Precision int32 = 2

var (
	ErrInvalidAmount = errors.New("amount must be a finite number greater than zero")
)

// Wallet holds a user's BU balance. NairaBalance mirrors Balance (1:1 peg).
type Wallet struct {
	UserID       string          `json:"user_id"`
	Balance      decimal.Decimal `json:"balance"`
	NairaBalance decimal.Decimal `json:"naira_balance"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Round rounds a value to the ledger precision, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Precision)
}

// NormalizeAmount rounds amount to the ledger precision and rejects anything
// that is not strictly positive afterwards.
func NormalizeAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	rounded := Round(amount)
	if !rounded.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return rounded, nil
}

// AmountFromFloat converts a float amount coming from an untyped boundary
// (JSON numbers, gateway payloads) into a normalized decimal amount.
func AmountFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, ErrInvalidAmount
	}
	return NormalizeAmount(decimal.NewFromFloat(f))
}

// MultiplyAmount returns unit × quantity rounded to the ledger precision.
func MultiplyAmount(unit decimal.Decimal, quantity int) decimal.Decimal {
	return Round(unit.Mul(decimal.NewFromInt(int64(quantity))))
}
