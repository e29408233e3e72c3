// Package ledgertest provides an in-memory wallet store with the same
// atomicity and non-negativity guarantees as the Postgres procedures.
package ledgertest

import (
	"context"
	"sync"
	"time"

	"github.com/bu-wallet-ledger/internal/domain/wallet"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Wallets is a wallet.Repository backed by a map guarded by a mutex
type Wallets struct {
	mu      sync.Mutex
	wallets map[string]*wallet.Wallet
	// FailNext makes the next mutation return this error without touching state
	FailNext error
}

func NewWallets() *Wallets {
	return &Wallets{wallets: make(map[string]*wallet.Wallet)}
}

// Seed sets the balance of userID, creating the wallet if needed
func (w *Wallets) Seed(userID string, balance string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	amount := decimal.RequireFromString(balance)
	w.wallets[userID] = &wallet.Wallet{
		UserID:       userID,
		Balance:      amount,
		NairaBalance: amount,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// Snapshot copies every wallet and returns a function that puts the copies
// back, standing in for a transaction rollback
func (w *Wallets) Snapshot() (restore func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	saved := make(map[string]wallet.Wallet, len(w.wallets))
	for id, wl := range w.wallets {
		saved[id] = *wl
	}
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.wallets = make(map[string]*wallet.Wallet, len(saved))
		for id, wl := range saved {
			copied := wl
			w.wallets[id] = &copied
		}
	}
}

// BalanceOf returns the balance of userID, or zero when no wallet exists
func (w *Wallets) BalanceOf(userID string) decimal.Decimal {
	w.mu.Lock()
	defer w.mu.Unlock()
	if wl, ok := w.wallets[userID]; ok {
		return wl.Balance
	}
	return decimal.Zero
}

func (w *Wallets) Get(_ context.Context, userID string) (*wallet.Wallet, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	wl, ok := w.wallets[userID]
	if !ok {
		return nil, wallet.ErrWalletNotFound{UserID: userID}
	}
	copied := *wl
	return &copied, nil
}

func (w *Wallets) Debit(_ context.Context, userID string, amount decimal.Decimal) (wallet.MutationResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.takeFailure(); err != nil {
		return wallet.MutationResult{Failure: wallet.FailurePersistence}, err
	}

	wl, ok := w.wallets[userID]
	if !ok {
		return wallet.MutationResult{Failure: wallet.FailureWalletNotFound, ErrorMessage: "Wallet not found"}, nil
	}
	before := wl.Balance
	if before.LessThan(amount) {
		return wallet.MutationResult{
			NewBalance:    before,
			BalanceBefore: before,
			Failure:       wallet.FailureInsufficientBalance,
			ErrorMessage:  "Insufficient balance",
		}, nil
	}

	wl.Balance = wallet.Round(before.Sub(amount))
	wl.NairaBalance = wl.Balance
	wl.UpdatedAt = time.Now()
	return wallet.MutationResult{Success: true, NewBalance: wl.Balance, BalanceBefore: before}, nil
}

func (w *Wallets) Credit(_ context.Context, userID string, amount decimal.Decimal) (wallet.MutationResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.takeFailure(); err != nil {
		return wallet.MutationResult{Failure: wallet.FailurePersistence}, err
	}

	wl, ok := w.wallets[userID]
	if !ok {
		wl = &wallet.Wallet{UserID: userID, CreatedAt: time.Now()}
		w.wallets[userID] = wl
	}
	before := wl.Balance
	wl.Balance = wallet.Round(before.Add(amount))
	wl.NairaBalance = wl.Balance
	wl.UpdatedAt = time.Now()
	return wallet.MutationResult{Success: true, NewBalance: wl.Balance, BalanceBefore: before}, nil
}

// WithTx returns the same store; the map has no transactions
func (w *Wallets) WithTx(pgx.Tx) wallet.Repository {
	return w
}

func (w *Wallets) takeFailure() error {
	err := w.FailNext
	w.FailNext = nil
	return err
}
