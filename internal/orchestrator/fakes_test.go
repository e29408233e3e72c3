package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/bu-wallet-ledger/internal/domain/event"
	"github.com/bu-wallet-ledger/internal/domain/journal"
	"github.com/bu-wallet-ledger/internal/domain/notification"
	"github.com/bu-wallet-ledger/internal/domain/ticket"
	"github.com/bu-wallet-ledger/internal/domain/transfer"
	"github.com/bu-wallet-ledger/internal/domain/withdrawal"
	"github.com/bu-wallet-ledger/internal/ledger"
	"github.com/bu-wallet-ledger/internal/ledger/ledgertest"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func bu(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeTransfers struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*transfer.Transfer
	createErr error
	onCreate  func()
	updateErr error
}

func newFakeTransfers() *fakeTransfers {
	return &fakeTransfers{byID: make(map[uuid.UUID]*transfer.Transfer)}
}

func (f *fakeTransfers) Create(_ context.Context, t *transfer.Transfer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onCreate != nil {
		f.onCreate()
	}
	if f.createErr != nil {
		return f.createErr
	}
	if t.PaymentReference != nil {
		for _, existing := range f.byID {
			if existing.PaymentReference != nil && *existing.PaymentReference == *t.PaymentReference {
				return transfer.ErrDuplicatePayment{Reference: *t.PaymentReference}
			}
		}
	}
	copied := *t
	f.byID[t.ID] = &copied
	return nil
}

func (f *fakeTransfers) GetByID(_ context.Context, id uuid.UUID) (*transfer.Transfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok {
		return nil, transfer.ErrTransferNotFound{ID: id}
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTransfers) GetByPaymentReference(_ context.Context, reference string) (*transfer.Transfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.byID {
		if t.PaymentReference != nil && *t.PaymentReference == reference {
			copied := *t
			return &copied, nil
		}
	}
	return nil, transfer.ErrTransferNotFound{}
}

func (f *fakeTransfers) UpdateStatus(_ context.Context, id uuid.UUID, from, to transfer.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	t, ok := f.byID[id]
	if !ok || t.Status != from {
		return transfer.ErrTransferNotFound{ID: id}
	}
	t.Status = to
	return nil
}

func (f *fakeTransfers) WithTx(pgx.Tx) transfer.Repository {
	return f
}

// snapshot copies the rows so a rolled back transaction can restore them
func (f *fakeTransfers) snapshot() func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	saved := make(map[uuid.UUID]transfer.Transfer, len(f.byID))
	for id, t := range f.byID {
		saved[id] = *t
	}
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.byID = make(map[uuid.UUID]*transfer.Transfer, len(saved))
		for id, t := range saved {
			copied := t
			f.byID[id] = &copied
		}
	}
}

func (f *fakeTransfers) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return transfer.ErrTransferNotFound{ID: id}
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeTransfers) all() []*transfer.Transfer {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*transfer.Transfer
	for _, t := range f.byID {
		out = append(out, t)
	}
	return out
}

type fakeTickets struct {
	byID      map[uuid.UUID]*ticket.Ticket
	createErr error
}

func (f *fakeTickets) Create(_ context.Context, t *ticket.Ticket) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.byID[t.ID] = t
	return nil
}

func (f *fakeTickets) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return ticket.ErrTicketNotFound{ID: id}
	}
	delete(f.byID, id)
	return nil
}

type fakeEvents struct {
	byID       map[uuid.UUID]*event.Event
	refreshErr error
	refreshed  int
}

func (f *fakeEvents) GetByID(_ context.Context, id uuid.UUID) (*event.Event, error) {
	e, ok := f.byID[id]
	if !ok {
		return nil, event.ErrEventNotFound{ID: id}
	}
	copied := *e
	return &copied, nil
}

func (f *fakeEvents) RefreshTotals(_ context.Context, id uuid.UUID) error {
	if f.refreshErr != nil {
		return f.refreshErr
	}
	if _, ok := f.byID[id]; !ok {
		return event.ErrEventNotFound{ID: id}
	}
	f.refreshed++
	return nil
}

type fakeWithdrawals struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*withdrawal.Withdrawal
}

func (f *fakeWithdrawals) Create(_ context.Context, w *withdrawal.Withdrawal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *w
	f.byID[w.ID] = &copied
	return nil
}

func (f *fakeWithdrawals) GetByID(_ context.Context, id uuid.UUID) (*withdrawal.Withdrawal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.byID[id]
	if !ok {
		return nil, withdrawal.ErrWithdrawalNotFound{ID: id}
	}
	copied := *w
	return &copied, nil
}

func (f *fakeWithdrawals) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

func (f *fakeWithdrawals) Transition(_ context.Context, id uuid.UUID, from []withdrawal.Status, to withdrawal.Status, reason string) (*withdrawal.Withdrawal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.byID[id]
	if !ok {
		return nil, withdrawal.ErrWithdrawalNotFound{ID: id}
	}
	for _, s := range from {
		if w.Status == s {
			w.Status = to
			w.FailureReason = reason
			copied := *w
			return &copied, nil
		}
	}
	return nil, withdrawal.ErrInvalidTransition{From: w.Status, To: to}
}

func (f *fakeWithdrawals) WithTx(pgx.Tx) withdrawal.Repository {
	return f
}

// rollbackTxRunner restores the wallet and transfer fakes when fn fails
type rollbackTxRunner struct {
	wallets   *ledgertest.Wallets
	transfers *fakeTransfers
}

func (r rollbackTxRunner) ExecuteTx(_ context.Context, fn func(pgx.Tx) error) error {
	restoreWallets := r.wallets.Snapshot()
	restoreTransfers := r.transfers.snapshot()
	if err := fn(nil); err != nil {
		restoreWallets()
		restoreTransfers()
		return err
	}
	return nil
}

type fakePINs struct {
	valid map[string]string
}

func (f fakePINs) Verify(_ context.Context, userID, pin string) error {
	if f.valid[userID] != pin || pin == "" {
		return ErrInvalidPIN
	}
	return nil
}

type recordingNotifier struct {
	sent []*notification.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, notifications ...*notification.Notification) {
	r.sent = append(r.sent, notifications...)
}

type recordingJournal struct {
	entries []*journal.Entry
}

func (r *recordingJournal) Record(_ context.Context, entry *journal.Entry) {
	r.entries = append(r.entries, entry)
}

func (r *recordingJournal) last() *journal.Entry {
	if len(r.entries) == 0 {
		return nil
	}
	return r.entries[len(r.entries)-1]
}

type stubPayouts struct {
	result PayoutResult
	err    error
}

func (s stubPayouts) Payout(context.Context, *withdrawal.Withdrawal) (PayoutResult, error) {
	return s.result, s.err
}

type harness struct {
	orch        *Orchestrator
	wallets     *ledgertest.Wallets
	transfers   *fakeTransfers
	tickets     *fakeTickets
	events      *fakeEvents
	withdrawals *fakeWithdrawals
	notifier    *recordingNotifier
	journal     *recordingJournal
}

func newHarness(t *testing.T, payouts PayoutGateway) *harness {
	t.Helper()
	h := &harness{
		wallets:     ledgertest.NewWallets(),
		transfers:   newFakeTransfers(),
		tickets:     &fakeTickets{byID: make(map[uuid.UUID]*ticket.Ticket)},
		events:      &fakeEvents{byID: make(map[uuid.UUID]*event.Event)},
		withdrawals: &fakeWithdrawals{byID: make(map[uuid.UUID]*withdrawal.Withdrawal)},
		notifier:    &recordingNotifier{},
		journal:     &recordingJournal{},
	}
	if payouts == nil {
		payouts = NewManualPayoutGateway(discardLogger)
	}

	h.orch = New(Dependencies{
		Ledger:      ledger.NewService(h.wallets, discardLogger),
		TxRunner:    rollbackTxRunner{wallets: h.wallets, transfers: h.transfers},
		Transfers:   h.transfers,
		Tickets:     h.tickets,
		Events:      h.events,
		Withdrawals: h.withdrawals,
		PINs:        fakePINs{valid: map[string]string{"alice": "1111", "bob": "2222", "buyer": "3333"}},
		Notifier:    h.notifier,
		Journal:     h.journal,
		Payouts:     payouts,
	}, Config{PlatformUserID: "platform", MaxTicketsPerPurchase: 10}, discardLogger)
	return h
}

func (h *harness) balance(userID string) string {
	return h.wallets.BalanceOf(userID).StringFixed(2)
}
