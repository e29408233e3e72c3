package withdrawal

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrInvalidType = errors.New("withdrawal type must be bank or wallet")

// Type is the payout destination
type Type string

const (
	TypeBank   Type = "bank"
	TypeWallet Type = "wallet"
)

func (t Type) Valid() bool {
	return t == TypeBank || t == TypeWallet
}

// Status follows pending -> processing -> completed | failed
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Withdrawal is a request to move BU out of the wallet into naira
type Withdrawal struct {
	ID            uuid.UUID       `json:"id"`
	UserID        string          `json:"user_id"`
	BUAmount      decimal.Decimal `json:"bu_amount"`
	NairaAmount   decimal.Decimal `json:"naira_amount"`
	Type          Type            `json:"type"`
	Status        Status          `json:"status"`
	FundsLocked   bool            `json:"funds_locked"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

// New builds a pending withdrawal whose funds have already been debited.
// BU is pegged 1:1 to naira.
func New(userID string, amount decimal.Decimal, kind Type) (*Withdrawal, error) {
	if !kind.Valid() {
		return nil, ErrInvalidType
	}
	return &Withdrawal{
		ID:          uuid.New(),
		UserID:      userID,
		BUAmount:    amount,
		NairaAmount: amount,
		Type:        kind,
		Status:      StatusPending,
		FundsLocked: true,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCompleted, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
}

// CanTransition reports whether the state machine allows from -> to
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SourcesFor lists every status that may move into to
func SourcesFor(to Status) []Status {
	var sources []Status
	for _, from := range []Status{StatusPending, StatusProcessing} {
		if CanTransition(from, to) {
			sources = append(sources, from)
		}
	}
	return sources
}

// IsTerminal reports whether no further transitions are possible
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}
