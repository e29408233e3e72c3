package journal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind names the orchestration that produced an entry
type Kind string

const (
	KindTransfer            Kind = "TRANSFER"
	KindTip                 Kind = "TIP"
	KindTicketPurchase      Kind = "TICKET_PURCHASE"
	KindGatewayQR           Kind = "GATEWAY_QR"
	KindWithdrawalRequest   Kind = "WITHDRAWAL_REQUEST"
	KindWithdrawalUpdate    Kind = "WITHDRAWAL_TRANSITION"
	KindPaymentVerification Kind = "PAYMENT_VERIFICATION"
)

// Status is the final outcome of an orchestration run
type Status string

const (
	StatusCompleted   Status = "COMPLETED"
	StatusCompensated Status = "COMPENSATED"
	StatusFailed      Status = "FAILED"
)

// StepRecord is the outcome of one saga step
type StepRecord struct {
	Name    string `json:"name"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// Entry is an audit record of one orchestration run
type Entry struct {
	OperationID    uuid.UUID       `json:"operation_id"`
	Kind           Kind            `json:"kind"`
	InitiatorID    string          `json:"initiator_id"`
	CounterpartyID string          `json:"counterparty_id,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Status         Status          `json:"status"`
	FailureReason  string          `json:"failure_reason,omitempty"`
	Steps          []StepRecord    `json:"steps,omitempty"`
	CorrelationID  string          `json:"correlation_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
