package shared

import (
	"errors"
	"time"
)

var (
	ErrMissingPaymentReference = errors.New("payment reference is required")
	ErrMissingPaymentUser      = errors.New("payment user id is required")
)

// PaymentEvent is the Kafka message a gateway callback or webhook is forwarded as
type PaymentEvent struct {
	Reference     string        `json:"reference"`
	UserID        string        `json:"user_id"`
	Amount        string        `json:"amount"`
	Status        PaymentStatus `json:"status"`
	GatewayID     string        `json:"gateway_id,omitempty"`
	CorrelationID string        `json:"correlation_id,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

// Validate checks the fields every payment event must carry
func (p *PaymentEvent) Validate() error {
	if p.Reference == "" {
		return ErrMissingPaymentReference
	}
	if p.UserID == "" {
		return ErrMissingPaymentUser
	}
	return nil
}
