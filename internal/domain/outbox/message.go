package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bu-wallet-ledger/internal/domain/notification"
	"github.com/bu-wallet-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Message is a notification parked in the outbox until the worker publishes it.
// Payload is the JSON notification exactly as subscribers receive it.
type Message struct {
	ID            int64
	OperationID   uuid.UUID
	UserID        string
	Payload       json.RawMessage
	Status        shared.OutboxStatus
	Attempts      int
	CreatedAt     time.Time
	LastAttemptAt *time.Time
}

// Wrap encodes n as a pending outbox message
func Wrap(n *notification.Notification) (*Message, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("encode %s notification for %s: %w", n.Kind, n.UserID, err)
	}
	return &Message{
		OperationID: n.OperationID,
		UserID:      n.UserID,
		Payload:     payload,
		Status:      shared.OutboxStatusPending,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Unwrap decodes the notification carried in the payload
func (m *Message) Unwrap() (*notification.Notification, error) {
	var n notification.Notification
	if err := json.Unmarshal(m.Payload, &n); err != nil {
		return nil, fmt.Errorf("decode outbox payload %d: %w", m.ID, err)
	}
	return &n, nil
}

// Settled reports whether the poller is done with the message
func (m *Message) Settled() bool {
	return m.Status == shared.OutboxStatusProcessed || m.Status == shared.OutboxStatusFailedToPublish
}
