package producers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bu-wallet-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

var ErrDLQDisabled = errors.New("DLQ producer not initialized")

const (
	headerDLQReason   = "dlq-reason"
	headerDLQFailedAt = "dlq-failed-at"
)

// DeadLetter is the envelope parked on the DLQ topic. A payload that is valid
// JSON is embedded as-is; anything else is kept verbatim in RawPayload.
type DeadLetter struct {
	Key        string          `json:"key"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	RawPayload string          `json:"raw_payload,omitempty"`
	Reason     string          `json:"reason"`
	FailedAt   time.Time       `json:"failed_at"`
}

func newDeadLetter(key string, value []byte, reason string, failedAt time.Time) DeadLetter {
	letter := DeadLetter{Key: key, Reason: reason, FailedAt: failedAt}
	if json.Valid(value) {
		letter.Payload = json.RawMessage(value)
	} else {
		letter.RawPayload = string(value)
	}
	return letter
}

// DLQProducer parks payment events the worker rejected or could not decode
type DLQProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
	now    func() time.Time
}

// NewDLQProducer returns a nil producer when no DLQ topic is configured
func NewDLQProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*DLQProducer, error) {
	if cfg.DLQTopic == "" {
		logger.Info("DLQ topic is not configured, rejected payment events will only be logged")
		return nil, nil
	}

	conn, err := kafka.DialContext(ctx, "tcp", cfg.SeedBroker())
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for dlq producer: %w", err)
	}
	defer conn.Close()

	if err := ensureTopic(ctx, conn, cfg.DLQTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure DLQ topic %s exists: %w", cfg.DLQTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.BrokerList()...),
		Topic:        cfg.DLQTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.MaxWait,
	}

	return &DLQProducer{
		logger: logger.With("topic", cfg.DLQTopic),
		writer: writer,
		topic:  cfg.DLQTopic,
		now:    time.Now,
	}, nil
}

// PublishToDLQ writes the original message with the rejection reason. The key
// is kept so all dead letters of one payment reference share a partition.
func (p *DLQProducer) PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error {
	if p == nil || p.writer == nil {
		return ErrDLQDisabled
	}

	now := time.Now
	if p.now != nil {
		now = p.now
	}
	letter := newDeadLetter(key, originalMessageValue, reason, now().UTC())

	value, err := json.Marshal(letter)
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: headerDLQReason, Value: []byte(reason)},
			{Key: headerDLQFailedAt, Value: []byte(letter.FailedAt.Format(time.RFC3339Nano))},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish dead letter", "key", key, "error", err)
		return fmt.Errorf("failed to publish dead letter to %s: %w", p.topic, err)
	}

	p.logger.Warn("Parked payment event on DLQ", "key", key, "reason", reason)
	return nil
}

func (p *DLQProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	p.logger.Info("Closing DLQ Kafka producer")
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close dlq kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
