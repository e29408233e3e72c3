package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessagePublisher writes keyed messages to one topic. Values that are not
// already encoded are marshalled to JSON.
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// DeadLetterPublisher parks messages the payment worker gave up on
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter is the part of *kafka.Writer the producers use
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var (
	_ KafkaWriter         = (*kafka.Writer)(nil)
	_ MessagePublisher    = (*NotificationProducer)(nil)
	_ DeadLetterPublisher = (*DLQProducer)(nil)
)
