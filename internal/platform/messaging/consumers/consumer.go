package consumers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bu-wallet-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer defines the message queue consumer interface
type Consumer interface {
	Subscribe(ctx context.Context, topic string, groupID string, handler MessageHandler) error
	Close() error
}

// kafkaReader is the subset of kafka.Reader the consumer loop needs
type kafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer implements Consumer using Kafka
type KafkaConsumer struct {
	reader        kafkaReader
	logger        *slog.Logger
	retryDelay    time.Duration
	maxRetryDelay time.Duration
}

func NewKafkaConsumer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig) *KafkaConsumer {
	startOffset := cfg.StartOffset
	if startOffset == 0 {
		startOffset = kafka.FirstOffset
	}
	return &KafkaConsumer{
		logger:        logger,
		retryDelay:    time.Second,
		maxRetryDelay: 30 * time.Second,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.BrokerList(),
			Topic:       cfg.PaymentTopic,
			GroupID:     cfg.ConsumerGroup,
			MinBytes:    cfg.MinBytes,
			MaxBytes:    cfg.MaxBytes,
			MaxWait:     cfg.MaxWait,
			StartOffset: startOffset,
		}),
	}
}

// Subscribe consumes until ctx is canceled and returns once every in-flight
// message has finished. Messages of one partition are handled in order by
// one goroutine; partitions run concurrently. A message the handler fails is
// retried with backoff and never skipped, so its offset is committed only
// after the handler accepted it.
func (c *KafkaConsumer) Subscribe(ctx context.Context, topic string, groupID string, handler MessageHandler) error {
	logger := c.logger.With("topic", topic, "group_id", groupID)
	logger.Info("Subscribed to Kafka topic")

	var wg sync.WaitGroup
	partitions := make(map[int]chan kafka.Message)
	defer func() {
		for _, ch := range partitions {
			close(ch)
		}
		wg.Wait()
		logger.Info("Consumer stopped")
	}()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error("Failed to fetch message from Kafka", "error", err)
			if !sleep(ctx, c.retryDelay) {
				return nil
			}
			continue
		}

		ch, ok := partitions[msg.Partition]
		if !ok {
			ch = make(chan kafka.Message, 1)
			partitions[msg.Partition] = ch
			wg.Add(1)
			go func() {
				defer wg.Done()
				for m := range ch {
					c.process(ctx, logger, m, handler)
				}
			}()
		}

		select {
		case ch <- msg:
		case <-ctx.Done():
			return nil
		}
	}
}

// process runs handler until it accepts msg, then commits it. It gives up
// only when ctx is canceled, leaving the offset uncommitted for redelivery.
func (c *KafkaConsumer) process(ctx context.Context, logger *slog.Logger, msg kafka.Message, handler MessageHandler) {
	logger = logger.With("partition", msg.Partition, "offset", msg.Offset, "key", string(msg.Key))
	logger.Debug("Received message from Kafka")

	delay := c.retryDelay
	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return
		}
		err := handler(ctx, msg.Key, msg.Value)
		if err == nil {
			break
		}
		logger.Error("Failed to process message, retrying without commit",
			"attempt", attempt,
			"retry_in", delay.String(),
			"error", err,
		)
		if !sleep(ctx, delay) {
			return
		}
		if delay *= 2; c.maxRetryDelay > 0 && delay > c.maxRetryDelay {
			delay = c.maxRetryDelay
		}
	}

	if err := c.reader.CommitMessages(context.WithoutCancel(ctx), msg); err != nil {
		// a later commit on this partition covers the offset
		logger.Error("Failed to commit message after successful processing", "error", err)
		return
	}
	logger.Debug("Message committed successfully")
}

// sleep waits for d and reports false when ctx ended first
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
