package producers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const topicReadAttempts = 5

// topicReadBackoff is the pause between partition reads; tests shorten it
var topicReadBackoff = 2 * time.Second

// topicAdmin is the subset of *kafka.Conn used to bootstrap topics
type topicAdmin interface {
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	CreateTopics(topics ...kafka.TopicConfig) error
}

// ensureTopic creates topic when the broker reports no partitions for it.
// Partition reads are retried since a freshly started broker may not have
// loaded its metadata yet.
func ensureTopic(ctx context.Context, admin topicAdmin, topic string, numPartitions, replicationFactor int, log *slog.Logger) error {
	log = log.With("topic", topic)

	var partitions []kafka.Partition
	var err error
	for attempt := 1; attempt <= topicReadAttempts; attempt++ {
		partitions, err = admin.ReadPartitions(topic)
		if err == nil && len(partitions) > 0 {
			log.Info("Kafka topic already exists", "partitions", len(partitions))
			return nil
		}
		if err == nil {
			break
		}
		log.Warn("Failed to read topic partitions", "attempt", attempt, "error", err)
		if attempt == topicReadAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(topicReadBackoff):
		}
	}

	cfg := kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     max(numPartitions, 1),
		ReplicationFactor: max(replicationFactor, 1),
	}
	log.Info("Creating Kafka topic", "partitions", cfg.NumPartitions, "replication_factor", cfg.ReplicationFactor)
	if err := admin.CreateTopics(cfg); err != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", topic, err)
	}
	return nil
}
