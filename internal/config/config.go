// Package config holds the settings shared by the wallet API and the payment worker.
// Values come from an optional env file, then the process environment, and are
// validated once at startup.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config is the full set of settings for one process
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
	Ledger      LedgerConfig
}

type ApplicationConfig struct {
	Env  string
	Name string
}

// IsProduction reports whether APP_ENV selects production behaviour
func (a ApplicationConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

type LoggingConfig struct {
	Level string
}

// ServerConfig configures the wallet HTTP API
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration // grace period for in-flight requests
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// KafkaConfig covers the payment feed, the notification sink and the DLQ
type KafkaConfig struct {
	Brokers           string // comma separated host:port list
	PaymentTopic      string
	NotificationTopic string
	DLQTopic          string // empty disables dead lettering
	NumPartitions     int
	ReplicationFactor int
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
}

// BrokerList splits Brokers into individual addresses
func (k KafkaConfig) BrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// SeedBroker is the address dialed for topic administration
func (k KafkaConfig) SeedBroker() string {
	brokers := k.BrokerList()
	if len(brokers) == 0 {
		return ""
	}
	return brokers[0]
}

type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// MongoDBConfig configures the journal store
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// OutboxConfig drives the notification outbox poller
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int
	ClaimLease       time.Duration // how long a claimed row is hidden from other pollers
}

type WorkerPoolConfig struct {
	Size int
}

// LedgerConfig contains wallet ledger settings
type LedgerConfig struct {
	PlatformUserID        string // credited for events without an owner or settled to the platform
	MaxTicketsPerPurchase int
	JournalPageSize       int
}

type number interface {
	~int | ~int32 | ~int64 | ~uint64
}

// problems collects every invalid key so startup reports them together
type problems []string

func (p *problems) required(key, value string) {
	if strings.TrimSpace(value) == "" {
		*p = append(*p, key+" is required")
	}
}

func positive[T number](p *problems, key string, value T) {
	if value <= 0 {
		*p = append(*p, key+" must be greater than 0")
	}
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return errors.New(strings.Join(p, ", "))
}

func (c *Config) validate() error {
	var p problems

	positive(&p, "SERVER_PORT", c.Server.Port)
	positive(&p, "SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	positive(&p, "SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	positive(&p, "SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	positive(&p, "SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout)

	if len(c.Kafka.BrokerList()) == 0 {
		p = append(p, "KAFKA_BROKERS is required")
	}
	p.required("KAFKA_PAYMENT_TOPIC", c.Kafka.PaymentTopic)
	p.required("KAFKA_NOTIFICATION_TOPIC", c.Kafka.NotificationTopic)
	p.required("KAFKA_CONSUMER_GROUP", c.Kafka.ConsumerGroup)
	positive(&p, "KAFKA_CONSUMER_MIN_BYTES", c.Kafka.MinBytes)
	positive(&p, "KAFKA_CONSUMER_MAX_BYTES", c.Kafka.MaxBytes)
	positive(&p, "KAFKA_CONSUMER_MAX_WAIT", c.Kafka.MaxWait)
	if c.Kafka.MinBytes > c.Kafka.MaxBytes {
		p = append(p, "KAFKA_CONSUMER_MIN_BYTES must not exceed KAFKA_CONSUMER_MAX_BYTES")
	}

	p.required("POSTGRES_URL", c.Postgres.URL)
	positive(&p, "POSTGRES_MAX_CONNS", c.Postgres.MaxConns)
	positive(&p, "POSTGRES_MIN_CONNS", c.Postgres.MinConns)
	positive(&p, "POSTGRES_MAX_CONN_LIFETIME", c.Postgres.ConnMaxLifetime)
	positive(&p, "POSTGRES_MAX_CONN_IDLE_TIME", c.Postgres.ConnMaxIdleTime)

	p.required("MONGO_URI", c.MongoDB.URI)
	p.required("MONGO_DATABASE", c.MongoDB.Database)
	positive(&p, "MONGO_TIMEOUT", c.MongoDB.Timeout)
	positive(&p, "MONGO_MAX_POOL_SIZE", c.MongoDB.MaxPoolSize)
	positive(&p, "MONGO_MIN_POOL_SIZE", c.MongoDB.MinPoolSize)
	positive(&p, "MONGO_MAX_CONN_IDLE_TIME", c.MongoDB.MaxConnIdleTime)

	positive(&p, "OUTBOX_POLLING_INTERVAL", c.Outbox.PollingInterval)
	positive(&p, "OUTBOX_BATCH_SIZE", c.Outbox.BatchSize)
	positive(&p, "OUTBOX_MAX_RETRY_ATTEMPTS", c.Outbox.MaxRetryAttempts)
	positive(&p, "OUTBOX_CLAIM_LEASE", c.Outbox.ClaimLease)

	positive(&p, "WORKER_POOL_SIZE", c.WorkerPool.Size)

	p.required("LEDGER_PLATFORM_USER_ID", c.Ledger.PlatformUserID)
	positive(&p, "LEDGER_MAX_TICKETS_PER_PURCHASE", c.Ledger.MaxTicketsPerPurchase)
	positive(&p, "LEDGER_JOURNAL_PAGE_SIZE", c.Ledger.JournalPageSize)

	return p.err()
}
