package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	originalWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tempDir))
	t.Cleanup(func() { _ = os.Chdir(originalWD) })
	return tempDir
}

func TestLoadConfig_FromEnvFile(t *testing.T) {
	tempDir := chdirTemp(t)
	require.NoError(t, os.Mkdir(filepath.Join(tempDir, "configs"), 0755))

	envContent := strings.Join([]string{
		"APP_NAME=wallet-api-test",
		"SERVER_PORT=9191",
		"LOG_LEVEL=debug",
		"KAFKA_PAYMENT_TOPIC=payments_test",
		"LEDGER_PLATFORM_USER_ID=platform-test",
		"LEDGER_MAX_TICKETS_PER_PURCHASE=4",
	}, "\n")
	err := os.WriteFile(filepath.Join(tempDir, "configs", "wallet_test.env"), []byte(envContent), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig("wallet_test")
	require.NoError(t, err)

	assert.Equal(t, "wallet-api-test", cfg.Application.Name)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "payments_test", cfg.Kafka.PaymentTopic)
	assert.Equal(t, "platform-test", cfg.Ledger.PlatformUserID)
	assert.Equal(t, 4, cfg.Ledger.MaxTicketsPerPurchase)

	// untouched keys keep their defaults
	assert.Equal(t, "wallet_notifications", cfg.Kafka.NotificationTopic)
	assert.Equal(t, "payment_events_dlq", cfg.Kafka.DLQTopic)
	assert.Equal(t, 20, cfg.Ledger.JournalPageSize)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, time.Minute, cfg.Outbox.ClaimLease)

	cfgWithType, err := LoadConfigWithNameAndType("configs/wallet_test", "env")
	require.NoError(t, err)
	assert.Equal(t, "platform-test", cfgWithType.Ledger.PlatformUserID)
}

func TestLoadConfig_DefaultsAndEnvironment(t *testing.T) {
	chdirTemp(t)
	t.Setenv("LEDGER_PLATFORM_USER_ID", "platform-from-env")
	t.Setenv("WORKER_POOL_SIZE", "3")

	cfg, err := LoadConfig("missing")
	require.NoError(t, err)

	assert.Equal(t, "platform-from-env", cfg.Ledger.PlatformUserID)
	assert.Equal(t, 3, cfg.WorkerPool.Size)
	assert.Equal(t, "payment_events", cfg.Kafka.PaymentTopic)
	assert.Equal(t, "bu-wallet-ledger", cfg.Application.Name)
	assert.Equal(t, "migrations/postgres", cfg.Postgres.MigrationsPath)
}

func TestLoadConfig_InvalidEnvironment(t *testing.T) {
	chdirTemp(t)
	t.Setenv("LEDGER_MAX_TICKETS_PER_PURCHASE", "0")

	cfg, err := LoadConfig("missing")
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LEDGER_MAX_TICKETS_PER_PURCHASE must be greater than 0")
}

func defaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	return fromViper(v)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "Defaults", mutate: func(c *Config) {}},
		{
			name:    "MissingPaymentTopic",
			mutate:  func(c *Config) { c.Kafka.PaymentTopic = "" },
			wantErr: "KAFKA_PAYMENT_TOPIC is required",
		},
		{
			name:    "MissingNotificationTopic",
			mutate:  func(c *Config) { c.Kafka.NotificationTopic = "" },
			wantErr: "KAFKA_NOTIFICATION_TOPIC is required",
		},
		{
			name:    "MissingPlatformUser",
			mutate:  func(c *Config) { c.Ledger.PlatformUserID = "" },
			wantErr: "LEDGER_PLATFORM_USER_ID is required",
		},
		{
			name:    "ZeroJournalPage",
			mutate:  func(c *Config) { c.Ledger.JournalPageSize = 0 },
			wantErr: "LEDGER_JOURNAL_PAGE_SIZE must be greater than 0",
		},
		{
			name: "MultipleErrors",
			mutate: func(c *Config) {
				c.Server.Port = 0
				c.WorkerPool.Size = -1
			},
			wantErr: "SERVER_PORT must be greater than 0, WORKER_POOL_SIZE must be greater than 0",
		},
		{
			name:    "BlankBrokers",
			mutate:  func(c *Config) { c.Kafka.Brokers = " , " },
			wantErr: "KAFKA_BROKERS is required",
		},
		{
			name:    "FetchBoundsInverted",
			mutate:  func(c *Config) { c.Kafka.MinBytes = c.Kafka.MaxBytes + 1 },
			wantErr: "KAFKA_CONSUMER_MIN_BYTES must not exceed KAFKA_CONSUMER_MAX_BYTES",
		},
		{
			name:    "ZeroClaimLease",
			mutate:  func(c *Config) { c.Outbox.ClaimLease = 0 },
			wantErr: "OUTBOX_CLAIM_LEASE must be greater than 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestKafkaConfig_BrokerList(t *testing.T) {
	k := KafkaConfig{Brokers: "kafka-1:9092, kafka-2:9092,,"}
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, k.BrokerList())
	assert.Equal(t, "kafka-1:9092", k.SeedBroker())

	assert.Empty(t, KafkaConfig{}.BrokerList())
	assert.Equal(t, "", KafkaConfig{}.SeedBroker())
}

func TestApplicationConfig_IsProduction(t *testing.T) {
	assert.True(t, ApplicationConfig{Env: "Production"}.IsProduction())
	assert.False(t, ApplicationConfig{Env: "development"}.IsProduction())
}
