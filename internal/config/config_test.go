package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load(Defaults{ServiceName: "order-service", HTTPAddr: ":3002"})
	require.NoError(t, err)
	assert.Equal(t, "order-service", cfg.ServiceName)
	assert.Equal(t, ":3002", cfg.HTTPAddr)
	assert.Equal(t, 3*time.Second, cfg.Services.ClientTimeout)
	assert.InDelta(t, 0.8, cfg.Payment.ApprovalRate, 1e-9)
	assert.False(t, cfg.KafkaEnabled())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("SERVICE_NAME", "payment-service")
	t.Setenv("HTTP_CLIENT_TIMEOUT", "750ms")
	t.Setenv("PAYMENT_APPROVAL_RATE", "1")
	t.Setenv("PAYMENT_SEED", "42")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load(Defaults{ServiceName: "ignored", HTTPAddr: ":3003"})
	require.NoError(t, err)
	assert.Equal(t, "payment-service", cfg.ServiceName)
	assert.Equal(t, 750*time.Millisecond, cfg.Services.ClientTimeout)
	assert.EqualValues(t, 42, cfg.Payment.Seed)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.KafkaEnabled())
}

func TestLoadRejectsBadRate(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("PAYMENT_APPROVAL_RATE", "1.5")

	_, err := Load(Defaults{ServiceName: "payment-service", HTTPAddr: ":3003"})
	assert.ErrorContains(t, err, "PAYMENT_APPROVAL_RATE")
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "product.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service_name: product-service\nhttp_addr: \":9001\"\nredis:\n  addr: cache:6379\n"), 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load(Defaults{ServiceName: "x", HTTPAddr: ":1"})
	require.NoError(t, err)
	assert.Equal(t, "product-service", cfg.ServiceName)
	assert.Equal(t, ":9001", cfg.HTTPAddr)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
}
