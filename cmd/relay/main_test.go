package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_ENV", "value")
	assert.Equal(t, "value", getEnv("TEST_ENV", "default"))
	assert.Equal(t, "default", getEnv("MISSING_ENV", "default"))

	t.Setenv("TEST_DURATION", "250ms")
	assert.Equal(t, 250*time.Millisecond, getDuration("TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, getDuration("MISSING_DURATION", time.Second))

	t.Setenv("TEST_INT", "42")
	assert.Equal(t, 42, getInt("TEST_INT", 7))
	assert.Equal(t, 7, getInt("MISSING_INT", 7))
	t.Setenv("TEST_INT", "not-a-number")
	assert.Equal(t, 7, getInt("TEST_INT", 7))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("OUTBOX_POLL_INTERVAL", "2s")
	t.Setenv("OUTBOX_BATCH_SIZE", "25")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("MONGODB_DATABASE", "production_test")

	cfg := loadConfig()

	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 25, cfg.BatchSize)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, serviceName, cfg.Kafka.ClientID)
	assert.Equal(t, "production_test", cfg.MongoDB.Database)
}
