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
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.ClaimsAPI.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.Reasoning.RequestTimeout)
	assert.Equal(t, "claimflow", cfg.Temporal.TaskQueue)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 1.5, cfg.Pricing.IQRMultiplier)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "claimflow.yaml")
	content := `
claims_api:
  base_url: http://claims.internal:9000
reasoning:
  base_url: http://reasoning.internal:9500
  requests_per_second: 5
kafka:
  enabled: true
  brokers:
    - kafka-1:9092
    - kafka-2:9092
  topic: claims.incoming
retry:
  max_attempts: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://claims.internal:9000", cfg.ClaimsAPI.BaseURL)
	assert.Equal(t, 5.0, cfg.Reasoning.RequestsPerSecond)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "claims.incoming", cfg.Kafka.Topic)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	// untouched keys keep defaults
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestValidateRejectsKafkaWithoutBrokers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "claimflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kafka:\n  enabled: true\n"), 0o644))
	t.Setenv("CONFIG_PATH", path)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka.brokers")
}

func TestValidateRejectsZeroRetries(t *testing.T) {
	cfg := &Config{
		ClaimsAPI: ClaimsAPIConfig{BaseURL: "http://localhost:8000"},
		Reasoning: ReasoningConfig{BaseURL: "http://localhost:8500"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry.max_attempts")
}
