// Package config loads service configuration from claimflow.yaml with
// environment-variable overrides, using viper. Every knob has a default so
// a bare worker comes up against local collaborators.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	ClaimsAPI   ClaimsAPIConfig `mapstructure:"claims_api"`
	Reasoning   ReasoningConfig `mapstructure:"reasoning"`
	Temporal    TemporalConfig  `mapstructure:"temporal"`
	Postgres    PostgresConfig  `mapstructure:"postgres"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Kafka       KafkaConfig     `mapstructure:"kafka"`
	Breaker     BreakerConfig   `mapstructure:"circuit_breaker"`
	Retry       RetryConfig     `mapstructure:"retry"`
	Pricing     PricingConfig   `mapstructure:"pricing"`
	WeightsPath string          `mapstructure:"weights_path"`
	AdminPort   int             `mapstructure:"admin_port"`
}

type ClaimsAPIConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type ReasoningConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
	Enabled bool     `mapstructure:"enabled"`
}

type BreakerConfig struct {
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	SuccessThreshold uint32        `mapstructure:"success_threshold"`
}

type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
}

type PricingConfig struct {
	IQRMultiplier   float64 `mapstructure:"iqr_multiplier"`
	ZScoreThreshold float64 `mapstructure:"z_score_threshold"`
}

// Load reads CONFIG_PATH (default ./config/claimflow.yaml) and applies
// CLAIMFLOW_* environment overrides. A missing file is not an error; the
// defaults stand.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CLAIMFLOW")
	v.AutomaticEnv()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "./config/claimflow.yaml"
	}
	v.SetConfigFile(cfgPath)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", cfgPath, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that cannot work at all.
func (c *Config) Validate() error {
	if c.ClaimsAPI.BaseURL == "" {
		return fmt.Errorf("claims_api.base_url is required")
	}
	if c.Reasoning.BaseURL == "" {
		return fmt.Errorf("reasoning.base_url is required")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required when kafka is enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("claims_api.base_url", "http://localhost:8000")
	v.SetDefault("reasoning.base_url", "http://localhost:8500")
	v.SetDefault("reasoning.request_timeout", 2*time.Minute)
	v.SetDefault("reasoning.requests_per_second", 2.0)
	v.SetDefault("reasoning.burst", 4)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "claimflow")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "claimflow")
	v.SetDefault("postgres.password", "claimflow")
	v.SetDefault("postgres.database", "claimflow")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.topic", "claims.process")
	v.SetDefault("kafka.group_id", "claimflow-workers")
	v.SetDefault("circuit_breaker.max_requests", 3)
	v.SetDefault("circuit_breaker.interval", time.Minute)
	v.SetDefault("circuit_breaker.timeout", 15*time.Second)
	v.SetDefault("circuit_breaker.failure_threshold", 5)
	v.SetDefault("circuit_breaker.success_threshold", 2)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_interval", 200*time.Millisecond)
	v.SetDefault("retry.max_interval", 5*time.Second)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("pricing.iqr_multiplier", 1.5)
	v.SetDefault("pricing.z_score_threshold", 2.0)
	v.SetDefault("weights_path", "")
	v.SetDefault("admin_port", 8081)
}
