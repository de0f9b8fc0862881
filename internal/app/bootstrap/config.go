package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for M15.
// It merges file defaults and environment overrides to support both local and
// deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	// StorageDriver selects "postgres" or "memory"; the memory driver keeps
	// the full ledger in process for local runs and tests.
	StorageDriver string

	DatabaseURL string
	MaxDBConns  int32
	RedisURL    string

	KafkaBrokers []string

	JWTSecret string

	// FeeRecipient is the platform treasury identity credited with withheld
	// fees; fixed per deployment target.
	FeeRecipient string

	IdempotencyTTL     time.Duration
	LockTTL            time.Duration
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxRetries   int
}

// configFile mirrors the YAML schema used by configs/default.yaml.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Storage struct {
		Driver string `yaml:"driver"`
	} `yaml:"storage"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
	} `yaml:"dependencies"`
	Funding struct {
		FeeRecipient string `yaml:"fee_recipient"`
	} `yaml:"funding"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:          "M15-Campaign-Funding-Service",
		HTTPPort:           8080,
		GRPCPort:           9090,
		StorageDriver:      "memory",
		MaxDBConns:         20,
		FeeRecipient:       "acct_platform_treasury",
		IdempotencyTTL:     7 * 24 * time.Hour,
		LockTTL:            30 * time.Second,
		OutboxPollInterval: 2 * time.Second,
		OutboxBatchSize:    100,
		OutboxMaxRetries:   5,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Storage.Driver != "" {
			cfg.StorageDriver = f.Storage.Driver
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
		}
		if f.Funding.FeeRecipient != "" {
			cfg.FeeRecipient = f.Funding.FeeRecipient
		}
	}

	cfg.StorageDriver = strings.ToLower(envOrDefault("STORAGE_DRIVER", cfg.StorageDriver))
	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.FeeRecipient = envOrDefault("FEE_RECIPIENT", cfg.FeeRecipient)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.IdempotencyTTL = time.Duration(envInt("IDEMPOTENCY_TTL_HOURS", int(cfg.IdempotencyTTL.Hours()))) * time.Hour
	cfg.LockTTL = time.Duration(envInt("LOCK_TTL_SECONDS", int(cfg.LockTTL.Seconds()))) * time.Second
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxMaxRetries = envInt("OUTBOX_MAX_RETRIES", cfg.OutboxMaxRetries)

	if cfg.StorageDriver != "memory" && cfg.StorageDriver != "postgres" {
		return Config{}, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
	if cfg.StorageDriver == "postgres" && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("postgres storage driver requires a database url")
	}
	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envCSV(key string, fallback []string) []string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
