// Package config loads service configuration from environment variables
// and the model bundle configuration from its YAML file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full service configuration.
type Config struct {
	Service    ServiceConfig
	Model      ModelRef
	Transcribe TranscribeDefaults
	Kafka      KafkaConfig
	Redis      RedisConfig
	LogLevel   string
}

// ServiceConfig holds the listen addresses.
type ServiceConfig struct {
	Principal   string
	HTTPPort    string
	GRPCPort    string
	MetricsPort string
}

// ModelRef points at the model bundle on disk.
type ModelRef struct {
	Dir     string
	Backend string // "stub" until a real runtime backend is wired
}

// TranscribeDefaults are applied when a request leaves a field unset.
type TranscribeDefaults struct {
	Language       string
	Textnorm       string
	BatchSize      int
	SortByDuration bool
	NumWorkers     int
}

// KafkaConfig holds result publishing configuration.
type KafkaConfig struct {
	Enabled   bool
	Brokers   []string
	Topic     string
	Principal string
}

// RedisConfig holds the optional result cache configuration.
type RedisConfig struct {
	Enabled bool
	Addr    string
	Prefix  string
	TTL     time.Duration
}

// Load reads configuration from the environment, applying defaults.
func Load() *Config {
	return &Config{
		Service: ServiceConfig{
			Principal:   envOrDefault("SERVICE_PRINCIPAL", "svc-batch-transcription"),
			HTTPPort:    envOrDefault("HTTP_PORT", "8080"),
			GRPCPort:    envOrDefault("GRPC_PORT", "50051"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
		Model: ModelRef{
			Dir:     envOrDefault("MODEL_DIR", "models/sense-voice-small"),
			Backend: envOrDefault("MODEL_BACKEND", "stub"),
		},
		Transcribe: TranscribeDefaults{
			Language:       envOrDefault("DEFAULT_LANGUAGE", "auto"),
			Textnorm:       envOrDefault("DEFAULT_TEXTNORM", "woitn"),
			BatchSize:      envInt("DEFAULT_BATCH_SIZE", 4),
			SortByDuration: envBool("SORT_BY_DURATION", true),
			NumWorkers:     envInt("NUM_WORKERS", 0),
		},
		Kafka: KafkaConfig{
			Enabled:   envBool("KAFKA_ENABLED", false),
			Brokers:   envList("KAFKA_BROKERS", nil),
			Topic:     envOrDefault("KAFKA_TOPIC_RESULTS", "transcription.results"),
			Principal: envOrDefault("SERVICE_PRINCIPAL", "svc-batch-transcription"),
		},
		Redis: RedisConfig{
			Enabled: envBool("REDIS_ENABLED", false),
			Addr:    envOrDefault("REDIS_ADDR", "localhost:6379"),
			Prefix:  envOrDefault("REDIS_PREFIX", "transcribe:"),
			TTL:     envDuration("REDIS_TTL", 24*time.Hour),
		},
		LogLevel: envOrDefault("LOG_LEVEL", "info"),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
