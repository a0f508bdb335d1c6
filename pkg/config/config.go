// Package config loads and validates application configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every subsystem this module owns (Analyzer, Codec, Pipeline, Search,
// Kafka, Redis, Logging, Tracing, Metrics).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Codec    CodecConfig    `yaml:"codec"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Search   SearchConfig   `yaml:"search"`
	Logging  LoggingConfig  `yaml:"logging"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds the demo HTTP server's listen and shutdown settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// AnalyzerConfig controls text normalization: language selection for
// stemming and the stopword set.
type AnalyzerConfig struct {
	Language  string   `yaml:"language"`
	Stopwords []string `yaml:"stopwords"`
}

// CodecConfig holds a cap on the block codec's per-value bit width. It is
// loaded with the rest of the config, but no component reads it; the codec
// sizes each block from its largest value.
type CodecConfig struct {
	MaxBlockWidth int `yaml:"maxBlockWidth"`
}

// PipelineConfig controls the corpus-indexing pipeline: chunking,
// batching, and stage concurrency. Named PipelineConfig rather than
// IndexerConfig since "indexer" now names the real-time indexer instead.
type PipelineConfig struct {
	ChunkSize           int      `yaml:"chunkSize"`
	ChunkOverlap        int      `yaml:"chunkOverlap"`
	BatchSize           int      `yaml:"batchSize"`
	Workers             int      `yaml:"workers"`
	DownloadConcurrency int      `yaml:"downloadConcurrency"`
	Reindex             bool     `yaml:"reindex"`
	StopwordsPath       string   `yaml:"stopwordsPath"`
	DataDir             string   `yaml:"dataDir"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	IndexComplete string `yaml:"indexComplete"`
}

// RedisConfig holds Redis connection and query-cache parameters.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// SearchConfig holds the default and maximum top_k applied by the HTTP
// search handler. TimeoutPerShard is loaded but no component reads it.
type SearchConfig struct {
	DefaultTopK     int           `yaml:"defaultTopK"`
	MaxTopK         int           `yaml:"maxTopK"`
	TimeoutPerShard time.Duration `yaml:"timeoutPerShard"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig holds span-tree settings (sample rate, endpoint). It is
// loaded but no component reads it; pkg/tracing takes no configuration.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint"`
	SampleRate float64 `yaml:"sampleRate"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment
// variable overrides. It returns a Config populated with sensible
// defaults for any missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// defaultConfig returns a Config with production-ready defaults for local
// development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Analyzer: AnalyzerConfig{
			Language: "portuguese",
		},
		Codec: CodecConfig{
			MaxBlockWidth: 32,
		},
		Pipeline: PipelineConfig{
			ChunkSize:           1000,
			ChunkOverlap:        100,
			BatchSize:           1000,
			Workers:             4,
			DownloadConcurrency: 8,
			DataDir:             "./data",
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "shelfdex-group",
			Topics: KafkaTopics{
				IndexComplete: "index.flush.completed",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Search: SearchConfig{
			DefaultTopK:     10,
			MaxTopK:         100,
			TimeoutPerShard: 2 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads SP_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SP_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SP_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SP_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SP_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SP_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SP_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("SP_PIPELINE_DATA_DIR"); v != "" {
		cfg.Pipeline.DataDir = v
	}
	if v := os.Getenv("SP_PIPELINE_REINDEX"); v != "" {
		cfg.Pipeline.Reindex = v == "true" || v == "1"
	}
}
