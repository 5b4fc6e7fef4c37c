package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sheorananshul/contract-analyzer/internal/models"
)

// Config is the application configuration, loaded from a YAML file with
// environment variable overrides.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	VectorDB  VectorDBConfig  `mapstructure:"vectordb"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Chunker   ChunkerConfig   `mapstructure:"chunker"`
	Retriever RetrieverConfig `mapstructure:"retriever"`
	Scorer    ScorerConfig    `mapstructure:"scorer"`
	Evidence  EvidenceConfig  `mapstructure:"evidence"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig is the HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Address returns the host:port listen address.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig is the relational store configuration.
type DatabaseConfig struct {
	Type string `mapstructure:"type"` // sqlite
	DSN  string `mapstructure:"dsn"`
}

// StorageConfig is the contract blob store configuration.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // local or minio
	Path      string `mapstructure:"path"` // local base directory
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
}

// VectorDBConfig is the vector index configuration.
type VectorDBConfig struct {
	Type     string `mapstructure:"type"` // memory or faiss
	Path     string `mapstructure:"path"` // on-disk index path
	Distance string `mapstructure:"distance"`
}

// EmbeddingConfig is the embedding client configuration.
type EmbeddingConfig struct {
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`
	Model       string `mapstructure:"model"`
	Dimensions  int    `mapstructure:"dimensions"`
	BatchSize   int    `mapstructure:"batch_size"`
	MaxWorkers  int    `mapstructure:"max_workers"`
	MaxRetries  int    `mapstructure:"max_retries"`
	TimeoutSecs int    `mapstructure:"timeout_seconds"`
	EnableCache bool   `mapstructure:"enable_cache"`
}

// LLMConfig is the evaluation model configuration.
type LLMConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
	MaxRetries  int     `mapstructure:"max_retries"`
	TimeoutSecs int     `mapstructure:"timeout_seconds"`
}

// ChunkerConfig is the document chunking policy.
type ChunkerConfig struct {
	MinTokens     int `mapstructure:"min_tokens"`
	MaxTokens     int `mapstructure:"max_tokens"`
	OverlapTokens int `mapstructure:"overlap_tokens"`
}

// RetrieverConfig is the evidence retrieval policy.
type RetrieverConfig struct {
	TopK            int     `mapstructure:"top_k"`
	SimilarityFloor float64 `mapstructure:"similarity_floor"`
	DedupRatio      float64 `mapstructure:"dedup_ratio"`
}

// ScorerConfig is the confidence scoring policy. Zero values fall back
// to the defaults, so a config file only names the weights it changes.
type ScorerConfig struct {
	Cap                  float64 `mapstructure:"cap"`
	Similarity           float64 `mapstructure:"similarity"`
	Coverage             float64 `mapstructure:"coverage"`
	Diversity            float64 `mapstructure:"diversity"`
	Agreement            float64 `mapstructure:"agreement"`
	ContradictionPenalty float64 `mapstructure:"contradiction_penalty"`
	InsufficientCeiling  float64 `mapstructure:"insufficient_ceiling"`
	ModerateThreshold    float64 `mapstructure:"moderate_threshold"`
	HighThreshold        float64 `mapstructure:"high_threshold"`
	MinEvidenceTokens    int     `mapstructure:"min_evidence_tokens"`
}

// EvidenceConfig is the span aggregation policy.
type EvidenceConfig struct {
	ProximityWindow int `mapstructure:"proximity_window"`
}

// CacheConfig is the embedding cache configuration.
type CacheConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Type     string `mapstructure:"type"` // memory or redis
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTLSecs  int    `mapstructure:"ttl_seconds"`
}

// QueueConfig is the background task queue configuration.
type QueueConfig struct {
	Enable        bool   `mapstructure:"enable"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	Concurrency   int    `mapstructure:"concurrency"`
	RetryLimit    int    `mapstructure:"retry_limit"`
	RetryDelay    int    `mapstructure:"retry_delay_seconds"`
}

// AnalysisConfig is the run execution policy.
type AnalysisConfig struct {
	Concurrency int `mapstructure:"concurrency"` // parallel requirement evaluations per run
}

// LogConfig is the logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"` // empty logs to stdout only
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Load reads the configuration file, applies defaults and environment
// overrides, and validates the result. A missing file is not an error;
// the defaults describe a working local deployment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	// CONTRACT_ANALYZER_LLM_API_KEY overrides llm.api_key, and so on
	v.SetEnvPrefix("contract_analyzer")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values no component can accept.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return models.NewConfigurationError("server.port", "must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Database.Type != "sqlite" {
		return models.NewConfigurationError("database.type", "unsupported type %q", c.Database.Type)
	}
	switch c.Storage.Type {
	case "local", "minio":
	default:
		return models.NewConfigurationError("storage.type", "unsupported type %q", c.Storage.Type)
	}
	switch c.VectorDB.Type {
	case "memory", "faiss":
	default:
		return models.NewConfigurationError("vectordb.type", "unsupported type %q", c.VectorDB.Type)
	}
	if c.Embedding.Dimensions <= 0 {
		return models.NewConfigurationError("embedding.dimensions", "must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Queue.Enable && c.Queue.RedisAddr == "" {
		return models.NewConfigurationError("queue.redis_addr", "required when the queue is enabled")
	}
	return nil
}

// EmbeddingTimeout returns the embedding request timeout.
func (c EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// Timeout returns the model request timeout.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSecs) * time.Second
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "data/analyzer.db")

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.path", "./data/contracts")
	v.SetDefault("storage.bucket", "contracts")
	v.SetDefault("storage.use_ssl", false)

	v.SetDefault("vectordb.type", "memory")
	v.SetDefault("vectordb.path", "./data/index")
	v.SetDefault("vectordb.distance", "cosine")

	v.SetDefault("embedding.base_url", "https://api.openai.com/v1")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.dimensions", 1536)
	v.SetDefault("embedding.batch_size", 16)
	v.SetDefault("embedding.max_workers", 4)
	v.SetDefault("embedding.max_retries", 3)
	v.SetDefault("embedding.timeout_seconds", 30)
	v.SetDefault("embedding.enable_cache", true)

	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.temperature", 0)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.timeout_seconds", 60)

	v.SetDefault("chunker.min_tokens", 40)
	v.SetDefault("chunker.max_tokens", 400)
	v.SetDefault("chunker.overlap_tokens", 80)

	v.SetDefault("retriever.top_k", 12)
	v.SetDefault("retriever.similarity_floor", 0.25)
	v.SetDefault("retriever.dedup_ratio", 0.8)

	v.SetDefault("scorer.cap", 0.97)
	v.SetDefault("scorer.similarity", 0.35)
	v.SetDefault("scorer.coverage", 0.25)
	v.SetDefault("scorer.diversity", 0.15)
	v.SetDefault("scorer.agreement", 0.10)
	v.SetDefault("scorer.contradiction_penalty", 0.6)
	v.SetDefault("scorer.insufficient_ceiling", 0.30)
	v.SetDefault("scorer.moderate_threshold", 0.55)
	v.SetDefault("scorer.high_threshold", 0.80)
	v.SetDefault("scorer.min_evidence_tokens", 5)

	v.SetDefault("evidence.proximity_window", 120)

	v.SetDefault("cache.enable", true)
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl_seconds", 86400)

	v.SetDefault("queue.enable", false)
	v.SetDefault("queue.redis_addr", "localhost:6379")
	v.SetDefault("queue.redis_db", 0)
	v.SetDefault("queue.concurrency", 5)
	v.SetDefault("queue.retry_limit", 3)
	v.SetDefault("queue.retry_delay_seconds", 60)

	v.SetDefault("analysis.concurrency", 4)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}
