package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL      string `envconfig:"DATABASE_URL" required:"true"`
	DatabaseMaxConns int32  `envconfig:"DATABASE_MAX_CONNS" default:"10"`

	// OpenAI-compatible backend; defaults target a local Ollama server
	LLMBaseURL          string        `envconfig:"LLM_BASE_URL" default:"http://localhost:11434/v1"`
	LLMAPIKey           string        `envconfig:"LLM_API_KEY"`
	EmbeddingModel      string        `envconfig:"EMBEDDING_MODEL" default:"all-minilm"`
	EmbeddingDimensions int           `envconfig:"EMBEDDING_DIMENSIONS" default:"384"`
	ChatModel           string        `envconfig:"CHAT_MODEL" default:"llama3"`
	GenerationTimeout   time.Duration `envconfig:"GENERATION_TIMEOUT" default:"60s"`

	ChunkSize    int `envconfig:"CHUNK_SIZE" default:"1000"`
	ChunkOverlap int `envconfig:"CHUNK_OVERLAP" default:"200"`

	StrictThreshold  float64 `envconfig:"STRICT_THRESHOLD" default:"0.8"`
	RelaxedThreshold float64 `envconfig:"RELAXED_THRESHOLD" default:"1.0"`
	RetrievalLimit   int     `envconfig:"RETRIEVAL_LIMIT" default:"15"`

	IndexPollInterval time.Duration `envconfig:"INDEX_POLL_INTERVAL" default:"10s"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"notesqa-notes"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("NOTESQA", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// Validate checks values envconfig cannot express as tags.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("NOTESQA_CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("NOTESQA_CHUNK_OVERLAP must be in [0, %d), got %d", c.ChunkSize, c.ChunkOverlap)
	}
	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("NOTESQA_EMBEDDING_DIMENSIONS must be positive, got %d", c.EmbeddingDimensions)
	}
	if c.StrictThreshold <= 0 || c.RelaxedThreshold < c.StrictThreshold {
		return fmt.Errorf("thresholds must satisfy 0 < strict (%.2f) <= relaxed (%.2f)", c.StrictThreshold, c.RelaxedThreshold)
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("NOTESQA_GENERATION_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}
