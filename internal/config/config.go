package config

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"graft"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"graft"`

	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`

	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	EmbedModel   string `envconfig:"EMBED_MODEL" default:"gemini-embedding-001"`
	ChatModel    string `envconfig:"CHAT_MODEL" default:"gemini-2.0-flash"`

	// NSQ is optional; when NSQD_HOST is empty ingest events are not published.
	NSQDHost string `envconfig:"NSQD_HOST"`

	ChunkTargetWords      int `envconfig:"CHUNK_TARGET_WORDS" default:"500"`
	ChunkOverlapSentences int `envconfig:"CHUNK_OVERLAP_SENTENCES" default:"2"`
	RetrieveTopK          int `envconfig:"RETRIEVE_TOP_K" default:"3"`
	SearchResultCount     int `envconfig:"SEARCH_RESULT_COUNT" default:"3"`

	ServerPort    int    `envconfig:"SERVER_PORT" default:"8081"`
	QueryLogPath  string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"file://migrations"`
}

func Load() (*Config, error) {
	// Env vars may be set in the shell instead, so a missing .env is fine.
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
	}
	if c.DBUser == "" {
		return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
	}
	if c.WeaviateHost == "" {
		return fmt.Errorf("%w: WEAVIATE_HOST", ErrMissingRequired)
	}
	if c.ChunkTargetWords <= 0 {
		return fmt.Errorf("%w: CHUNK_TARGET_WORDS must be positive", ErrMissingRequired)
	}
	if c.RetrieveTopK <= 0 {
		return fmt.Errorf("%w: RETRIEVE_TOP_K must be positive", ErrMissingRequired)
	}
	return nil
}
