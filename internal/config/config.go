package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port              int              `json:"port"`
	LogConfig         logger.LogConfig `json:"log_config"`
	Database          DatabaseConfig   `json:"database"`
	AI                AIConfig         `json:"ai"`
	Search            SearchConfig     `json:"search"`
	Sync              SyncConfig       `json:"sync"`
	Sources           []SourceConfig   `json:"sources"`
	Archive           ArchiveConfig    `json:"archive"`
	EmbedCache        EmbedCacheConfig `json:"embed_cache"`
	RateLimitWindowMS int              `json:"rate_limit_window_ms"`
	CORSAllowOrigins  []string         `json:"cors_allow_origins"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type AIConfig struct {
	Provider      string      `json:"provider"`
	Model         string      `json:"model"`
	EmbedModel    string      `json:"embed_model"`
	Timeout       int         `json:"timeout"`
	MaxInputChars int         `json:"max_input_chars"`
	Data          interface{} `json:"data"`
}

type SearchConfig struct {
	VectorWeight   float64 `json:"vector_weight"`
	KeywordWeight  float64 `json:"keyword_weight"`
	TopK           int     `json:"top_k"`
	RRFK           int     `json:"rrf_k"`
	TimeoutSeconds int     `json:"timeout_seconds"`
}

type SyncConfig struct {
	ChunkSize        int    `json:"chunk_size"`
	Overlap          int    `json:"overlap"`
	EmbedBatchSize   int    `json:"embed_batch_size"`
	EmbedConcurrency int    `json:"embed_concurrency"`
	BatchDelayMS     int    `json:"batch_delay_ms"`
	Cron             string `json:"cron"`
}

type SourceConfig struct {
	Type string      `json:"type"`
	Name string      `json:"name"`
	Data interface{} `json:"data"`
}

type ArchiveConfig struct {
	Enabled bool            `json:"enabled"`
	Store   FileStoreConfig `json:"store"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type EmbedCacheConfig struct {
	LRUSize       int `json:"lru_size"`
	LRUTTLMinutes int `json:"lru_ttl_minutes"`
	DBTTLDays     int `json:"db_ttl_days"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gemini-2.0-flash"
	}
	if cfg.AI.EmbedModel == "" {
		cfg.AI.EmbedModel = "text-embedding-004"
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 60
	}
	applySearchDefaults(&cfg.Search)
	applySyncDefaults(&cfg.Sync)
	if cfg.EmbedCache.LRUSize == 0 {
		cfg.EmbedCache.LRUSize = 10000
	}
	if cfg.EmbedCache.LRUTTLMinutes == 0 {
		cfg.EmbedCache.LRUTTLMinutes = 120
	}
	if cfg.EmbedCache.DBTTLDays == 0 {
		cfg.EmbedCache.DBTTLDays = 30
	}
	if cfg.Archive.Enabled && cfg.Archive.Store.Type == "" {
		return nil, fmt.Errorf("archive.store.type is required when archive is enabled")
	}
	return &cfg, nil
}

func applySearchDefaults(s *SearchConfig) {
	if s.VectorWeight == 0 && s.KeywordWeight == 0 {
		s.VectorWeight = 0.7
		s.KeywordWeight = 0.3
	}
	if s.TopK == 0 {
		s.TopK = 5
	}
	if s.RRFK == 0 {
		s.RRFK = 60
	}
	if s.TimeoutSeconds == 0 {
		s.TimeoutSeconds = 10
	}
}

func applySyncDefaults(s *SyncConfig) {
	if s.ChunkSize == 0 {
		s.ChunkSize = 1500
	}
	if s.Overlap == 0 {
		s.Overlap = 200
	}
	if s.Overlap >= s.ChunkSize {
		s.Overlap = s.ChunkSize / 4
	}
	if s.EmbedBatchSize == 0 {
		s.EmbedBatchSize = 10
	}
	if s.EmbedConcurrency == 0 {
		s.EmbedConcurrency = 4
	}
	if s.BatchDelayMS == 0 {
		s.BatchDelayMS = 1000
	}
	if s.Cron == "" {
		s.Cron = "0 * * * *"
	}
}
