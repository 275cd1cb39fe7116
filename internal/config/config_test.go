package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"database": {"host": "localhost", "user": "devbrain", "dbname": "devbrain"},
		"ai": {"provider": "gemini", "data": {"api_key": "k"}}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "gemini-2.0-flash", cfg.AI.Model)
	require.Equal(t, "text-embedding-004", cfg.AI.EmbedModel)
	require.Equal(t, 0.7, cfg.Search.VectorWeight)
	require.Equal(t, 0.3, cfg.Search.KeywordWeight)
	require.Equal(t, 5, cfg.Search.TopK)
	require.Equal(t, 60, cfg.Search.RRFK)
	require.Equal(t, 10, cfg.Search.TimeoutSeconds)
	require.Equal(t, 1500, cfg.Sync.ChunkSize)
	require.Equal(t, 200, cfg.Sync.Overlap)
	require.Equal(t, 10, cfg.Sync.EmbedBatchSize)
	require.Equal(t, 4, cfg.Sync.EmbedConcurrency)
	require.Equal(t, "0 * * * *", cfg.Sync.Cron)
	require.Equal(t, 30, cfg.EmbedCache.DBTTLDays)
	require.Equal(t, "info", cfg.LogConfig.Level)
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	path := writeConfig(t, `{
		"port": 9000,
		"database": {"dsn": "postgres://u:p@h/db"},
		"ai": {"provider": "openai", "model": "gpt-4o-mini", "embed_model": "text-embedding-3-small"},
		"search": {"vector_weight": 0.6, "keyword_weight": 0.4, "top_k": 8},
		"sync": {"chunk_size": 800, "overlap": 100}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	require.Equal(t, 0.6, cfg.Search.VectorWeight)
	require.Equal(t, 0.4, cfg.Search.KeywordWeight)
	require.Equal(t, 8, cfg.Search.TopK)
	require.Equal(t, 800, cfg.Sync.ChunkSize)
	require.Equal(t, 100, cfg.Sync.Overlap)
}

func TestLoadClampsOverlap(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"database": {"host": "h"},
		"ai": {"provider": "gemini"},
		"sync": {"chunk_size": 100, "overlap": 100}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 25, cfg.Sync.Overlap)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "missing port", content: `{"database": {"host": "h"}, "ai": {"provider": "gemini"}}`},
		{name: "missing database", content: `{"port": 8080, "ai": {"provider": "gemini"}}`},
		{name: "missing provider", content: `{"port": 8080, "database": {"host": "h"}}`},
		{name: "archive without store", content: `{"port": 8080, "database": {"host": "h"}, "ai": {"provider": "gemini"}, "archive": {"enabled": true}}`},
		{name: "broken json", content: `{"port": `},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}
