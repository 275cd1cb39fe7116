package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/devbrain-io/devbrain/internal/config"
)

// SourceFile is one indexable text file pulled from a source. Path is
// slash-separated and unique within the source.
type SourceFile struct {
	Path    string
	Content string
}

// Fetcher enumerates the current contents of one configured source.
type Fetcher interface {
	Name() string
	SourceType() string
	ListFiles(ctx context.Context) ([]SourceFile, error)
	FileURL(path string) string
}

type Factory func(name string, args interface{}) (Fetcher, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(sourceType string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(sourceType))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(cfg config.SourceConfig) (Fetcher, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("source.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported source type: %s", cfg.Type)
	}
	return factory(cfg.Name, cfg.Data)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("source config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode source config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode source config: %w", err)
	}
	return nil
}
