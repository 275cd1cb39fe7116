package fetcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/devbrain-io/devbrain/internal/model"
)

type localConfig struct {
	Dir     string   `json:"dir"`
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`
}

type localFetcher struct {
	name   string
	config *localConfig
}

func init() {
	Register(model.SourceTypeLocal, createLocalFetcher)
}

func createLocalFetcher(name string, args interface{}) (Fetcher, error) {
	config := &localConfig{}
	if err := decodeConfig(args, config); err != nil {
		return nil, err
	}
	if config.Dir == "" {
		return nil, fmt.Errorf("local source dir is required")
	}
	return &localFetcher{name: name, config: config}, nil
}

func (f *localFetcher) Name() string {
	return f.name
}

func (f *localFetcher) SourceType() string {
	return model.SourceTypeLocal
}

func (f *localFetcher) ListFiles(ctx context.Context) ([]SourceFile, error) {
	root, err := filepath.Abs(f.config.Dir)
	if err != nil {
		return nil, err
	}
	var files []SourceFile
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		name := d.Name()
		if d.IsDir() {
			if name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if isBinaryPath(rel) || !matchPath(rel, f.config.Include, f.config.Exclude) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > maxBlobSize {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if !isTextContent(data) {
			return nil
		}
		files = append(files, SourceFile{Path: rel, Content: string(data)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (f *localFetcher) FileURL(path string) string {
	abs, err := filepath.Abs(f.config.Dir)
	if err != nil {
		abs = f.config.Dir
	}
	return "file://" + filepath.ToSlash(filepath.Join(abs, filepath.FromSlash(path)))
}
