package fetcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	gh "github.com/google/go-github/v74/github"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/devbrain-io/devbrain/internal/model"
)

const maxBlobSize = 1 << 20

type githubConfig struct {
	Owner   string   `json:"owner"`
	Repo    string   `json:"repo"`
	Ref     string   `json:"ref"`
	Token   string   `json:"token"`
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`
}

type githubFetcher struct {
	name    string
	client  *gh.Client
	limiter *rate.Limiter
	config  *githubConfig
}

func init() {
	Register(model.SourceTypeRepository, createGithubFetcher)
}

func createGithubFetcher(name string, args interface{}) (Fetcher, error) {
	config := &githubConfig{}
	if err := decodeConfig(args, config); err != nil {
		return nil, err
	}
	if config.Owner == "" || config.Repo == "" {
		return nil, fmt.Errorf("repository owner/repo are required")
	}
	client := gh.NewClient(nil)
	if config.Token != "" {
		client = client.WithAuthToken(config.Token)
	}
	return &githubFetcher{
		name:   name,
		client: client,
		// unauthenticated github allows 60 req/h, authenticated 5000/h;
		// pace well under the latter
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		config:  config,
	}, nil
}

func (f *githubFetcher) Name() string {
	return f.name
}

func (f *githubFetcher) SourceType() string {
	return model.SourceTypeRepository
}

func (f *githubFetcher) ListFiles(ctx context.Context) ([]SourceFile, error) {
	ref, err := f.resolveRef(ctx)
	if err != nil {
		return nil, err
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	tree, _, err := f.client.Git.GetTree(ctx, f.config.Owner, f.config.Repo, ref, true)
	if err != nil {
		return nil, fmt.Errorf("get tree %s/%s@%s: %w", f.config.Owner, f.config.Repo, ref, err)
	}
	if tree.GetTruncated() {
		logutil.GetLogger(ctx).Warn("github tree truncated, large files beyond the cap are skipped",
			zap.String("source", f.name))
	}
	files := make([]SourceFile, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		path := entry.GetPath()
		if isBinaryPath(path) || !matchPath(path, f.config.Include, f.config.Exclude) {
			continue
		}
		if entry.GetSize() > maxBlobSize {
			continue
		}
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		content, _, err := f.client.Git.GetBlobRaw(ctx, f.config.Owner, f.config.Repo, entry.GetSHA())
		if err != nil {
			return nil, fmt.Errorf("get blob %s: %w", path, err)
		}
		if !isTextContent(content) {
			continue
		}
		files = append(files, SourceFile{Path: path, Content: string(content)})
	}
	return files, nil
}

func (f *githubFetcher) FileURL(path string) string {
	ref := f.config.Ref
	if ref == "" {
		ref = "HEAD"
	}
	return fmt.Sprintf("https://github.com/%s/%s/blob/%s/%s",
		f.config.Owner, f.config.Repo, ref, strings.TrimPrefix(path, "/"))
}

func (f *githubFetcher) resolveRef(ctx context.Context) (string, error) {
	if f.config.Ref != "" {
		return f.config.Ref, nil
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}
	repo, _, err := f.client.Repositories.Get(ctx, f.config.Owner, f.config.Repo)
	if err != nil {
		return "", fmt.Errorf("get repo %s/%s: %w", f.config.Owner, f.config.Repo, err)
	}
	return repo.GetDefaultBranch(), nil
}
