package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/devbrain-io/devbrain/internal/chunker"
	"github.com/devbrain-io/devbrain/internal/fetcher"
	"github.com/devbrain-io/devbrain/internal/filestore"
	"github.com/devbrain-io/devbrain/internal/model"
	appErr "github.com/devbrain-io/devbrain/internal/pkg/errors"
)

type DocumentStore interface {
	Upsert(ctx context.Context, doc *model.Document) (int64, error)
	GetByURL(ctx context.Context, sourceURL string) (*model.Document, error)
	MarkIndexed(ctx context.Context, id int64, title, contentHash string) error
}

type ChunkStore interface {
	InsertChunks(ctx context.Context, chunks []*model.Chunk) error
	DeleteByDocument(ctx context.Context, documentID int64) error
}

type Embedder interface {
	EmbedMany(ctx context.Context, texts []string, taskType string) ([][]float32, error)
}

type Splitter interface {
	Split(content, filePath, language string) []model.Fragment
}

// SyncService re-indexes configured sources incrementally: a file whose
// content hash matches the stored document is skipped, everything else is
// re-chunked and re-embedded. One broken file never aborts a run.
type SyncService struct {
	docs     DocumentStore
	chunks   ChunkStore
	embedder Embedder
	splitter Splitter
	archive  filestore.Store
	fetchers []fetcher.Fetcher
}

func NewSyncService(docs DocumentStore, chunks ChunkStore, embedder Embedder, splitter Splitter, opts ...SyncOption) *SyncService {
	s := &SyncService{
		docs:     docs,
		chunks:   chunks,
		embedder: embedder,
		splitter: splitter,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type SyncOption func(*SyncService)

func WithFetchers(fetchers []fetcher.Fetcher) SyncOption {
	return func(s *SyncService) {
		s.fetchers = fetchers
	}
}

// WithArchive stores a copy of every fetched file alongside the index.
func WithArchive(store filestore.Store) SyncOption {
	return func(s *SyncService) {
		s.archive = store
	}
}

// SyncAll runs Sync over every configured fetcher and merges the counters.
// A source whose listing fails is counted as one error, the rest still run.
func (s *SyncService) SyncAll(ctx context.Context) (*model.SyncStats, error) {
	total := &model.SyncStats{}
	for _, f := range s.fetchers {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		stats, err := s.Sync(ctx, f)
		if stats != nil {
			total.Added += stats.Added
			total.Updated += stats.Updated
			total.Skipped += stats.Skipped
			total.Errored += stats.Errored
		}
		if err != nil {
			if ctx.Err() != nil {
				return total, err
			}
			logutil.GetLogger(ctx).Error("source sync failed",
				zap.String("source", f.Name()), zap.Error(err))
			total.Errored++
		}
	}
	return total, nil
}

func (s *SyncService) Sync(ctx context.Context, f fetcher.Fetcher) (*model.SyncStats, error) {
	start := time.Now()
	files, err := f.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list files of %s: %w", f.Name(), err)
	}
	// deterministic processing order
	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	stats := &model.SyncStats{}
	for i := range files {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		state, err := s.syncFile(ctx, f, &files[i])
		if err != nil {
			logutil.GetLogger(ctx).Warn("failed to sync file",
				zap.String("source", f.Name()),
				zap.String("path", files[i].Path),
				zap.Error(err))
			stats.Errored++
			continue
		}
		switch state {
		case fileAdded:
			stats.Added++
		case fileUpdated:
			stats.Updated++
		case fileSkipped:
			stats.Skipped++
		}
	}
	logutil.GetLogger(ctx).Info("source sync finished",
		zap.String("source", f.Name()),
		zap.Int("added", stats.Added),
		zap.Int("updated", stats.Updated),
		zap.Int("skipped", stats.Skipped),
		zap.Int("errored", stats.Errored),
		zap.Duration("cost", time.Since(start)))
	return stats, nil
}

type fileState int

const (
	fileSkipped fileState = iota
	fileAdded
	fileUpdated
)

func (s *SyncService) syncFile(ctx context.Context, f fetcher.Fetcher, file *fetcher.SourceFile) (fileState, error) {
	sourceURL := f.FileURL(file.Path)
	contentHash := hashContent(file.Content)

	existing, err := s.docs.GetByURL(ctx, sourceURL)
	if err != nil && !appErr.IsNotFound(err) {
		return fileSkipped, err
	}
	state := fileAdded
	var documentID int64
	switch {
	case existing == nil:
		documentID, err = s.docs.Upsert(ctx, &model.Document{
			SourceType: f.SourceType(),
			SourceURL:  sourceURL,
			Title:      documentTitle(file),
		})
		if err != nil {
			return fileSkipped, err
		}
	case existing.ContentHash == contentHash:
		return fileSkipped, nil
	default:
		state = fileUpdated
		documentID = existing.ID
	}

	chunks, err := s.buildChunks(ctx, documentID, file)
	if err != nil {
		return state, err
	}
	// old generation goes first so a given chunk index never appears twice
	if err := s.chunks.DeleteByDocument(ctx, documentID); err != nil {
		return state, err
	}
	if err := s.chunks.InsertChunks(ctx, chunks); err != nil {
		return state, err
	}
	// the hash lands last: a run that dies mid-way is redone next sync
	if err := s.docs.MarkIndexed(ctx, documentID, documentTitle(file), contentHash); err != nil {
		return state, err
	}
	s.archiveFile(ctx, f, file)
	return state, nil
}

func (s *SyncService) buildChunks(ctx context.Context, documentID int64, file *fetcher.SourceFile) ([]*model.Chunk, error) {
	language := chunker.LanguageForPath(file.Path)
	fragments := s.splitter.Split(file.Content, file.Path, language)
	if len(fragments) == 0 {
		return nil, nil
	}
	texts := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		texts = append(texts, fragment.Content)
	}
	embeddings, err := s.embedder.EmbedMany(ctx, texts, model.TaskTypeDocument)
	if err != nil {
		return nil, fmt.Errorf("embed %d fragments: %w", len(texts), err)
	}
	chunks := make([]*model.Chunk, 0, len(fragments))
	for i, fragment := range fragments {
		chunks = append(chunks, &model.Chunk{
			ID:         uuid.NewString(),
			DocumentID: documentID,
			ChunkIndex: fragment.Index,
			Content:    fragment.Content,
			Metadata:   fragment.Metadata,
			Embedding:  embeddings[i],
		})
	}
	return chunks, nil
}

// archiveFile is best effort: archive failures never fail the sync.
func (s *SyncService) archiveFile(ctx context.Context, f fetcher.Fetcher, file *fetcher.SourceFile) {
	if s.archive == nil {
		return
	}
	key := path.Join(f.SourceType(), f.Name(), file.Path)
	r := &stringReadSeekCloser{Reader: strings.NewReader(file.Content)}
	if err := s.archive.Save(ctx, key, r, int64(len(file.Content))); err != nil {
		logutil.GetLogger(ctx).Warn("failed to archive file",
			zap.String("key", key), zap.Error(err))
	}
}

type stringReadSeekCloser struct {
	*strings.Reader
}

func (s *stringReadSeekCloser) Close() error {
	return nil
}

func documentTitle(file *fetcher.SourceFile) string {
	if chunker.LanguageForPath(file.Path) == "markdown" {
		if title := chunker.ExtractTitle(file.Content); title != "" {
			return title
		}
	}
	return path.Base(file.Path)
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
