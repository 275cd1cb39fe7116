package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/devbrain-io/devbrain/internal/model"
	appErr "github.com/devbrain-io/devbrain/internal/pkg/errors"
)

const (
	DefaultVectorWeight  = 0.7
	DefaultKeywordWeight = 0.3
	DefaultTopK          = 5
	DefaultRRFK          = 60
	DefaultLegTimeout    = 10 * time.Second
)

type SearchStore interface {
	VectorSearch(ctx context.Context, embedding []float32, limit int) ([]*model.SearchResult, error)
	LexicalSearch(ctx context.Context, queryText string, limit int) ([]*model.SearchResult, error)
}

type QueryEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
}

// SearchService runs the vector and the full-text leg concurrently and fuses
// the two rankings with reciprocal rank fusion. One failed leg degrades the
// result set, both failing is an error.
type SearchService struct {
	store         SearchStore
	embedder      QueryEmbedder
	vectorWeight  float64
	keywordWeight float64
	topK          int
	rrfK          int
	legTimeout    time.Duration
}

type SearchOption func(*SearchService)

func WithWeights(vector, keyword float64) SearchOption {
	return func(s *SearchService) {
		if vector > 0 {
			s.vectorWeight = vector
		}
		if keyword > 0 {
			s.keywordWeight = keyword
		}
	}
}

func WithTopK(topK int) SearchOption {
	return func(s *SearchService) {
		if topK > 0 {
			s.topK = topK
		}
	}
}

func WithRRFK(k int) SearchOption {
	return func(s *SearchService) {
		if k > 0 {
			s.rrfK = k
		}
	}
}

func WithLegTimeout(timeout time.Duration) SearchOption {
	return func(s *SearchService) {
		if timeout > 0 {
			s.legTimeout = timeout
		}
	}
}

func NewSearchService(store SearchStore, embedder QueryEmbedder, opts ...SearchOption) *SearchService {
	s := &SearchService{
		store:         store,
		embedder:      embedder,
		vectorWeight:  DefaultVectorWeight,
		keywordWeight: DefaultKeywordWeight,
		topK:          DefaultTopK,
		rrfK:          DefaultRRFK,
		legTimeout:    DefaultLegTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns the fused topK ranking for query. topK <= 0 falls back to
// the configured default. A failed query embedding is fatal: the keyword leg
// alone cannot honor the configured ranking semantics.
func (s *SearchService) Search(ctx context.Context, query string, topK int) ([]*model.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", appErr.ErrInvalid)
	}
	if topK <= 0 {
		topK = s.topK
	}
	embedding, err := s.embedder.Embed(ctx, query, model.TaskTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// each leg over-fetches so fusion has enough candidates to reorder
	candidates := topK * 2
	var (
		wg                 sync.WaitGroup
		vector, lexical    []*model.SearchResult
		vectorErr, textErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		legCtx, cancel := context.WithTimeout(ctx, s.legTimeout)
		defer cancel()
		vector, vectorErr = s.store.VectorSearch(legCtx, embedding, candidates)
	}()
	go func() {
		defer wg.Done()
		legCtx, cancel := context.WithTimeout(ctx, s.legTimeout)
		defer cancel()
		lexical, textErr = s.store.LexicalSearch(legCtx, query, candidates)
	}()
	wg.Wait()

	if vectorErr != nil && textErr != nil {
		return nil, fmt.Errorf("both search legs failed: vector: %v, keyword: %v", vectorErr, textErr)
	}
	if vectorErr != nil {
		logutil.GetLogger(ctx).Warn("vector search leg failed, keyword results only", zap.Error(vectorErr))
		vector = nil
	}
	if textErr != nil {
		logutil.GetLogger(ctx).Warn("keyword search leg failed, vector results only", zap.Error(textErr))
		lexical = nil
	}

	fused := s.fuse(vector, lexical)
	if len(fused) > topK {
		fused = fused[:topK]
	}
	return fused, nil
}

type fusedResult struct {
	item       *model.SearchResult
	score      float64
	vectorRank int
}

// fuse merges the two per-leg rankings with reciprocal rank fusion: each
// occurrence of a chunk contributes weight/(k+rank+1) with 0-based ranks.
// Ties resolve by better vector rank, then by chunk id.
func (s *SearchService) fuse(vector, lexical []*model.SearchResult) []*model.SearchResult {
	merged := make(map[string]*fusedResult, len(vector)+len(lexical))
	for rank, item := range vector {
		merged[item.ChunkID] = &fusedResult{
			item:       item,
			score:      s.vectorWeight / float64(s.rrfK+rank+1),
			vectorRank: rank,
		}
	}
	for rank, item := range lexical {
		contribution := s.keywordWeight / float64(s.rrfK+rank+1)
		if entry, ok := merged[item.ChunkID]; ok {
			entry.score += contribution
			continue
		}
		merged[item.ChunkID] = &fusedResult{
			item:       item,
			score:      contribution,
			vectorRank: len(vector),
		}
	}
	entries := make([]*fusedResult, 0, len(merged))
	for _, entry := range merged {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		if entries[i].vectorRank != entries[j].vectorRank {
			return entries[i].vectorRank < entries[j].vectorRank
		}
		return entries[i].item.ChunkID < entries[j].item.ChunkID
	})
	results := make([]*model.SearchResult, 0, len(entries))
	for _, entry := range entries {
		item := *entry.item
		item.Score = entry.score
		results = append(results, &item)
	}
	return results
}
