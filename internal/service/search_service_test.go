package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devbrain-io/devbrain/internal/model"
)

type fakeSearchStore struct {
	vector     []*model.SearchResult
	lexical    []*model.SearchResult
	vectorErr  error
	lexicalErr error
}

func (f *fakeSearchStore) VectorSearch(ctx context.Context, embedding []float32, limit int) ([]*model.SearchResult, error) {
	return f.vector, f.vectorErr
}

func (f *fakeSearchStore) LexicalSearch(ctx context.Context, queryText string, limit int) ([]*model.SearchResult, error) {
	return f.lexical, f.lexicalErr
}

type fakeQueryEmbedder struct {
	err      error
	taskType string
}

func (f *fakeQueryEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	f.taskType = taskType
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

func result(chunkID string) *model.SearchResult {
	return &model.SearchResult{ChunkID: chunkID, DocumentID: 1, Content: "content " + chunkID}
}

func chunkIDs(results []*model.SearchResult) []string {
	ids := make([]string, 0, len(results))
	for _, item := range results {
		ids = append(ids, item.ChunkID)
	}
	return ids
}

func TestSearchFusesBothLegs(t *testing.T) {
	store := &fakeSearchStore{
		vector:  []*model.SearchResult{result("A"), result("B"), result("C")},
		lexical: []*model.SearchResult{result("D"), result("A"), result("E")},
	}
	embedder := &fakeQueryEmbedder{}
	svc := NewSearchService(store, embedder, WithWeights(0.7, 0.3), WithRRFK(60))

	results, err := svc.Search(context.Background(), "query", 5)
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B", "C", "D", "E"}, chunkIDs(results))
	require.Equal(t, model.TaskTypeQuery, embedder.taskType)

	require.InDelta(t, 0.7/61+0.3/62, results[0].Score, 1e-9)
	require.InDelta(t, 0.7/62, results[1].Score, 1e-9)
	require.InDelta(t, 0.7/63, results[2].Score, 1e-9)
	require.InDelta(t, 0.3/61, results[3].Score, 1e-9)
	require.InDelta(t, 0.3/63, results[4].Score, 1e-9)
}

func TestSearchTopKTruncation(t *testing.T) {
	store := &fakeSearchStore{
		vector:  []*model.SearchResult{result("A"), result("B"), result("C")},
		lexical: []*model.SearchResult{result("D"), result("A"), result("E")},
	}
	svc := NewSearchService(store, &fakeQueryEmbedder{})

	results, err := svc.Search(context.Background(), "query", 2)
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B"}, chunkIDs(results))
}

func TestSearchTieBreakPrefersVectorRank(t *testing.T) {
	// equal weights and equal ranks produce an exact score tie between a
	// vector-only and a lexical-only candidate
	store := &fakeSearchStore{
		vector:  []*model.SearchResult{result("V")},
		lexical: []*model.SearchResult{result("L")},
	}
	svc := NewSearchService(store, &fakeQueryEmbedder{}, WithWeights(0.5, 0.5))

	results, err := svc.Search(context.Background(), "query", 5)
	require.NoError(t, err)
	require.Equal(t, []string{"V", "L"}, chunkIDs(results))
	require.Equal(t, results[0].Score, results[1].Score)
}

func TestSearchBothLegsEmpty(t *testing.T) {
	svc := NewSearchService(&fakeSearchStore{}, &fakeQueryEmbedder{})
	results, err := svc.Search(context.Background(), "query", 5)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestSearchDegradesOnSingleLegFailure(t *testing.T) {
	store := &fakeSearchStore{
		vectorErr: errors.New("index offline"),
		lexical:   []*model.SearchResult{result("D"), result("E")},
	}
	svc := NewSearchService(store, &fakeQueryEmbedder{})

	results, err := svc.Search(context.Background(), "query", 5)
	require.NoError(t, err)
	require.Equal(t, []string{"D", "E"}, chunkIDs(results))
}

func TestSearchFailsWhenBothLegsFail(t *testing.T) {
	store := &fakeSearchStore{
		vectorErr:  errors.New("index offline"),
		lexicalErr: errors.New("fts offline"),
	}
	svc := NewSearchService(store, &fakeQueryEmbedder{}, WithLegTimeout(time.Second))

	_, err := svc.Search(context.Background(), "query", 5)
	require.Error(t, err)
}

func TestSearchFailsOnEmbedError(t *testing.T) {
	store := &fakeSearchStore{
		lexical: []*model.SearchResult{result("D")},
	}
	svc := NewSearchService(store, &fakeQueryEmbedder{err: errors.New("quota exhausted")})

	_, err := svc.Search(context.Background(), "query", 5)
	require.Error(t, err)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	svc := NewSearchService(&fakeSearchStore{}, &fakeQueryEmbedder{})
	_, err := svc.Search(context.Background(), "   ", 5)
	require.Error(t, err)
}
