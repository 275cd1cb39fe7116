package embedcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	c.calls++
	return []float32{float32(len(text))}, nil
}

func (c *countingEmbedder) ModelName() string {
	return "test-embed"
}

func TestLruEmbedderCachesByTextAndTaskType(t *testing.T) {
	next := &countingEmbedder{}
	cached := WrapLruCacheToEmbedder(next, 16, time.Minute)

	first, err := cached.Embed(context.Background(), "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, 1, next.calls)

	second, err := cached.Embed(context.Background(), "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, 1, next.calls, "second identical call must hit the cache")
	require.Equal(t, first, second)

	// a cached value must not alias the slice handed to the caller
	second[0] = -1
	third, err := cached.Embed(context.Background(), "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, first[0], third[0])

	_, err = cached.Embed(context.Background(), "hello", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Equal(t, 2, next.calls, "different task type is a different cache entry")

	_, err = cached.Embed(context.Background(), "other", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, 3, next.calls)
}

func TestWrapLruCacheDisabledPassThrough(t *testing.T) {
	next := &countingEmbedder{}
	require.Equal(t, next, WrapLruCacheToEmbedder(next, 0, time.Minute))
	require.Equal(t, next, WrapLruCacheToEmbedder(next, 16, 0))
}

func TestBuildCacheKey(t *testing.T) {
	key1, hash1, model1 := buildCacheKey("text-embedding-004", "RETRIEVAL_QUERY", "hello")
	key2, hash2, _ := buildCacheKey("text-embedding-004", "RETRIEVAL_QUERY", "hello")
	require.Equal(t, key1, key2)
	require.Equal(t, hash1, hash2)
	require.Equal(t, "text-embedding-004", model1)
	require.Len(t, hash1, 64)

	key3, _, _ := buildCacheKey("text-embedding-004", "RETRIEVAL_DOCUMENT", "hello")
	require.NotEqual(t, key1, key3)

	key4, _, _ := buildCacheKey("text-embedding-004", "RETRIEVAL_QUERY", "world")
	require.NotEqual(t, key1, key4)

	_, _, model2 := buildCacheKey("  ", "RETRIEVAL_QUERY", "hello")
	require.Equal(t, "unknown", model2)
}
