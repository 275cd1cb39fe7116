package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devbrain-io/devbrain/internal/model"
)

type fakeSearcher struct {
	results []*model.SearchResult
	err     error
	query   string
}

func (f *fakeSearcher) Search(ctx context.Context, query string, topK int) ([]*model.SearchResult, error) {
	f.query = query
	return f.results, f.err
}

type fakeGenerator struct {
	prompt string
	answer string
	calls  int
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.answer, nil
}

func (f *fakeGenerator) GenerateStream(ctx context.Context, prompt string, onDelta func(string) error) error {
	f.calls++
	f.prompt = prompt
	for _, piece := range []string{"part one, ", "part two"} {
		if err := onDelta(piece); err != nil {
			return err
		}
	}
	return nil
}

func TestChatSyncBuildsPromptFromResults(t *testing.T) {
	searcher := &fakeSearcher{results: []*model.SearchResult{
		{ChunkID: "c1", Content: "[file=a.go] [symbol=Run]\nfunc Run() {}"},
		{ChunkID: "c2", Content: "[file=b.md]\nusage notes"},
	}}
	generator := &fakeGenerator{answer: "generated answer"}
	svc := NewChatService(searcher, generator, 0, 0)

	answer, sources, err := svc.ChatSync(context.Background(), "how do I run it")
	require.NoError(t, err)
	require.Equal(t, "generated answer", answer)
	require.Len(t, sources, 2)
	require.Equal(t, "how do I run it", searcher.query)
	require.Contains(t, generator.prompt, "func Run() {}")
	require.Contains(t, generator.prompt, "usage notes")
	require.Contains(t, generator.prompt, "how do I run it")
}

func TestChatSyncEmptyResultsSkipsGeneration(t *testing.T) {
	searcher := &fakeSearcher{}
	generator := &fakeGenerator{}
	svc := NewChatService(searcher, generator, 0, 0)

	answer, sources, err := svc.ChatSync(context.Background(), "anything")
	require.NoError(t, err)
	require.Equal(t, emptyContextAnswer, answer)
	require.Empty(t, sources)
	require.Zero(t, generator.calls, "no model call without retrieved context")
}

func TestChatStreamsDeltas(t *testing.T) {
	searcher := &fakeSearcher{results: []*model.SearchResult{
		{ChunkID: "c1", Content: "[file=a.go]\nsome code"},
	}}
	generator := &fakeGenerator{}
	svc := NewChatService(searcher, generator, 0, 0)

	var sb strings.Builder
	sources, err := svc.Chat(context.Background(), "question", func(delta string) error {
		sb.WriteString(delta)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, sources, 1)
	require.Equal(t, "part one, part two", sb.String())
}

func TestChatStreamsFallbackOnEmptyResults(t *testing.T) {
	svc := NewChatService(&fakeSearcher{}, &fakeGenerator{}, 0, 0)

	var sb strings.Builder
	sources, err := svc.Chat(context.Background(), "question", func(delta string) error {
		sb.WriteString(delta)
		return nil
	})
	require.NoError(t, err)
	require.Empty(t, sources)
	require.Equal(t, emptyContextAnswer, sb.String())
}
