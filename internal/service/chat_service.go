package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/devbrain-io/devbrain/internal/ai"
	"github.com/devbrain-io/devbrain/internal/model"
)

const emptyContextAnswer = "I could not find anything relevant in the indexed sources for that question."

const chatPromptTemplate = `You are a technical assistant answering questions about an internal codebase and its documentation.
Answer using ONLY the context below. If the context does not contain the answer, say so plainly.
Cite the file paths you used. Keep answers concise and include code snippets where they help.

Context:
%s

Question: %s`

type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]*model.SearchResult, error)
}

// ChatService answers a question over the index: retrieve, assemble context,
// generate. The retrieved chunks are returned alongside the answer so
// callers can render sources.
type ChatService struct {
	searcher      Searcher
	generator     ai.IGenerator
	maxInputChars int
	timeout       time.Duration
}

func NewChatService(searcher Searcher, generator ai.IGenerator, maxInputChars int, timeoutSeconds int) *ChatService {
	if maxInputChars <= 0 {
		maxInputChars = 100000
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 60
	}
	return &ChatService{
		searcher:      searcher,
		generator:     generator,
		maxInputChars: maxInputChars,
		timeout:       time.Duration(timeoutSeconds) * time.Second,
	}
}

// Chat streams the generated answer through onDelta. With an empty retrieval
// result the fixed fallback answer is emitted and no model call is made.
func (s *ChatService) Chat(ctx context.Context, query string, onDelta func(delta string) error) ([]*model.SearchResult, error) {
	results, prompt, err := s.prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	if prompt == "" {
		return results, onDelta(emptyContextAnswer)
	}
	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.generator.GenerateStream(genCtx, prompt, onDelta); err != nil {
		return results, fmt.Errorf("generate answer: %w", err)
	}
	return results, nil
}

// ChatSync is the non-streaming variant.
func (s *ChatService) ChatSync(ctx context.Context, query string) (string, []*model.SearchResult, error) {
	results, prompt, err := s.prepare(ctx, query)
	if err != nil {
		return "", nil, err
	}
	if prompt == "" {
		return emptyContextAnswer, results, nil
	}
	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	answer, err := s.generator.Generate(genCtx, prompt)
	if err != nil {
		return "", results, fmt.Errorf("generate answer: %w", err)
	}
	return answer, results, nil
}

func (s *ChatService) prepare(ctx context.Context, query string) ([]*model.SearchResult, string, error) {
	results, err := s.searcher.Search(ctx, query, 0)
	if err != nil {
		return nil, "", err
	}
	if len(results) == 0 {
		return results, "", nil
	}
	budget := s.maxInputChars - len(chatPromptTemplate) - len(query)
	return results, fmt.Sprintf(chatPromptTemplate, buildContext(results, budget), query), nil
}

// buildContext concatenates the retrieved chunks up to the input budget.
// Chunk content already carries its file/symbol header, so each block only
// needs a separator. A chunk that would blow the budget is dropped whole
// rather than truncated mid-fragment.
func buildContext(results []*model.SearchResult, budget int) string {
	var sb strings.Builder
	for i, item := range results {
		if sb.Len() > 0 && sb.Len()+len(item.Content) > budget {
			break
		}
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "--- context %d ---\n", i+1)
		sb.WriteString(item.Content)
	}
	return sb.String()
}
