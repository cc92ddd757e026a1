package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"finance-rag/internal/config"
	"finance-rag/internal/llm"
	"finance-rag/internal/models"
)

type fakeStore struct {
	results []models.RetrievalResult
	err     error
	queries []string
}

func (s *fakeStore) SimilaritySearch(ctx context.Context, query string, k int) ([]models.RetrievalResult, error) {
	s.queries = append(s.queries, query)
	return s.results, s.err
}

func (s *fakeStore) AddDocuments(ctx context.Context, chunks []models.Chunk) error { return nil }
func (s *fakeStore) Count(ctx context.Context) (int, error)                        { return len(s.results), nil }
func (s *fakeStore) DeleteDocuments(ctx context.Context, ids []string) error       { return nil }

type fakeModel struct {
	response llm.Response
	err      error
	prompt   string
}

func (m *fakeModel) Generate(ctx context.Context, prompt string) (llm.Response, error) {
	m.prompt = prompt
	return m.response, m.err
}

func ragConfig() *config.RAGConfig {
	return &config.RAGConfig{ChunkSize: 1000, ChunkOverlap: 200, RetrievalK: 5, SimilarityThreshold: 0.5}
}

func retrieval(content string, page int, score float32) models.RetrievalResult {
	return models.RetrievalResult{
		Chunk: models.Chunk{
			Content:    content,
			PageNumber: page,
			Metadata:   map[string]string{models.MetaPageKey: "1", models.MetaSourceKey: "report.pdf"},
		},
		Score: score,
	}
}

func TestGenerateAnswer_FiltersBelowThreshold(t *testing.T) {
	store := &fakeStore{results: []models.RetrievalResult{
		retrieval("Revenue grew 10%.", 1, 0.9),
		retrieval("Unrelated boilerplate.", 7, 0.1),
	}}
	model := &fakeModel{response: llm.Response{Kind: llm.KindSuccess, Text: "Revenue went up."}}
	p := NewPipeline(store, model, ragConfig())

	result, err := p.GenerateAnswer(context.Background(), "What happened to revenue?", nil)
	require.NoError(t, err)

	require.Equal(t, "Revenue went up.", result.Answer)
	require.Len(t, result.Sources, 1)
	require.Equal(t, "Revenue grew 10%.", result.Sources[0].Content)
	require.Contains(t, model.prompt, "Revenue grew 10%.")
	require.NotContains(t, model.prompt, "Unrelated boilerplate.")
	require.Contains(t, model.prompt, "What happened to revenue?")
	require.GreaterOrEqual(t, result.ProcessingTime, 0.0)
}

func TestGenerateAnswer_SourceScoresAreAlwaysZero(t *testing.T) {
	store := &fakeStore{results: []models.RetrievalResult{retrieval("Revenue grew 10%.", 1, 0.9)}}
	model := &fakeModel{response: llm.Response{Kind: llm.KindSuccess, Text: "ok"}}
	p := NewPipeline(store, model, ragConfig())

	result, err := p.GenerateAnswer(context.Background(), "revenue?", nil)
	require.NoError(t, err)

	require.Len(t, result.Sources, 1)
	// the retrieval score is not carried through, sources always report 0
	require.Equal(t, 0.0, result.Sources[0].Score)
	require.Equal(t, 1, result.Sources[0].Page)
}

func TestGenerateAnswer_ContextJoinedWithBlankLines(t *testing.T) {
	store := &fakeStore{results: []models.RetrievalResult{
		retrieval("First chunk.", 1, 0.9),
		retrieval("Second chunk.", 2, 0.8),
	}}
	model := &fakeModel{response: llm.Response{Kind: llm.KindSuccess, Text: "ok"}}
	p := NewPipeline(store, model, ragConfig())

	_, err := p.GenerateAnswer(context.Background(), "q", nil)
	require.NoError(t, err)

	require.Contains(t, model.prompt, "First chunk.\n\nSecond chunk.")
}

func TestGenerateAnswer_ModelAPIError(t *testing.T) {
	store := &fakeStore{results: []models.RetrievalResult{retrieval("c", 1, 0.9)}}
	model := &fakeModel{response: llm.Response{Kind: llm.KindAPIError, ErrMessage: "model overloaded"}}
	p := NewPipeline(store, model, ragConfig())

	result, err := p.GenerateAnswer(context.Background(), "q", nil)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(result.Answer, models.ModelErrorMarker))
	require.Contains(t, result.Answer, "model overloaded")
	require.Len(t, result.Sources, 1)
}

func TestGenerateAnswer_UnrecognizedShape(t *testing.T) {
	store := &fakeStore{results: []models.RetrievalResult{retrieval("c", 1, 0.9)}}
	model := &fakeModel{response: llm.Response{Kind: llm.KindUnrecognized, Raw: `{"odd": true}`}}
	p := NewPipeline(store, model, ragConfig())

	result, err := p.GenerateAnswer(context.Background(), "q", nil)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(result.Answer, models.UnexpectedFormatMarker))
	require.Contains(t, result.Answer, "odd")
}

func TestGenerateAnswer_TransportFailureDegrades(t *testing.T) {
	store := &fakeStore{results: []models.RetrievalResult{retrieval("c", 1, 0.9)}}
	model := &fakeModel{err: errors.New("connection refused")}
	p := NewPipeline(store, model, ragConfig())

	result, err := p.GenerateAnswer(context.Background(), "q", nil)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(result.Answer, models.GenerationFailureMarker))
	require.Contains(t, result.Answer, "connection refused")
}

func TestGenerateAnswer_RetrievalFailurePropagates(t *testing.T) {
	store := &fakeStore{err: errors.New("index unavailable")}
	model := &fakeModel{response: llm.Response{Kind: llm.KindSuccess, Text: "never"}}
	p := NewPipeline(store, model, ragConfig())

	_, err := p.GenerateAnswer(context.Background(), "q", nil)

	require.Error(t, err)
	require.Empty(t, model.prompt)
}

func TestGenerateAnswer_ChatHistoryIsNotUsed(t *testing.T) {
	store := &fakeStore{results: []models.RetrievalResult{retrieval("c", 1, 0.9)}}
	model := &fakeModel{response: llm.Response{Kind: llm.KindSuccess, Text: "ok"}}
	p := NewPipeline(store, model, ragConfig())

	history := []map[string]string{{"role": "user", "content": "ignore me"}}
	_, err := p.GenerateAnswer(context.Background(), "q", history)
	require.NoError(t, err)

	require.NotContains(t, model.prompt, "ignore me")
	require.Equal(t, []string{"q"}, store.queries)
}
