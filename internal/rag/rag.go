package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"finance-rag/internal/config"
	"finance-rag/internal/llm"
	"finance-rag/internal/models"
	"finance-rag/internal/vectorstore"
)

// ModelCaller is the slice of the llm client the pipeline needs.
type ModelCaller interface {
	Generate(ctx context.Context, prompt string) (llm.Response, error)
}

// Pipeline answers questions by retrieving relevant chunks and forwarding
// them with the question to the model.
type Pipeline struct {
	store vectorstore.Store
	model ModelCaller
	cfg   *config.RAGConfig
}

func NewPipeline(store vectorstore.Store, model ModelCaller, cfg *config.RAGConfig) *Pipeline {
	return &Pipeline{store: store, model: model, cfg: cfg}
}

// GenerateAnswer runs retrieve, filter, prompt and generate for one
// question. Model call and parse failures never surface as errors, they
// degrade into the answer text; only retrieval failures are returned.
// chatHistory is accepted for API compatibility but is not yet used for
// retrieval or prompting.
func (p *Pipeline) GenerateAnswer(ctx context.Context, question string, chatHistory []map[string]string) (models.ChatResult, error) {
	start := time.Now()

	chunks, err := p.retrieve(ctx, question)
	if err != nil {
		log.Error().Err(err).Msg("retrieval failed")
		return models.ChatResult{}, err
	}

	answer := p.formatAnswer(p.generate(ctx, question, buildContext(chunks)))

	sources := make([]models.DocumentSource, 0, len(chunks))
	for _, chunk := range chunks {
		sources = append(sources, models.DocumentSource{
			Content:  chunk.Content,
			Page:     chunk.PageNumber,
			Metadata: chunk.Metadata,
			Score:    0.0,
		})
	}

	return models.ChatResult{
		Answer:         answer,
		Sources:        sources,
		ProcessingTime: time.Since(start).Seconds(),
	}, nil
}

// retrieve returns the top-k chunks scoring at or above the configured
// similarity threshold.
func (p *Pipeline) retrieve(ctx context.Context, query string) ([]models.Chunk, error) {
	results, err := p.store.SimilaritySearch(ctx, query, p.cfg.RetrievalK)
	if err != nil {
		return nil, err
	}
	var chunks []models.Chunk
	for _, res := range results {
		if res.Score >= p.cfg.SimilarityThreshold {
			chunks = append(chunks, res.Chunk)
		}
	}
	log.Debug().Int("retrieved", len(results)).Int("kept", len(chunks)).Msg("retrieved context chunks")
	return chunks, nil
}

// outcome is the internal generation result: either the model's response or
// the failure that prevented one. Formatting to user-visible text happens
// only at the boundary.
type outcome struct {
	response llm.Response
	err      error
}

func (p *Pipeline) generate(ctx context.Context, question, contextText string) outcome {
	prompt := fmt.Sprintf(models.AnswerPromptTemplate, contextText, question)
	response, err := p.model.Generate(ctx, prompt)
	return outcome{response: response, err: err}
}

func (p *Pipeline) formatAnswer(o outcome) string {
	if o.err != nil {
		return models.GenerationFailureMarker + o.err.Error()
	}
	switch o.response.Kind {
	case llm.KindSuccess:
		return o.response.Text
	case llm.KindAPIError:
		return models.ModelErrorMarker + o.response.ErrMessage
	default:
		return models.UnexpectedFormatMarker + o.response.Raw
	}
}

func buildContext(chunks []models.Chunk) string {
	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		texts = append(texts, chunk.Content)
	}
	return strings.Join(texts, "\n\n")
}
