package vectorstore

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"finance-rag/internal/embedding"
	"finance-rag/internal/helper"
	"finance-rag/internal/models"
)

const compress = false

// ChromemStore keeps chunks in a chromem-go collection persisted on disk.
// Embeddings are computed up front and supplied explicitly, so the
// collection never falls back to its own embedding function.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   embeddings.Embedder
}

// NewChromemStore opens (or creates) the persistent database at dbPath and
// binds the named collection.
func NewChromemStore(dbPath, collectionName string, embedder embeddings.Embedder) (*ChromemStore, error) {
	if err := helper.CreateFolder(dbPath); err != nil {
		return nil, fmt.Errorf("failed to create vector db folder: %v", err)
	}
	db, err := chromem.NewPersistentDB(dbPath, compress)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %v", err)
	}
	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}
	return &ChromemStore{db: db, collection: collection, embedder: embedder}, nil
}

// AddDocuments embeds and appends chunks. IDs are random so re-adding the
// same content duplicates it, there is no dedup.
func (s *ChromemStore) AddDocuments(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	vectors, err := embedding.EmbedChunks(ctx, s.embedder, chunks)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %v", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for i, chunk := range chunks {
		id, err := helper.GenerateUUID()
		if err != nil {
			return err
		}
		docs = append(docs, chromem.Document{
			ID:        id,
			Content:   chunk.Content,
			Metadata:  chunk.Metadata,
			Embedding: vectors[i],
		})
	}

	log.Info().Int("documents", len(docs)).Msg("adding documents to vector store")
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	return nil
}

// SimilaritySearch returns up to k chunks ordered by descending cosine
// similarity. k is clamped to the collection size.
func (s *ChromemStore) SimilaritySearch(ctx context.Context, query string, k int) ([]models.RetrievalResult, error) {
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k <= 0 || k > count {
		k = count
	}

	queryEmbedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %v", err)
	}

	results, err := s.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: queryEmbedding,
		NResults:       k,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	out := make([]models.RetrievalResult, 0, len(results))
	for _, res := range results {
		out = append(out, models.RetrievalResult{
			Chunk: chunkFromMetadata(res.Content, res.Metadata),
			Score: res.Similarity,
		})
	}
	return out, nil
}

// Count reports the total number of stored chunks.
func (s *ChromemStore) Count(ctx context.Context) (int, error) {
	return s.collection.Count(), nil
}

// DeleteDocuments is declared but not supported on this backend.
func (s *ChromemStore) DeleteDocuments(ctx context.Context, ids []string) error {
	log.Warn().Int("ids", len(ids)).Msg("document deletion not supported")
	return ErrNotSupported
}

func chunkFromMetadata(content string, metadata map[string]string) models.Chunk {
	page, _ := strconv.Atoi(metadata[models.MetaPageKey])
	return models.Chunk{
		Content:        content,
		PageNumber:     page,
		SourceFilename: metadata[models.MetaSourceKey],
		Metadata:       metadata,
	}
}
