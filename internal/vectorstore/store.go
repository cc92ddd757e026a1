package vectorstore

import (
	"context"
	"errors"

	"finance-rag/internal/models"
)

// ErrNotSupported is returned by operations a backend declares but cannot
// perform. Callers are expected to detect it rather than assume deletion
// happened.
var ErrNotSupported = errors.New("operation not supported by vector store")

// Store persists chunks as embedding vectors and supports nearest-neighbor
// search. Score scale depends on the backend.
type Store interface {
	AddDocuments(ctx context.Context, chunks []models.Chunk) error
	SimilaritySearch(ctx context.Context, query string, k int) ([]models.RetrievalResult, error)
	Count(ctx context.Context) (int, error)
	DeleteDocuments(ctx context.Context, ids []string) error
}
