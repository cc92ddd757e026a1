package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"finance-rag/internal/config"
	"finance-rag/internal/embedding"
	"finance-rag/internal/models"
)

// ChunkRow is a stored chunk with its embedding vector.
type ChunkRow struct {
	bun.BaseModel `bun:"table:chunks,alias:c"`

	ID             int64           `bun:"id,pk,autoincrement"`
	Content        string          `bun:"content,notnull"`
	Embedding      pgvector.Vector `bun:"embedding,notnull,type:vector(1536)"`
	SourceFilename string          `bun:"source_filename,notnull"`
	PageNumber     int             `bun:"page_number,notnull"`
	ChunkID        int             `bun:"chunk_id,notnull"`

	Score float32 `bun:"score,scanonly"`
}

// PgVectorStore keeps chunks in Postgres with a pgvector column.
type PgVectorStore struct {
	db       *bun.DB
	embedder embeddings.Embedder
}

func ConnectDB(cfg *config.PostgresConfig) (*sql.DB, error) {
	dsn := cfg.URL + "?sslmode=disable"
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(cfg.Password))), nil
}

// NewPgVectorStore wraps sqldb with bun and ensures the chunks table exists.
func NewPgVectorStore(ctx context.Context, sqldb *sql.DB, debug bool, embedder embeddings.Embedder) (*PgVectorStore, error) {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return nil, fmt.Errorf("failed to create vector extension: %v", err)
	}
	if _, err := db.NewCreateTable().Model((*ChunkRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create chunks table: %v", err)
	}
	return &PgVectorStore{db: db, embedder: embedder}, nil
}

// AddDocuments embeds and inserts chunks. Rows are append-only, re-adding
// the same content duplicates it.
func (s *PgVectorStore) AddDocuments(ctx context.Context, chunks []models.Chunk) error {
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

	rows := make([]ChunkRow, len(chunks))
	for i, chunk := range chunks {
		rows[i] = ChunkRow{
			Content:        chunk.Content,
			Embedding:      pgvector.NewVector(vectors[i]),
			SourceFilename: chunk.SourceFilename,
			PageNumber:     chunk.PageNumber,
			ChunkID:        chunk.ChunkID,
		}
	}

	log.Info().Int("documents", len(rows)).Msg("adding documents to vector store")
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("failed to store chunks: %v", err)
	}
	return nil
}

// SimilaritySearch orders by cosine distance and reports 1-distance as the
// score so higher still means more similar.
func (s *PgVectorStore) SimilaritySearch(ctx context.Context, query string, k int) ([]models.RetrievalResult, error) {
	queryEmbedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %v", err)
	}
	vec := pgvector.NewVector(queryEmbedding)

	var rows []ChunkRow
	err = s.db.NewSelect().
		Model(&rows).
		Column("content", "source_filename", "page_number", "chunk_id").
		ColumnExpr("1 - (embedding <=> ?) AS score", vec).
		OrderExpr("embedding <=> ?", vec).
		Limit(k).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %v", err)
	}

	out := make([]models.RetrievalResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.RetrievalResult{
			Chunk: models.Chunk{
				Content:        row.Content,
				PageNumber:     row.PageNumber,
				ChunkID:        row.ChunkID,
				SourceFilename: row.SourceFilename,
				Metadata: map[string]string{
					models.MetaPageKey:   strconv.Itoa(row.PageNumber),
					models.MetaSourceKey: row.SourceFilename,
				},
			},
			Score: row.Score,
		})
	}
	return out, nil
}

func (s *PgVectorStore) Count(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*ChunkRow)(nil)).Count(ctx)
}

// DeleteDocuments keeps the same declared-but-unsupported contract as the
// chromem backend so callers see one behavior regardless of backend.
func (s *PgVectorStore) DeleteDocuments(ctx context.Context, ids []string) error {
	log.Warn().Int("ids", len(ids)).Msg("document deletion not supported")
	return ErrNotSupported
}
