package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"finance-rag/internal/config"
	"finance-rag/internal/embedding"
	"finance-rag/internal/handler"
	"finance-rag/internal/llm"
	"finance-rag/internal/parser"
	"finance-rag/internal/rag"
	"finance-rag/internal/vectorstore"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	flag.Parse()

	// .env is optional, secrets may come from the real environment
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	level, err := zerolog.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid log level")
	}
	zerolog.SetGlobalLevel(level)
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	embedder, err := embedding.NewEmbedder(&cfg.Embedder, cfg.EmbedderAPIKey())
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	store, err := newStore(cfg, embedder)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing vector store")
	}

	processor := parser.NewProcessor(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	model := llm.NewClient(&cfg.LLM, cfg.LLMAPIKey())
	pipeline := rag.NewPipeline(store, model, &cfg.RAG)
	api := handler.NewAPI(cfg.Storage.UploadDir, processor, store, pipeline)

	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	handler.RegisterRoutes(r, api, cfg.Server.AllowedOrigins)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info().Str("addr", addr).Str("store", cfg.VectorStore.Type).Msg("starting server")
	if err := r.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func newStore(cfg *config.Config, embedder embeddings.Embedder) (vectorstore.Store, error) {
	switch cfg.VectorStore.Type {
	case "pgvector":
		sqldb, err := vectorstore.ConnectDB(&cfg.VectorStore.Postgres)
		if err != nil {
			return nil, err
		}
		return vectorstore.NewPgVectorStore(context.Background(), sqldb, cfg.VectorStore.Postgres.Debug, embedder)
	default:
		return vectorstore.NewChromemStore(cfg.Storage.VectorDBPath, cfg.Storage.CollectionName, embedder)
	}
}
