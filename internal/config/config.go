package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	Debug          bool     `yaml:"debug"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	LogLevel       string   `yaml:"log_level"`
}

type StorageConfig struct {
	UploadDir      string `yaml:"pdf_upload_path"`
	VectorDBPath   string `yaml:"vector_db_path"`
	CollectionName string `yaml:"collection_name"`
}

type RAGConfig struct {
	ChunkSize           int     `yaml:"chunk_size"`
	ChunkOverlap        int     `yaml:"chunk_overlap"`
	RetrievalK          int     `yaml:"retrieval_k"`
	SimilarityThreshold float32 `yaml:"similarity_threshold"`
}

// EmbedderConfig points at an OpenAI-compatible embedding endpoint.
// The API key is read from the environment variable named by api_key_env.
type EmbedderConfig struct {
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// LLMConfig configures the hosted inference endpoint used for generation.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type PostgresConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

// VectorStoreConfig selects the vector store backend.
type VectorStoreConfig struct {
	Type     string         `yaml:"type"` // chromem or pgvector
	Postgres PostgresConfig `yaml:"postgres"`
}

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	RAG         RAGConfig         `yaml:"rag"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	LLM         LLMConfig         `yaml:"llm"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EmbedderAPIKey resolves the embedder secret from the environment.
func (c *Config) EmbedderAPIKey() string {
	return os.Getenv(c.Embedder.APIKeyEnv)
}

// LLMAPIKey resolves the inference secret from the environment.
func (c *Config) LLMAPIKey() string {
	return os.Getenv(c.LLM.APIKeyEnv)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = "./uploads"
	}
	if cfg.Storage.VectorDBPath == "" {
		cfg.Storage.VectorDBPath = "./vectordb"
	}
	if cfg.Storage.CollectionName == "" {
		cfg.Storage.CollectionName = "financial_documents"
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 1000
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = 200
	}
	if cfg.RAG.RetrievalK == 0 {
		cfg.RAG.RetrievalK = 5
	}
	if cfg.RAG.SimilarityThreshold == 0 {
		cfg.RAG.SimilarityThreshold = 0.3
	}
	if cfg.Embedder.BaseURL == "" {
		cfg.Embedder.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "text-embedding-3-small"
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api-inference.huggingface.co"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "mistralai/Mistral-7B-Instruct-v0.2"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "HUGGINGFACEHUB_API_TOKEN"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 512
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "chromem"
	}
}

func validate(cfg *Config) error {
	if cfg.RAG.ChunkOverlap >= cfg.RAG.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)", cfg.RAG.ChunkOverlap, cfg.RAG.ChunkSize)
	}
	switch cfg.VectorStore.Type {
	case "chromem":
	case "pgvector":
		if cfg.VectorStore.Postgres.URL == "" {
			return fmt.Errorf("vector_store.postgres.url is required for pgvector store")
		}
	default:
		return fmt.Errorf("vector_store.type must be chromem or pgvector")
	}
	return nil
}
