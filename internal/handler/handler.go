package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"finance-rag/internal/helper"
	"finance-rag/internal/models"
	"finance-rag/internal/parser"
	"finance-rag/internal/vectorstore"
)

const (
	documentSuffix = ".pdf"
	rootMessage    = "RAG-based Financial Statement Q&A System is running"
)

// AnswerGenerator produces an answer for a question. Model failures degrade
// into the answer text; only retrieval failures surface as errors.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, chatHistory []map[string]string) (models.ChatResult, error)
}

// API holds the handlers' dependencies, constructed once at startup.
type API struct {
	uploadDir string
	processor parser.DocumentProcessor
	store     vectorstore.Store
	pipeline  AnswerGenerator
}

func NewAPI(uploadDir string, processor parser.DocumentProcessor, store vectorstore.Store, pipeline AnswerGenerator) *API {
	return &API{uploadDir: uploadDir, processor: processor, store: store, pipeline: pipeline}
}

func errorDetail(c *gin.Context, status int, detail string) {
	c.JSON(status, gin.H{"detail": detail})
}

// Root reports service liveness.
func (a *API) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": rootMessage})
}

// Upload stores a PDF, splits it into chunks and persists them.
func (a *API) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		errorDetail(c, http.StatusBadRequest, "file is required")
		return
	}
	if !strings.HasSuffix(file.Filename, documentSuffix) {
		errorDetail(c, http.StatusBadRequest, "Only PDF files are allowed.")
		return
	}

	start := time.Now()
	if err := helper.CreateFolder(a.uploadDir); err != nil {
		errorDetail(c, http.StatusInternalServerError, "failed to create upload directory")
		return
	}
	savePath := filepath.Join(a.uploadDir, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, savePath); err != nil {
		errorDetail(c, http.StatusInternalServerError, "failed to save file")
		return
	}

	pages, err := a.processor.ExtractPages(savePath)
	if err != nil {
		log.Error().Err(err).Str("file", file.Filename).Msg("failed to extract pdf")
		errorDetail(c, http.StatusInternalServerError, fmt.Sprintf("failed to process PDF: %v", err))
		return
	}
	chunks, err := a.processor.SplitIntoChunks(filepath.Base(file.Filename), pages)
	if err != nil {
		errorDetail(c, http.StatusInternalServerError, fmt.Sprintf("failed to split PDF: %v", err))
		return
	}
	if err := a.store.AddDocuments(c.Request.Context(), chunks); err != nil {
		log.Error().Err(err).Msg("failed to store chunks")
		errorDetail(c, http.StatusInternalServerError, "failed to store document")
		return
	}

	c.JSON(http.StatusOK, models.UploadResponse{
		Message:        "PDF processed successfully.",
		Filename:       file.Filename,
		ChunksCount:    len(chunks),
		ProcessingTime: time.Since(start).Seconds(),
	})
}

// Chat answers a question using the stored documents.
func (a *API) Chat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorDetail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		errorDetail(c, http.StatusBadRequest, "Question cannot be empty.")
		return
	}

	result, err := a.pipeline.GenerateAnswer(c.Request.Context(), req.Question, req.ChatHistory)
	if err != nil {
		log.Error().Err(err).Msg("failed to generate answer")
		errorDetail(c, http.StatusInternalServerError, "failed to generate answer")
		return
	}
	c.JSON(http.StatusOK, result)
}

// Documents lists uploaded PDFs. Chunk counts are not computed from the
// store and are always reported as zero, status is always "processed".
func (a *API) Documents(c *gin.Context) {
	entries, err := os.ReadDir(a.uploadDir)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusOK, models.DocumentsResponse{Documents: []models.DocumentInfo{}})
			return
		}
		errorDetail(c, http.StatusInternalServerError, "failed to list documents")
		return
	}

	documents := make([]models.DocumentInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), documentSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		documents = append(documents, models.DocumentInfo{
			Filename:    entry.Name(),
			UploadDate:  info.ModTime(),
			ChunksCount: 0,
			Status:      "processed",
		})
	}
	c.JSON(http.StatusOK, models.DocumentsResponse{Documents: documents})
}

// Chunks re-processes every stored PDF from scratch to enumerate chunk
// metadata. Expensive, it does not read back from the vector store.
func (a *API) Chunks(c *gin.Context) {
	entries, err := os.ReadDir(a.uploadDir)
	if err != nil && !os.IsNotExist(err) {
		errorDetail(c, http.StatusInternalServerError, "failed to list documents")
		return
	}

	chunks := make([]models.ChunkInfo, 0)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), documentSuffix) {
			continue
		}
		docChunks, err := a.processor.ProcessFile(filepath.Join(a.uploadDir, entry.Name()))
		if err != nil {
			log.Error().Err(err).Str("file", entry.Name()).Msg("failed to re-process pdf")
			errorDetail(c, http.StatusInternalServerError, fmt.Sprintf("failed to process %s: %v", entry.Name(), err))
			return
		}
		for i, chunk := range docChunks {
			chunks = append(chunks, models.ChunkInfo{
				ID:       fmt.Sprintf("%s-%d", entry.Name(), i),
				Content:  chunk.Content,
				Page:     chunk.PageNumber,
				Metadata: chunk.Metadata,
			})
		}
	}
	c.JSON(http.StatusOK, models.ChunksResponse{Chunks: chunks, TotalCount: len(chunks)})
}
