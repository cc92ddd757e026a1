package models

import "time"

// Page holds the extracted text of a single PDF page.
type Page struct {
	Number  int
	Content string
}

// Chunk represents a retrievable slice of a document with metadata
type Chunk struct {
	Content        string
	PageNumber     int
	ChunkID        int
	SourceFilename string
	Metadata       map[string]string
}

// RetrievalResult pairs a chunk with its similarity score. Score scale is
// defined by the vector store backend and is not comparable across backends.
type RetrievalResult struct {
	Chunk Chunk
	Score float32
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Question    string              `json:"question"`
	ChatHistory []map[string]string `json:"chat_history"`
}

// DocumentSource describes one chunk used to ground an answer.
type DocumentSource struct {
	Content  string            `json:"content"`
	Page     int               `json:"page"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}

// ChatResult is what the answer pipeline produces for one question.
type ChatResult struct {
	Answer         string           `json:"answer"`
	Sources        []DocumentSource `json:"sources"`
	ProcessingTime float64          `json:"processing_time"`
}

type UploadResponse struct {
	Message        string  `json:"message"`
	Filename       string  `json:"filename"`
	ChunksCount    int     `json:"chunks_count"`
	ProcessingTime float64 `json:"processing_time"`
}

type DocumentInfo struct {
	Filename    string    `json:"filename"`
	UploadDate  time.Time `json:"upload_date"`
	ChunksCount int       `json:"chunks_count"`
	Status      string    `json:"status"`
}

type DocumentsResponse struct {
	Documents []DocumentInfo `json:"documents"`
}

type ChunkInfo struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Page     int               `json:"page"`
	Metadata map[string]string `json:"metadata"`
}

type ChunksResponse struct {
	Chunks     []ChunkInfo `json:"chunks"`
	TotalCount int         `json:"total_count"`
}
