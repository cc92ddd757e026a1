package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/textsplitter"

	"finance-rag/internal/models"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
)

// splitter separators, largest first: paragraph, line, word, character
var chunkSeparators = []string{"\n\n", "\n", " ", ""}

// DocumentProcessor turns a PDF file into retrievable chunks.
type DocumentProcessor interface {
	ExtractPages(filePath string) ([]models.Page, error)
	SplitIntoChunks(filename string, pages []models.Page) ([]models.Chunk, error)
	ProcessFile(filePath string) ([]models.Chunk, error)
}

// Processor extracts per-page text and splits it length-wise.
type Processor struct {
	splitter textsplitter.RecursiveCharacter
}

func NewProcessor(chunkSize, chunkOverlap int) *Processor {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = defaultChunkOverlap
	}
	sp := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
		textsplitter.WithSeparators(chunkSeparators),
	)
	return &Processor{splitter: sp}
}

// ExtractPages reads a PDF and returns its pages in order. Pages whose text
// cannot be decoded contribute empty content instead of failing the document.
func (p *Processor) ExtractPages(filePath string) ([]models.Page, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pdf %s: %v", filePath, err)
	}

	var pages []models.Page
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, models.Page{Number: i})
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Warn().Err(err).Int("page", i).Str("file", filePath).Msg("failed to extract page text")
			text = ""
		}
		pages = append(pages, models.Page{Number: i, Content: strings.TrimSpace(text)})
	}

	log.Info().Int("pages", len(pages)).Str("file", filePath).Msg("extracted text from pdf")
	return pages, nil
}

// SplitIntoChunks splits each page independently so chunks never span pages.
// A page with empty content yields no chunks.
func (p *Processor) SplitIntoChunks(filename string, pages []models.Page) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for _, page := range pages {
		if strings.TrimSpace(page.Content) == "" {
			continue
		}
		splits, err := p.splitter.SplitText(page.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to split page %d: %v", page.Number, err)
		}
		for i, split := range splits {
			chunks = append(chunks, models.Chunk{
				Content:        split,
				PageNumber:     page.Number,
				ChunkID:        i + 1,
				SourceFilename: filename,
				Metadata: map[string]string{
					models.MetaPageKey:   fmt.Sprintf("%d", page.Number),
					models.MetaSourceKey: filename,
				},
			})
		}
	}

	log.Info().Int("chunks", len(chunks)).Str("file", filename).Msg("generated chunks from document")
	return chunks, nil
}

// ProcessFile extracts and splits a stored PDF in one pass.
func (p *Processor) ProcessFile(filePath string) ([]models.Chunk, error) {
	pages, err := p.ExtractPages(filePath)
	if err != nil {
		return nil, err
	}
	return p.SplitIntoChunks(filepath.Base(filePath), pages)
}
