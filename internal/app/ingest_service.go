package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"docqa-backend/internal/cache"
	"docqa-backend/internal/model"
	"docqa-backend/internal/pkg/pdfextract"
	"docqa-backend/internal/pkg/textsplit"
	"docqa-backend/internal/repository"
)

// IngestResult reports what one ingestion run produced. Skipped carries the
// reason when nothing was ingested and that is not an error.
type IngestResult struct {
	DocumentID     uuid.UUID  `json:"document_id"`
	ChunksCreated  int        `json:"chunks_created"`
	LastEmbeddedAt *time.Time `json:"last_embedded_at"`
	Skipped        string     `json:"skipped,omitempty"`
}

type IngestService struct {
	extractor  PageExtractor
	splitter   *textsplit.Splitter
	vectorizer *Vectorizer
	chunks     ChunkStore
	lock       DocumentLocker
	now        func() time.Time
}

func NewIngestService(
	extractor PageExtractor,
	splitter *textsplit.Splitter,
	vectorizer *Vectorizer,
	chunks ChunkStore,
	lock DocumentLocker,
) *IngestService {
	return &IngestService{
		extractor:  extractor,
		splitter:   splitter,
		vectorizer: vectorizer,
		chunks:     chunks,
		lock:       lock,
		now:        time.Now,
	}
}

// Ingest replaces the chunk set of doc with freshly embedded windows of its
// current content. On success doc.LastEmbeddedAt is updated in place.
func (s *IngestService) Ingest(ctx context.Context, doc *model.Document) (*IngestResult, error) {
	result := &IngestResult{DocumentID: doc.ID, LastEmbeddedAt: doc.LastEmbeddedAt}
	logger := zerolog.Ctx(ctx).With().Str("document_id", doc.ID.String()).Logger()

	if !supportedForIngestion(doc.StorageKey) {
		result.Skipped = fmt.Sprintf("unsupported file type %q, only PDF is ingested", filepath.Ext(doc.StorageKey))
		return result, nil
	}

	if s.lock != nil {
		release, err := s.lock.Acquire(ctx, doc.ID)
		if errors.Is(err, cache.ErrLockHeld) {
			return nil, ErrIngestionInProgress
		}
		if err != nil {
			return nil, err
		}
		defer release()
	}

	started := time.Now()
	pages, err := s.extractor.Extract(ctx, doc.StorageKey)
	if errors.Is(err, pdfextract.ErrNoPages) {
		result.Skipped = "no extractable pages"
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	chunks, err := s.buildChunks(ctx, doc, pages)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		result.Skipped = "no text left after sanitization"
	}

	// an empty set still replaces the previous chunks
	embeddedAt := s.now().UTC()
	if err := s.chunks.ReplaceForDocument(ctx, doc.ID, chunks, embeddedAt); err != nil {
		if errors.Is(err, repository.ErrDocumentGone) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("persist chunks failed: %w", err)
	}

	doc.LastEmbeddedAt = &embeddedAt
	result.ChunksCreated = len(chunks)
	result.LastEmbeddedAt = &embeddedAt

	if result.Skipped != "" {
		logger.Info().Str("reason", result.Skipped).Msg("document ingested without chunks")
		return result, nil
	}
	logger.Info().
		Int("chunks", len(chunks)).
		Int("pages", len(pages)).
		Dur("duration", time.Since(started)).
		Msg("document ingested")
	return result, nil
}

func (s *IngestService) buildChunks(ctx context.Context, doc *model.Document, pages []pdfextract.Page) ([]model.DocumentChunk, error) {
	var chunks []model.DocumentChunk
	for _, page := range pages {
		for _, span := range s.splitter.Split(page.Text) {
			text := sanitizeText(span.Text)
			if strings.TrimSpace(text) == "" {
				continue
			}
			vec, err := s.vectorizer.Vector(ctx, text)
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, model.DocumentChunk{
				DocumentID:     doc.ID,
				OrganizationID: doc.OrganizationID,
				Content:        text,
				Embedding:      pgvector.NewVector(vec),
				ChunkIndex:     len(chunks),
				ContentLength:  utf8.RuneCountInString(text),
				Metadata: datatypes.NewJSONType(model.ChunkMetadata{
					Source:     doc.FileName,
					StorageKey: doc.StorageKey,
					Page:       page.Number,
					TotalPages: page.Total,
					StartIndex: span.Start,
				}),
			})
		}
	}
	return chunks, nil
}

// sanitizeText makes text storable in a Postgres text column: invalid UTF-8
// sequences become U+FFFD and NUL bytes are dropped.
func sanitizeText(text string) string {
	text = strings.ToValidUTF8(text, "\uFFFD")
	return strings.ReplaceAll(text, "\x00", "")
}

func supportedForIngestion(key string) bool {
	return strings.EqualFold(filepath.Ext(key), ".pdf")
}
