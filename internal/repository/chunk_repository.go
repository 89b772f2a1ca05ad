package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"docqa-backend/internal/model"
)

const defaultInsertBatchSize = 100

const nearestChunksSQL = `
SELECT c.id, c.document_id, c.organization_id, d.file_name, c.content, c.metadata,
       c.embedding <-> ? AS distance
FROM document_chunks c
JOIN documents d ON d.id = c.document_id
WHERE c.organization_id = ?
ORDER BY c.embedding <-> ?
LIMIT ?`

type ChunkRepository struct {
	db        *gorm.DB
	batchSize int
}

func NewChunkRepository(db *gorm.DB, batchSize int) *ChunkRepository {
	if batchSize <= 0 {
		batchSize = defaultInsertBatchSize
	}
	return &ChunkRepository{db: db, batchSize: batchSize}
}

// ReplaceForDocument swaps the document's chunk set and stamps last_embedded_at in
// one transaction. Readers see either the old set or the complete new one.
func (r *ChunkRepository) ReplaceForDocument(ctx context.Context, documentID uuid.UUID, chunks []model.DocumentChunk, embeddedAt time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).Delete(&model.DocumentChunk{}).Error; err != nil {
			return err
		}
		if len(chunks) > 0 {
			if err := tx.CreateInBatches(&chunks, r.batchSize).Error; err != nil {
				return err
			}
		}
		res := tx.Model(&model.Document{}).Where("id = ?", documentID).Update("last_embedded_at", embeddedAt)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDocumentGone
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace document chunks failed: %w", err)
	}
	return nil
}

// Nearest returns up to k chunks of orgID ordered by ascending L2 distance to vec.
func (r *ChunkRepository) Nearest(ctx context.Context, orgID uuid.UUID, vec []float32, k int) ([]model.ChunkHit, error) {
	q := pgvector.NewVector(vec)
	var hits []model.ChunkHit
	if err := r.db.WithContext(ctx).Raw(nearestChunksSQL, q, orgID, q, k).Scan(&hits).Error; err != nil {
		return nil, fmt.Errorf("search document chunks failed: %w", err)
	}
	return hits, nil
}

func (r *ChunkRepository) CountByDocument(ctx context.Context, documentID uuid.UUID) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.DocumentChunk{}).Where("document_id = ?", documentID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count document chunks failed: %w", err)
	}
	return n, nil
}
