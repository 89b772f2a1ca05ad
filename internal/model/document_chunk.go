package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChunkMetadata records where a chunk came from inside its document.
type ChunkMetadata struct {
	Source     string `json:"source"`
	StorageKey string `json:"storage_key"`
	Page       int    `json:"page"`
	TotalPages int    `json:"total_pages"`
	StartIndex int    `json:"start_index"`
}

type DocumentChunk struct {
	ID             uuid.UUID                         `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID     uuid.UUID                         `gorm:"type:uuid;not null;index" json:"document_id"`
	OrganizationID uuid.UUID                         `gorm:"type:uuid;not null;index" json:"organization_id"`
	Content        string                            `gorm:"type:text;not null" json:"content"`
	Embedding      pgvector.Vector                   `gorm:"type:vector(768);not null" json:"-"`
	ChunkIndex     int                               `gorm:"not null" json:"chunk_index"`
	ContentLength  int                               `gorm:"not null" json:"content_length"`
	Metadata       datatypes.JSONType[ChunkMetadata] `gorm:"type:jsonb" json:"metadata"`
	CreatedAt      time.Time                         `json:"created_at"`
}

func (c *DocumentChunk) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ChunkHit is one nearest-neighbour row returned by the vector search.
type ChunkHit struct {
	ID             uuid.UUID                         `json:"id"`
	DocumentID     uuid.UUID                         `json:"document_id"`
	OrganizationID uuid.UUID                         `json:"organization_id"`
	FileName       string                            `json:"filename"`
	Content        string                            `json:"content"`
	Metadata       datatypes.JSONType[ChunkMetadata] `json:"metadata"`
	Distance       float64                           `json:"distance"`
}
