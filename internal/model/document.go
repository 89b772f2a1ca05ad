package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Document struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FileName       string     `gorm:"not null;uniqueIndex:uq_documents_org_file,priority:2" json:"filename"`
	UploadedBy     string     `gorm:"not null" json:"uploaded_by"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_documents_org_file,priority:1" json:"organization_id"`
	StorageKey     string     `gorm:"not null" json:"storage_key"`
	UploadedAt     time.Time  `gorm:"not null" json:"uploaded_at"`
	LastEmbeddedAt *time.Time `json:"last_embedded_at"`

	Chunks []DocumentChunk `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"-"`
}

func (d *Document) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// UpToDate reports whether the stored chunks reflect the current upload.
func (d *Document) UpToDate() bool {
	return d.LastEmbeddedAt != nil && !d.LastEmbeddedAt.Before(d.UploadedAt)
}
