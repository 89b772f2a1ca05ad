package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Organization is the tenant boundary: documents, chunks and audit rows all carry its id.
type Organization struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:organization_name;not null;uniqueIndex" json:"organization_name"`
	CreatedBy string    `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (o *Organization) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
