package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SourceRef cites one chunk that was placed in a grounding prompt.
type SourceRef struct {
	ChunkID    uuid.UUID `json:"chunk_id"`
	DocumentID uuid.UUID `json:"document_id"`
	FileName   string    `json:"filename"`
	Page       int       `json:"page"`
	Distance   float64   `json:"distance"`
}

// AuditLog is append-only: one row per answered question that reached the chat model.
type AuditLog struct {
	ID                uuid.UUID                       `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID    *uuid.UUID                      `gorm:"type:uuid;index" json:"organization_id"`
	RequesterEmail    string                          `gorm:"not null" json:"requester_email"`
	RequesterFullName string                          `gorm:"not null" json:"requester_full_name"`
	Question          string                          `gorm:"type:text;not null" json:"question"`
	Prompt            string                          `gorm:"type:text;not null" json:"prompt"`
	ResponseText      string                          `gorm:"type:text;not null" json:"response_text"`
	InputTokens       *int                            `json:"input_tokens"`
	OutputTokens      *int                            `json:"output_tokens"`
	TotalTokens       *int                            `json:"total_tokens"`
	ModelName         *string                         `json:"model_name"`
	Sources           datatypes.JSONType[[]SourceRef] `gorm:"type:jsonb" json:"sources"`
	RequestedAt       time.Time                       `gorm:"not null" json:"requested_at"`
}

func (AuditLog) TableName() string {
	return "ai_audit_logs"
}

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
