package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"docqa-backend/internal/ai"
	"docqa-backend/internal/model"
	"docqa-backend/internal/pkg/pdfextract"
)

// Narrow views of the repositories and clients each service depends on.

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type OrganizationStore interface {
	CreateWithOwner(ctx context.Context, org *model.Organization, ownerID uuid.UUID) error
	GetByName(ctx context.Context, name string) (*model.Organization, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Organization, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type DocumentStore interface {
	Replace(ctx context.Context, doc *model.Document) (bool, error)
	Create(ctx context.Context, doc *model.Document) error
	GetByFileName(ctx context.Context, orgID uuid.UUID, fileName string) (*model.Document, error)
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*model.Document, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]model.Document, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}

type ChunkStore interface {
	ReplaceForDocument(ctx context.Context, documentID uuid.UUID, chunks []model.DocumentChunk, embeddedAt time.Time) error
	Nearest(ctx context.Context, orgID uuid.UUID, vec []float32, k int) ([]model.ChunkHit, error)
}

type AuditStore interface {
	Create(ctx context.Context, entry *model.AuditLog) error
	ListByOrganization(ctx context.Context, orgID uuid.UUID, limit int) ([]model.AuditLog, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type ChatModel interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (*ai.ChatResult, error)
}

type PageExtractor interface {
	Extract(ctx context.Context, key string) ([]pdfextract.Page, error)
}

// DocumentLocker hands out a per-document mutual-exclusion token.
type DocumentLocker interface {
	Acquire(ctx context.Context, documentID uuid.UUID) (func(), error)
}

type ReindexPublisher interface {
	PublishReindex(ctx context.Context, job model.ReindexJob) error
}
